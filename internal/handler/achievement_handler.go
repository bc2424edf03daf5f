package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/where2dive/internal/achievement"
)

type featuredPayload struct {
	IDs []string `json:"ids"`
}

// GetAchievements 返回按分组排列的成就与进度
func (a *API) GetAchievements(c *gin.Context) {
	overview, err := a.achievements.Overview(c.Request.Context(), currentUserID(c), a.language(c))
	if err != nil {
		log.Printf("[achievement] overview failed: %v", err)
		a.respondMessage(c, http.StatusInternalServerError, "server.error")
		return
	}
	c.JSON(http.StatusOK, overview)
}

// CheckAchievements 立即重新评估，返回本次新解锁的成就
func (a *API) CheckAchievements(c *gin.Context) {
	unlocked, err := a.achievements.Check(c.Request.Context(), currentUserID(c))
	if err != nil {
		log.Printf("[achievement] check failed: %v", err)
		a.respondMessage(c, http.StatusInternalServerError, "server.error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unlocked": nonNilStrings(unlocked)})
}

// SetFeaturedAchievements 设置最多三个已解锁的展示徽章
func (a *API) SetFeaturedAchievements(c *gin.Context) {
	var payload featuredPayload
	if !a.bindJSON(c, &payload) {
		return
	}
	featured, err := a.achievements.SetFeatured(c.Request.Context(), currentUserID(c), payload.IDs)
	if err != nil {
		if errors.Is(err, achievement.ErrInvalidArgument) {
			a.respondMessage(c, http.StatusBadRequest, "achievement.invalid")
			return
		}
		log.Printf("[achievement] set featured failed: %v", err)
		a.respondMessage(c, http.StatusInternalServerError, "server.error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"featured": nonNilStrings(featured)})
}

// AchievementSocket 升级为 websocket，推送解锁提示
func (a *API) AchievementSocket(c *gin.Context) {
	if a.hub == nil {
		c.Status(http.StatusNotFound)
		return
	}
	if err := a.hub.Serve(c.Writer, c.Request, currentUserID(c)); err != nil {
		log.Printf("[notify] upgrade failed: %v", err)
	}
}
