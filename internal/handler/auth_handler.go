package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/where2dive/internal/db"
	"github.com/where2dive/internal/service"
)

const sessionUserKey = "user_id"

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

// Register 创建账号并直接登录
func (a *API) Register(c *gin.Context) {
	var req credentialsRequest
	if !a.bindJSON(c, &req) {
		return
	}

	user, err := a.users.Register(req.Email, req.Password, req.Nickname)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidUserInput):
			a.respondMessage(c, http.StatusBadRequest, "auth.invalidInput")
		case errors.Is(err, service.ErrUserExists):
			a.respondMessage(c, http.StatusConflict, "auth.exists")
		default:
			log.Printf("[auth] register failed: %v", err)
			a.respondMessage(c, http.StatusInternalServerError, "server.error")
		}
		return
	}

	if !a.startSession(c, user) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": userToPayload(user)})
}

// Login 校验凭据并写入会话，同时预热成就缓存
func (a *API) Login(c *gin.Context) {
	var req credentialsRequest
	if !a.bindJSON(c, &req) {
		return
	}

	user, err := a.users.Authenticate(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			a.respondMessage(c, http.StatusUnauthorized, "auth.invalid")
			return
		}
		log.Printf("[auth] login failed: %v", err)
		a.respondMessage(c, http.StatusInternalServerError, "server.error")
		return
	}

	if !a.startSession(c, user) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userToPayload(user)})
}

// Logout 清空会话与成就缓存
func (a *API) Logout(c *gin.Context) {
	userID := currentUserID(c)
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		log.Printf("[auth] clear session failed: %v", err)
	}
	if userID != 0 {
		a.achievements.OnLogout(userID)
		if a.hub != nil {
			a.hub.CloseUser(userID)
		}
	}
	c.Status(http.StatusNoContent)
}

// Me 返回当前登录用户
func (a *API) Me(c *gin.Context) {
	user, err := a.users.Get(currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			a.respondMessage(c, http.StatusUnauthorized, "auth.required")
			return
		}
		a.respondMessage(c, http.StatusInternalServerError, "server.error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userToPayload(user)})
}

// AuthRequired 拦截未登录请求
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUserID(c) == 0 {
			a.respondMessage(c, http.StatusUnauthorized, "auth.required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (a *API) startSession(c *gin.Context, user *db.User) bool {
	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		log.Printf("[auth] save session failed: %v", err)
		a.respondMessage(c, http.StatusInternalServerError, "server.error")
		return false
	}
	if err := a.achievements.OnLogin(c.Request.Context(), user.ID); err != nil {
		log.Printf("[auth] load achievements for user %d failed: %v", user.ID, err)
	}
	return true
}

// currentUserID 未挂载会话中间件或未登录时返回 0
func currentUserID(c *gin.Context) uint {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return 0
	}
	switch value := sessions.Default(c).Get(sessionUserKey).(type) {
	case uint:
		return value
	case int:
		if value > 0 {
			return uint(value)
		}
	}
	return 0
}

func userToPayload(user *db.User) gin.H {
	return gin.H{
		"id":             user.ID,
		"email":          user.Email,
		"nickname":       user.Nickname,
		"bio":            user.Bio,
		"photoUrl":       user.PhotoURL,
		"isPublic":       user.IsPublic,
		"language":       user.Language,
		"featuredBadges": nonNilStrings(user.FeaturedBadges),
	}
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
