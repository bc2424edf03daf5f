package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/where2dive/internal/service"
)

type legacyImportPayload struct {
	Favorites []uint                `json:"favorites"`
	Logbook   []diveLogPayload      `json:"logbook"`
	MySpots   []personalSpotPayload `json:"myspots"`
}

// ImportLegacy 一次性导入旧版客户端保存在浏览器中的数据
func (a *API) ImportLegacy(c *gin.Context) {
	var payload legacyImportPayload
	if !a.bindJSON(c, &payload) {
		return
	}

	legacy := service.LegacyPayload{
		Favorites: payload.Favorites,
		Logbook:   make([]service.DiveLogInput, 0, len(payload.Logbook)),
		MySpots:   make([]service.PersonalSpotInput, 0, len(payload.MySpots)),
	}
	for _, entry := range payload.Logbook {
		legacy.Logbook = append(legacy.Logbook, entry.input())
	}
	for _, spot := range payload.MySpots {
		legacy.MySpots = append(legacy.MySpots, spot.input())
	}

	userID := currentUserID(c)
	result, err := a.imports.Import(userID, legacy)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyImported):
			a.respondMessage(c, http.StatusConflict, "import.alreadyDone")
		case errors.Is(err, service.ErrUserNotFound):
			a.respondMessage(c, http.StatusUnauthorized, "auth.required")
		default:
			log.Printf("[import] user %d failed: %v", userID, err)
			a.respondMessage(c, http.StatusInternalServerError, "server.error")
		}
		return
	}

	unlocked := a.achievements.Refresh(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"result": result, "unlocked": nonNilStrings(unlocked)})
}
