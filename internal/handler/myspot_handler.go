package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/where2dive/internal/db"
	"github.com/where2dive/internal/locale"
	"github.com/where2dive/internal/service"
)

type personalSpotPayload struct {
	Name          string   `json:"name"`
	Lat           float64  `json:"lat"`
	Lng           float64  `json:"lng"`
	Depth         string   `json:"depth"`
	WaterTempMin  *float64 `json:"waterTempMin"`
	WaterTempMax  *float64 `json:"waterTempMax"`
	Difficulty    string   `json:"difficulty"`
	ActivityTypes []string `json:"activityTypes"`
	Memo          string   `json:"memo"`
}

func (p personalSpotPayload) input() service.PersonalSpotInput {
	return service.PersonalSpotInput{
		Name:          p.Name,
		Lat:           p.Lat,
		Lng:           p.Lng,
		Depth:         p.Depth,
		WaterTempMin:  p.WaterTempMin,
		WaterTempMax:  p.WaterTempMax,
		Difficulty:    p.Difficulty,
		ActivityTypes: p.ActivityTypes,
		Memo:          p.Memo,
	}
}

func (a *API) ListPersonalSpots(c *gin.Context) {
	spots, err := a.mySpots.List(currentUserID(c))
	if err != nil {
		a.handlePersonalSpotError(c, err)
		return
	}
	language := a.language(c)
	items := make([]gin.H, 0, len(spots))
	for i := range spots {
		items = append(items, personalSpotToPayload(&spots[i], language))
	}
	c.JSON(http.StatusOK, gin.H{"spots": items})
}

func (a *API) CreatePersonalSpot(c *gin.Context) {
	var payload personalSpotPayload
	if !a.bindJSON(c, &payload) {
		return
	}
	spot, err := a.mySpots.Create(currentUserID(c), payload.input())
	if err != nil {
		a.handlePersonalSpotError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"spot": personalSpotToPayload(spot, a.language(c))})
}

func (a *API) UpdatePersonalSpot(c *gin.Context) {
	id, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	var payload personalSpotPayload
	if !a.bindJSON(c, &payload) {
		return
	}
	spot, err := a.mySpots.Update(currentUserID(c), id, payload.input())
	if err != nil {
		a.handlePersonalSpotError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"spot": personalSpotToPayload(spot, a.language(c))})
}

func (a *API) DeletePersonalSpot(c *gin.Context) {
	id, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	if err := a.mySpots.Delete(currentUserID(c), id); err != nil {
		a.handlePersonalSpotError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handlePersonalSpotError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPersonalSpotNotFound):
		a.respondMessage(c, http.StatusNotFound, "myspot.notFound")
	case errors.Is(err, service.ErrPersonalSpotInvalid):
		a.respondMessage(c, http.StatusBadRequest, "myspot.invalid")
	default:
		log.Printf("[myspots] request failed: %v", err)
		a.respondMessage(c, http.StatusInternalServerError, "server.error")
	}
}

func personalSpotToPayload(spot *db.PersonalSpot, language string) gin.H {
	return gin.H{
		"id":              spot.ID,
		"name":            spot.Name,
		"lat":             spot.Lat,
		"lng":             spot.Lng,
		"depth":           spot.Depth,
		"waterTempMin":    spot.WaterTempMin,
		"waterTempMax":    spot.WaterTempMax,
		"difficulty":      spot.Difficulty,
		"difficultyLabel": locale.DifficultyLabel(language, spot.Difficulty),
		"activityTypes":   nonNilStrings(spot.ActivityTypes),
		"memo":            spot.Memo,
		"isPersonal":      true,
	}
}
