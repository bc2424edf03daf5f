package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/where2dive/internal/service"
)

// GetWeather 返回任意坐标的当前天气与海况，lat/lng 为必填
func (a *API) GetWeather(c *gin.Context) {
	lat, okLat := parseFloatQuery(c, "lat")
	lng, okLng := parseFloatQuery(c, "lng")
	if !okLat || !okLng || lat == nil || lng == nil {
		a.respondMessage(c, http.StatusBadRequest, "weather.invalidCoords")
		return
	}
	a.respondWeather(c, *lat, *lng)
}

// GetSpotWeather 使用潜水点坐标查询天气
func (a *API) GetSpotWeather(c *gin.Context) {
	id, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	spot, err := a.spots.Get(id)
	if err != nil {
		a.handleSpotError(c, err)
		return
	}
	a.respondWeather(c, spot.Lat, spot.Lng)
}

func (a *API) respondWeather(c *gin.Context, lat, lng float64) {
	report, err := a.weather.Current(c.Request.Context(), lat, lng, a.language(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWeatherInvalidCoords):
			a.respondMessage(c, http.StatusBadRequest, "weather.invalidCoords")
		case errors.Is(err, service.ErrWeatherUnavailable):
			a.respondMessage(c, http.StatusBadGateway, "weather.fetchError")
		default:
			log.Printf("[weather] request failed: %v", err)
			a.respondMessage(c, http.StatusInternalServerError, "server.error")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"weather": report})
}
