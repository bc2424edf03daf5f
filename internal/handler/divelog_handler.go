package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/where2dive/internal/db"
	"github.com/where2dive/internal/service"
)

type diveLogPayload struct {
	Date              string   `json:"date"`
	SpotName          string   `json:"spotName"`
	SpotID            *uint    `json:"spotId"`
	Country           string   `json:"country"`
	Lat               *float64 `json:"lat"`
	Lng               *float64 `json:"lng"`
	ActivityType      string   `json:"activityType"`
	MaxDepth          *float64 `json:"maxDepth"`
	DiveTime          *int     `json:"diveTime"`
	WaterTemp         *float64 `json:"waterTemp"`
	Visibility        *float64 `json:"visibility"`
	EntryTime         string   `json:"entryTime"`
	Equipment         string   `json:"equipment"`
	Weight            *float64 `json:"weight"`
	TankPressureStart *int     `json:"tankPressureStart"`
	TankPressureEnd   *int     `json:"tankPressureEnd"`
	Buddy             string   `json:"buddy"`
	Weather           string   `json:"weather"`
	Memo              string   `json:"memo"`
}

func (p diveLogPayload) input() service.DiveLogInput {
	return service.DiveLogInput{
		Date:              p.Date,
		SpotName:          p.SpotName,
		SpotID:            p.SpotID,
		Country:           p.Country,
		Lat:               p.Lat,
		Lng:               p.Lng,
		ActivityType:      p.ActivityType,
		MaxDepth:          p.MaxDepth,
		DiveTime:          p.DiveTime,
		WaterTemp:         p.WaterTemp,
		Visibility:        p.Visibility,
		EntryTime:         p.EntryTime,
		Equipment:         p.Equipment,
		Weight:            p.Weight,
		TankPressureStart: p.TankPressureStart,
		TankPressureEnd:   p.TankPressureEnd,
		Buddy:             p.Buddy,
		Weather:           p.Weather,
		Memo:              p.Memo,
	}
}

// ListDiveLogs 返回当前用户的日志与汇总
func (a *API) ListDiveLogs(c *gin.Context) {
	userID := currentUserID(c)
	logs, err := a.logs.List(userID)
	if err != nil {
		a.handleDiveLogError(c, err)
		return
	}
	stats, err := a.logs.Stats(userID)
	if err != nil {
		a.handleDiveLogError(c, err)
		return
	}

	items := make([]gin.H, 0, len(logs))
	for i := range logs {
		items = append(items, diveLogToPayload(&logs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"logs": items, "stats": stats})
}

// GetDiveLog 返回单条日志
func (a *API) GetDiveLog(c *gin.Context) {
	id, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	entry, err := a.logs.Get(currentUserID(c), id)
	if err != nil {
		a.handleDiveLogError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"log": diveLogToPayload(entry)})
}

// CreateDiveLog 新建日志并重新评估成就
func (a *API) CreateDiveLog(c *gin.Context) {
	var payload diveLogPayload
	if !a.bindJSON(c, &payload) {
		return
	}
	userID := currentUserID(c)
	entry, err := a.logs.Create(userID, payload.input())
	if err != nil {
		a.handleDiveLogError(c, err)
		return
	}
	unlocked := a.achievements.Refresh(c.Request.Context(), userID)
	c.JSON(http.StatusCreated, gin.H{"log": diveLogToPayload(entry), "unlocked": nonNilStrings(unlocked)})
}

// UpdateDiveLog 覆盖更新日志并重新评估成就
func (a *API) UpdateDiveLog(c *gin.Context) {
	id, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	var payload diveLogPayload
	if !a.bindJSON(c, &payload) {
		return
	}
	userID := currentUserID(c)
	entry, err := a.logs.Update(userID, id, payload.input())
	if err != nil {
		a.handleDiveLogError(c, err)
		return
	}
	unlocked := a.achievements.Refresh(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"log": diveLogToPayload(entry), "unlocked": nonNilStrings(unlocked)})
}

// DeleteDiveLog 删除日志，已解锁的成就保持不变
func (a *API) DeleteDiveLog(c *gin.Context) {
	id, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	if err := a.logs.Delete(currentUserID(c), id); err != nil {
		a.handleDiveLogError(c, err)
		return
	}
	// 删除后进度可能回落，同步刷新缓存与存储
	a.achievements.Refresh(c.Request.Context(), currentUserID(c))
	c.Status(http.StatusNoContent)
}

func (a *API) handleDiveLogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDiveLogNotFound):
		a.respondMessage(c, http.StatusNotFound, "divelog.notFound")
	case errors.Is(err, service.ErrDiveLogInvalid):
		a.respondMessage(c, http.StatusBadRequest, "divelog.invalid")
	case errors.Is(err, service.ErrSpotNotFound):
		a.respondMessage(c, http.StatusBadRequest, "spot.notFound")
	default:
		log.Printf("[divelog] request failed: %v", err)
		a.respondMessage(c, http.StatusInternalServerError, "server.error")
	}
}

func diveLogToPayload(entry *db.DiveLog) gin.H {
	return gin.H{
		"id":                entry.ID,
		"date":              entry.Date,
		"spotName":          entry.SpotName,
		"spotId":            entry.SpotID,
		"country":           entry.Country,
		"lat":               entry.Lat,
		"lng":               entry.Lng,
		"activityType":      entry.ActivityType,
		"maxDepth":          entry.MaxDepth,
		"diveTime":          entry.DiveTime,
		"waterTemp":         entry.WaterTemp,
		"visibility":        entry.Visibility,
		"entryTime":         entry.EntryTime,
		"equipment":         entry.Equipment,
		"weight":            entry.Weight,
		"tankPressureStart": entry.TankPressureStart,
		"tankPressureEnd":   entry.TankPressureEnd,
		"buddy":             entry.Buddy,
		"weather":           entry.Weather,
		"memo":              entry.Memo,
		"createdAt":         entry.CreatedAt,
		"updatedAt":         entry.UpdatedAt,
	}
}
