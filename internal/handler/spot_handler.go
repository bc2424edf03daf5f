package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/where2dive/internal/db"
	"github.com/where2dive/internal/locale"
	"github.com/where2dive/internal/service"
)

// ListSpots 按查询参数筛选潜水点。
// 支持 search、region、difficulty、activity、tempMin、tempMax、favorites=1。
func (a *API) ListSpots(c *gin.Context) {
	tempMin, okMin := parseFloatQuery(c, "tempMin")
	tempMax, okMax := parseFloatQuery(c, "tempMax")
	if !okMin || !okMax {
		a.respondMessage(c, http.StatusBadRequest, "request.invalid")
		return
	}

	filter := service.SpotFilter{
		Search:     c.Query("search"),
		Region:     c.Query("region"),
		Difficulty: c.Query("difficulty"),
		Activity:   c.Query("activity"),
		TempMin:    tempMin,
		TempMax:    tempMax,
	}

	userID := currentUserID(c)
	if favoritesOnly, _ := strconv.ParseBool(c.DefaultQuery("favorites", "false")); favoritesOnly {
		if userID == 0 {
			a.respondMessage(c, http.StatusUnauthorized, "auth.required")
			return
		}
		filter.FavoritesOnly = true
		filter.UserID = userID
	}

	result, err := a.spots.List(filter)
	if err != nil {
		log.Printf("[spots] list failed: %v", err)
		a.respondMessage(c, http.StatusInternalServerError, "server.error")
		return
	}

	favorites := a.favoriteSet(userID)
	language := a.language(c)
	items := make([]gin.H, 0, len(result.Spots))
	for i := range result.Spots {
		items = append(items, spotToPayload(&result.Spots[i], language, favorites))
	}

	suggestions := result.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"spots":       items,
		"total":       len(items),
		"suggestions": suggestions,
	})
}

// GetSpot 返回潜水点详情
func (a *API) GetSpot(c *gin.Context) {
	id, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	spot, err := a.spots.Get(id)
	if err != nil {
		a.handleSpotError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"spot": spotToPayload(spot, a.language(c), a.favoriteSet(currentUserID(c)))})
}

// ListRegions 返回地区下拉选项
func (a *API) ListRegions(c *gin.Context) {
	options, err := a.spots.Regions(a.language(c))
	if err != nil {
		log.Printf("[spots] regions failed: %v", err)
		a.respondMessage(c, http.StatusInternalServerError, "server.error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"regions": options})
}

// SuggestSpots 对名称做模糊匹配
func (a *API) SuggestSpots(c *gin.Context) {
	suggestions, err := a.spots.Suggest(c.Query("q"))
	if err != nil {
		log.Printf("[spots] suggest failed: %v", err)
		a.respondMessage(c, http.StatusInternalServerError, "server.error")
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// ToggleFavorite 切换收藏
func (a *API) ToggleFavorite(c *gin.Context) {
	id, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	favorited, err := a.favorites.Toggle(currentUserID(c), id)
	if err != nil {
		a.handleSpotError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"spotId": id, "favorite": favorited})
}

// ListFavorites 返回收藏的潜水点 ID
func (a *API) ListFavorites(c *gin.Context) {
	ids, err := a.favorites.IDs(currentUserID(c))
	if err != nil {
		log.Printf("[favorites] list failed: %v", err)
		a.respondMessage(c, http.StatusInternalServerError, "server.error")
		return
	}
	if ids == nil {
		ids = []uint{}
	}
	c.JSON(http.StatusOK, gin.H{"favorites": ids})
}

func (a *API) favoriteSet(userID uint) map[uint]struct{} {
	set := make(map[uint]struct{})
	if userID == 0 {
		return set
	}
	ids, err := a.favorites.IDs(userID)
	if err != nil {
		log.Printf("[favorites] load for user %d failed: %v", userID, err)
		return set
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (a *API) handleSpotError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrSpotNotFound) {
		a.respondMessage(c, http.StatusNotFound, "spot.notFound")
		return
	}
	log.Printf("[spots] request failed: %v", err)
	a.respondMessage(c, http.StatusInternalServerError, "server.error")
}

func spotToPayload(spot *db.DiveSpot, language string, favorites map[uint]struct{}) gin.H {
	activities := make([]gin.H, 0, len(spot.ActivityTypes))
	for _, activity := range spot.ActivityTypes {
		activities = append(activities, gin.H{"id": activity, "label": locale.ActivityLabel(language, activity)})
	}
	_, favorite := favorites[spot.ID]

	return gin.H{
		"id":              spot.ID,
		"slug":            spot.Slug,
		"name":            locale.Pick(language, spot.NameEn, spot.Name),
		"nameKo":          spot.Name,
		"nameEn":          spot.NameEn,
		"country":         locale.Pick(language, spot.CountryEn, spot.Country),
		"region":          spot.Region,
		"regionLabel":     locale.RegionLabel(language, spot.Region),
		"difficulty":      spot.Difficulty,
		"difficultyLabel": locale.DifficultyLabel(language, spot.Difficulty),
		"lat":             spot.Lat,
		"lng":             spot.Lng,
		"depth":           spot.Depth,
		"waterTemp":       gin.H{"min": spot.WaterTempMin, "max": spot.WaterTempMax},
		"activityTypes":   activities,
		"marineLife":      nonNilStrings(spot.MarineLife),
		"description":     strings.TrimSpace(locale.Pick(language, spot.DescriptionEn, spot.Description)),
		"bestSeason":      spot.BestSeason,
		"favorite":        favorite,
	}
}
