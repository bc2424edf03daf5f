package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/where2dive/internal/db"
	"github.com/where2dive/internal/locale"
	"gorm.io/gorm"
)

// ErrSpotNotFound 在潜水点不存在时返回
var ErrSpotNotFound = errors.New("spot not found")

const (
	defaultTempMin  = 0
	defaultTempMax  = 35
	maxSuggestions  = 5
	difficultyOrder = "beginner,intermediate,advanced"
)

// SpotService 提供公开潜水点目录的查询与筛选
type SpotService struct {
	db *gorm.DB
}

// SpotFilter 描述地图页的筛选条件，TempMin/TempMax 为空时使用 0~35°C
type SpotFilter struct {
	Search        string
	Region        string
	Difficulty    string
	Activity      string
	TempMin       *float64
	TempMax       *float64
	FavoritesOnly bool
	UserID        uint
}

// SpotListResult 为筛选结果；无结果且带搜索词时附带相近名称建议
type SpotListResult struct {
	Spots       []db.DiveSpot
	Suggestions []string
}

// RegionOption 为地区下拉选项
type RegionOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// NewSpotService 构造 SpotService
func NewSpotService(gdb *gorm.DB) *SpotService {
	return &SpotService{db: gdb}
}

// Get 根据 ID 获取潜水点
func (s *SpotService) Get(id uint) (*db.DiveSpot, error) {
	var spot db.DiveSpot
	if err := s.db.First(&spot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpotNotFound
		}
		return nil, fmt.Errorf("get spot: %w", err)
	}
	return &spot, nil
}

// List 返回满足条件的潜水点。
// 文本搜索覆盖名称、国家、描述与海洋生物，不区分大小写；水温区间按重叠判断。
func (s *SpotService) List(filter SpotFilter) (SpotListResult, error) {
	query := s.db.Model(&db.DiveSpot{})
	if region := strings.TrimSpace(filter.Region); region != "" {
		query = query.Where("region = ?", region)
	}
	if difficulty := strings.TrimSpace(filter.Difficulty); difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}
	if filter.FavoritesOnly {
		query = query.Where("id IN (?)", s.db.Model(&db.Favorite{}).Select("spot_id").Where("user_id = ?", filter.UserID))
	}

	tempMin, tempMax := float64(defaultTempMin), float64(defaultTempMax)
	if filter.TempMin != nil {
		tempMin = *filter.TempMin
	}
	if filter.TempMax != nil {
		tempMax = *filter.TempMax
	}
	if tempMin > tempMax {
		tempMin, tempMax = tempMax, tempMin
	}
	query = query.Where("water_temp_max >= ? AND water_temp_min <= ?", tempMin, tempMax)

	var candidates []db.DiveSpot
	if err := query.Order("id ASC").Find(&candidates).Error; err != nil {
		return SpotListResult{}, fmt.Errorf("list spots: %w", err)
	}

	activity := strings.ToLower(strings.TrimSpace(filter.Activity))
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	result := SpotListResult{Spots: make([]db.DiveSpot, 0, len(candidates))}
	for _, spot := range candidates {
		if activity != "" && !containsFold(spot.ActivityTypes, activity) {
			continue
		}
		if search != "" && !strings.Contains(spotHaystack(spot), search) {
			continue
		}
		result.Spots = append(result.Spots, spot)
	}

	if len(result.Spots) == 0 && search != "" {
		suggestions, err := s.Suggest(filter.Search)
		if err != nil {
			return result, err
		}
		result.Suggestions = suggestions
	}
	return result, nil
}

// Suggest 对全部潜水点名称做模糊匹配，返回得分最高的若干项
func (s *SpotService) Suggest(term string) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}

	var spots []db.DiveSpot
	if err := s.db.Select("name", "name_en").Find(&spots).Error; err != nil {
		return nil, fmt.Errorf("load spot names: %w", err)
	}

	names := make([]string, 0, len(spots)*2)
	for _, spot := range spots {
		names = append(names, spot.Name)
		if spot.NameEn != "" {
			names = append(names, spot.NameEn)
		}
	}

	matches := fuzzy.Find(term, names)
	seen := make(map[string]struct{})
	suggestions := make([]string, 0, maxSuggestions)
	for _, match := range matches {
		if _, dup := seen[match.Str]; dup {
			continue
		}
		seen[match.Str] = struct{}{}
		suggestions = append(suggestions, match.Str)
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	return suggestions, nil
}

// Regions 返回包含潜水点的地区及数量，按固定展示顺序
func (s *SpotService) Regions(language string) ([]RegionOption, error) {
	type row struct {
		Region string
		Count  int
	}
	var rows []row
	if err := s.db.Model(&db.DiveSpot{}).Select("region, COUNT(*) AS count").Group("region").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count regions: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Region] = r.Count
	}

	options := make([]RegionOption, 0, len(counts))
	for _, id := range locale.RegionOrder {
		if counts[id] == 0 {
			continue
		}
		options = append(options, RegionOption{ID: id, Label: locale.RegionLabel(language, id), Count: counts[id]})
		delete(counts, id)
	}

	extra := make([]string, 0, len(counts))
	for id := range counts {
		extra = append(extra, id)
	}
	sort.Strings(extra)
	for _, id := range extra {
		options = append(options, RegionOption{ID: id, Label: locale.RegionLabel(language, id), Count: counts[id]})
	}
	return options, nil
}

// ValidDifficulty 报告难度是否为已知取值
func ValidDifficulty(value string) bool {
	for _, known := range strings.Split(difficultyOrder, ",") {
		if value == known {
			return true
		}
	}
	return false
}

func spotHaystack(spot db.DiveSpot) string {
	parts := []string{spot.Name, spot.NameEn, spot.Country, spot.CountryEn, spot.Description, spot.DescriptionEn}
	parts = append(parts, spot.MarineLife...)
	return strings.ToLower(strings.Join(parts, " "))
}

func containsFold(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(strings.TrimSpace(value), target) {
			return true
		}
	}
	return false
}
