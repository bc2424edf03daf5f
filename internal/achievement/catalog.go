package achievement

import (
	"fmt"
	"strconv"
	"strings"
)

// Category 表示成就所属的分组
type Category string

const (
	CategoryDiving    Category = "diving"
	CategoryTravel    Category = "travel"
	CategorySpots     Category = "spots"
	CategoryCommunity Category = "community"
	CategorySpecial   Category = "special"
)

// Categories 按展示顺序列出全部分组
var Categories = []Category{
	CategoryDiving,
	CategoryTravel,
	CategorySpots,
	CategoryCommunity,
	CategorySpecial,
}

// ConditionKind 标识解锁条件的类型
type ConditionKind string

const (
	KindDiveCount      ConditionKind = "dive_count"
	KindCountryCount   ConditionKind = "country_count"
	KindSpotCount      ConditionKind = "spot_count"
	KindReviewCount    ConditionKind = "review_count"
	KindPhotoCount     ConditionKind = "photo_count"
	KindEntryBefore    ConditionKind = "entry_before"
	KindEntryAfter     ConditionKind = "entry_after"
	KindWaterTempBelow ConditionKind = "water_temp_below"
	KindDepthAbove     ConditionKind = "depth_above"
	KindStreakDays     ConditionKind = "streak_days"
)

// Condition 是解锁条件的封闭集合，只有本包内的三种结构实现它：
// Threshold（计数/深度/连续天数）、TimeOfDay（入水时间）、WaterTemp（低水温）。
type Condition interface {
	Kind() ConditionKind
	// Label 返回用于展示的阈值文本，例如 "30"、"06:00"、"15°C"
	Label() string
	// Target 返回阈值的数值形式，写入进度记录：
	// 计数类为阈值本身，入水时间为小时数（"06:30" 为 6.5），水温为摄氏度
	Target() float64
	sealed()
}

// Threshold 描述数值型条件：当前值 >= Value 时满足
type Threshold struct {
	Metric ConditionKind
	Value  float64
}

func (t Threshold) Kind() ConditionKind { return t.Metric }
func (t Threshold) Label() string {
	return strconv.FormatFloat(t.Value, 'f', -1, 64)
}
func (t Threshold) Target() float64 { return t.Value }
func (Threshold) sealed()           {}

// TimeOfDay 描述入水时间条件，At 为 "HH:MM"，用于展示与进度目标
type TimeOfDay struct {
	Before bool
	At     string
}

func (t TimeOfDay) Kind() ConditionKind {
	if t.Before {
		return KindEntryBefore
	}
	return KindEntryAfter
}
func (t TimeOfDay) Label() string { return t.At }
func (TimeOfDay) sealed()         {}

func (t TimeOfDay) Target() float64 {
	hour, minute, ok := strings.Cut(strings.TrimSpace(t.At), ":")
	h, err := strconv.Atoi(hour)
	if err != nil || h < 0 || h > 23 {
		return 0
	}
	if !ok {
		return float64(h)
	}
	m, err := strconv.Atoi(minute)
	if err != nil || m < 0 || m > 59 {
		return float64(h)
	}
	return float64(h) + float64(m)/60
}

// WaterTemp 描述低水温条件，Celsius 用于展示与进度目标，判定依赖统计快照中的标记
type WaterTemp struct {
	Celsius float64
}

func (WaterTemp) Kind() ConditionKind { return KindWaterTempBelow }
func (w WaterTemp) Label() string {
	return strconv.FormatFloat(w.Celsius, 'f', -1, 64) + "°C"
}
func (w WaterTemp) Target() float64 { return w.Celsius }
func (WaterTemp) sealed()           {}

// Definition 为编译期确定的成就定义
type Definition struct {
	ID            string
	Icon          string
	Category      Category
	Condition     Condition
	Title         string
	TitleEn       string
	Description   string
	DescriptionEn string
}

// Catalog 是只读的成就目录，保持声明顺序
type Catalog struct {
	order []string
	defs  map[string]Definition
}

// NewCatalog 构造目录，ID 重复或分组未知时返回错误
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{
		order: make([]string, 0, len(defs)),
		defs:  make(map[string]Definition, len(defs)),
	}
	for _, def := range defs {
		id := strings.TrimSpace(def.ID)
		if id == "" {
			return nil, fmt.Errorf("achievement id is required")
		}
		if _, exists := c.defs[id]; exists {
			return nil, fmt.Errorf("duplicate achievement id %q", id)
		}
		if !validCategory(def.Category) {
			return nil, fmt.Errorf("achievement %q: unknown category %q", id, def.Category)
		}
		if def.Condition == nil {
			return nil, fmt.Errorf("achievement %q: condition is required", id)
		}
		def.ID = id
		c.order = append(c.order, id)
		c.defs[id] = def
	}
	return c, nil
}

// IDs 按声明顺序返回全部成就 ID
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	return ids
}

// Definitions 按声明顺序返回全部定义
func (c *Catalog) Definitions() []Definition {
	defs := make([]Definition, 0, len(c.order))
	for _, id := range c.order {
		defs = append(defs, c.defs[id])
	}
	return defs
}

// Get 根据 ID 查找定义
func (c *Catalog) Get(id string) (Definition, bool) {
	def, ok := c.defs[id]
	return def, ok
}

// Len 返回成就总数
func (c *Catalog) Len() int {
	return len(c.order)
}

// ByCategory 按分组展示顺序返回定义，组内保持声明顺序
func (c *Catalog) ByCategory() map[Category][]Definition {
	grouped := make(map[Category][]Definition, len(Categories))
	for _, id := range c.order {
		def := c.defs[id]
		grouped[def.Category] = append(grouped[def.Category], def)
	}
	return grouped
}

func validCategory(category Category) bool {
	for _, known := range Categories {
		if known == category {
			return true
		}
	}
	return false
}

func count(kind ConditionKind, value float64) Threshold {
	return Threshold{Metric: kind, Value: value}
}

// DefaultDefinitions 为线上使用的成就列表
var DefaultDefinitions = []Definition{
	{ID: "firstDive", Icon: "🏊", Category: CategoryDiving, Condition: count(KindDiveCount, 1),
		Title: "첫 다이빙", TitleEn: "First Dive", Description: "첫 번째 다이빙 로그를 기록하세요", DescriptionEn: "Log your first dive"},
	{ID: "fish", Icon: "🐟", Category: CategoryDiving, Condition: count(KindDiveCount, 10),
		Title: "물고기", TitleEn: "Fish", Description: "다이빙 10회 기록", DescriptionEn: "Log 10 dives"},
	{ID: "dolphin", Icon: "🐬", Category: CategoryDiving, Condition: count(KindDiveCount, 30),
		Title: "돌고래", TitleEn: "Dolphin", Description: "다이빙 30회 기록", DescriptionEn: "Log 30 dives"},
	{ID: "whale", Icon: "🐋", Category: CategoryDiving, Condition: count(KindDiveCount, 50),
		Title: "고래", TitleEn: "Whale", Description: "다이빙 50회 기록", DescriptionEn: "Log 50 dives"},
	{ID: "poseidon", Icon: "🔱", Category: CategoryDiving, Condition: count(KindDiveCount, 100),
		Title: "포세이돈", TitleEn: "Poseidon", Description: "다이빙 100회 기록", DescriptionEn: "Log 100 dives"},

	{ID: "explorer", Icon: "🗺️", Category: CategoryTravel, Condition: count(KindCountryCount, 3),
		Title: "탐험가", TitleEn: "Explorer", Description: "3개국에서 다이빙", DescriptionEn: "Dive in 3 countries"},
	{ID: "traveler", Icon: "✈️", Category: CategoryTravel, Condition: count(KindCountryCount, 5),
		Title: "여행자", TitleEn: "Traveler", Description: "5개국에서 다이빙", DescriptionEn: "Dive in 5 countries"},
	{ID: "globalDiver", Icon: "🌏", Category: CategoryTravel, Condition: count(KindCountryCount, 10),
		Title: "글로벌 다이버", TitleEn: "Global Diver", Description: "10개국에서 다이빙", DescriptionEn: "Dive in 10 countries"},
	{ID: "worldChamp", Icon: "🏆", Category: CategoryTravel, Condition: count(KindCountryCount, 20),
		Title: "월드 챔피언", TitleEn: "World Champion", Description: "20개국에서 다이빙", DescriptionEn: "Dive in 20 countries"},

	{ID: "firstStep", Icon: "📌", Category: CategorySpots, Condition: count(KindSpotCount, 5),
		Title: "첫 발자국", TitleEn: "First Steps", Description: "5곳의 스팟에서 다이빙", DescriptionEn: "Dive at 5 different spots"},
	{ID: "spotHunter", Icon: "🎯", Category: CategorySpots, Condition: count(KindSpotCount, 15),
		Title: "스팟 헌터", TitleEn: "Spot Hunter", Description: "15곳의 스팟에서 다이빙", DescriptionEn: "Dive at 15 different spots"},
	{ID: "spotMaster", Icon: "🧭", Category: CategorySpots, Condition: count(KindSpotCount, 30),
		Title: "스팟 마스터", TitleEn: "Spot Master", Description: "30곳의 스팟에서 다이빙", DescriptionEn: "Dive at 30 different spots"},

	{ID: "reviewer", Icon: "📝", Category: CategoryCommunity, Condition: count(KindReviewCount, 1),
		Title: "리뷰어", TitleEn: "Reviewer", Description: "첫 리뷰 작성", DescriptionEn: "Write your first review"},
	{ID: "popularReviewer", Icon: "⭐", Category: CategoryCommunity, Condition: count(KindReviewCount, 10),
		Title: "인기 리뷰어", TitleEn: "Popular Reviewer", Description: "리뷰 10개 작성", DescriptionEn: "Write 10 reviews"},
	{ID: "reviewMaster", Icon: "👑", Category: CategoryCommunity, Condition: count(KindReviewCount, 30),
		Title: "리뷰 마스터", TitleEn: "Review Master", Description: "리뷰 30개 작성", DescriptionEn: "Write 30 reviews"},
	{ID: "photographer", Icon: "📷", Category: CategoryCommunity, Condition: count(KindPhotoCount, 20),
		Title: "수중 사진가", TitleEn: "Photographer", Description: "리뷰 사진 20장 업로드", DescriptionEn: "Upload 20 review photos"},

	{ID: "sunriseDiver", Icon: "🌅", Category: CategorySpecial, Condition: TimeOfDay{Before: true, At: "06:00"},
		Title: "일출 다이버", TitleEn: "Sunrise Diver", Description: "06시 이전 입수", DescriptionEn: "Enter the water before 06:00"},
	{ID: "nightDiver", Icon: "🌙", Category: CategorySpecial, Condition: TimeOfDay{At: "20:00"},
		Title: "나이트 다이버", TitleEn: "Night Diver", Description: "20시 이후 입수", DescriptionEn: "Enter the water after 20:00"},
	{ID: "iceDiver", Icon: "🥶", Category: CategorySpecial, Condition: WaterTemp{Celsius: 15},
		Title: "아이스 다이버", TitleEn: "Ice Diver", Description: "수온 15°C 이하에서 다이빙", DescriptionEn: "Dive in water at 15°C or colder"},
	{ID: "deepDiver", Icon: "🏊‍♂️", Category: CategorySpecial, Condition: count(KindDepthAbove, 30),
		Title: "딥 다이버", TitleEn: "Deep Diver", Description: "수심 30m 이상 다이빙", DescriptionEn: "Reach a depth of 30 m"},
	{ID: "consistent", Icon: "📅", Category: CategorySpecial, Condition: count(KindStreakDays, 30),
		Title: "꾸준한 다이버", TitleEn: "Consistent Diver", Description: "30일 연속 다이빙", DescriptionEn: "Dive 30 days in a row"},
}

// DefaultCatalog 返回基于 DefaultDefinitions 的目录
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog(DefaultDefinitions)
	if err != nil {
		panic(err)
	}
	return catalog
}
