package locale

import (
	"math"
	"strings"
)

type pair struct {
	ko string
	en string
}

var regionLabels = map[string]pair{
	"korea":          {"한국", "Korea"},
	"southeast-asia": {"동남아시아", "Southeast Asia"},
	"oceania":        {"오세아니아", "Oceania"},
	"indian-ocean":   {"인도양", "Indian Ocean"},
	"red-sea":        {"홍해", "Red Sea"},
	"caribbean":      {"카리브해", "Caribbean"},
	"europe":         {"유럽", "Europe"},
	"east-asia":      {"동아시아", "East Asia"},
	"pacific":        {"태평양", "Pacific"},
}

// RegionOrder lists region ids in display order.
var RegionOrder = []string{
	"korea", "southeast-asia", "east-asia", "pacific", "oceania",
	"indian-ocean", "red-sea", "caribbean", "europe",
}

var difficultyLabels = map[string]pair{
	"beginner":     {"초급", "Beginner"},
	"intermediate": {"중급", "Intermediate"},
	"advanced":     {"상급", "Advanced"},
}

var activityLabels = map[string]pair{
	"skin":  {"스킨", "Skin"},
	"scuba": {"스쿠버", "Scuba"},
}

var achievementCategoryLabels = map[string]pair{
	"diving":    {"다이빙", "Diving"},
	"travel":    {"여행", "Travel"},
	"spots":     {"스팟", "Spots"},
	"community": {"커뮤니티", "Community"},
	"special":   {"스페셜", "Special"},
}

var compassPoints = []pair{
	{"북", "N"}, {"북동", "NE"}, {"동", "E"}, {"남동", "SE"},
	{"남", "S"}, {"남서", "SW"}, {"서", "W"}, {"북서", "NW"},
}

var weatherCodes = map[int]pair{
	0:  {"맑음", "Clear"},
	1:  {"대체로 맑음", "Mostly clear"},
	2:  {"구름 약간", "Partly cloudy"},
	3:  {"흐림", "Overcast"},
	45: {"안개", "Fog"},
	48: {"짙은 안개", "Dense fog"},
	51: {"이슬비", "Drizzle"},
	53: {"이슬비", "Drizzle"},
	55: {"강한 이슬비", "Heavy drizzle"},
	61: {"약한 비", "Light rain"},
	63: {"비", "Rain"},
	65: {"강한 비", "Heavy rain"},
	71: {"약한 눈", "Light snow"},
	73: {"눈", "Snow"},
	75: {"강한 눈", "Heavy snow"},
	80: {"소나기", "Showers"},
	81: {"소나기", "Showers"},
	82: {"강한 소나기", "Heavy showers"},
	95: {"뇌우", "Thunderstorm"},
	96: {"우박 뇌우", "Thunderstorm with hail"},
	99: {"강한 우박 뇌우", "Severe thunderstorm with hail"},
}

var unknownWeather = pair{"정보 없음", "No data"}

// Pick returns the text for the language, falling back to the other
// translation when that one is blank. Korean is the default.
func Pick(language, english, korean string) string {
	primary, fallback := korean, english
	if NormalizeLanguage(language) == LanguageEnglish {
		primary, fallback = english, korean
	}
	if strings.TrimSpace(primary) != "" {
		return primary
	}
	return fallback
}

func pick(language string, p pair) string {
	return Pick(language, p.en, p.ko)
}

// RegionLabel returns the localized region name, or the id itself when unknown.
func RegionLabel(language, id string) string {
	if p, ok := regionLabels[id]; ok {
		return pick(language, p)
	}
	return id
}

func DifficultyLabel(language, id string) string {
	if p, ok := difficultyLabels[id]; ok {
		return pick(language, p)
	}
	return id
}

func ActivityLabel(language, id string) string {
	if p, ok := activityLabels[id]; ok {
		return pick(language, p)
	}
	return id
}

// AchievementCategoryLabel 返回成就分组名称
func AchievementCategoryLabel(language, id string) string {
	if p, ok := achievementCategoryLabels[id]; ok {
		return pick(language, p)
	}
	return id
}

// CompassDirection maps a bearing in degrees to one of eight compass points.
func CompassDirection(language string, degrees float64) string {
	index := int(math.Round(degrees/45)) % len(compassPoints)
	if index < 0 {
		index += len(compassPoints)
	}
	return pick(language, compassPoints[index])
}

func WeatherDescription(language string, code *int) string {
	if code == nil {
		return pick(language, unknownWeather)
	}
	if p, ok := weatherCodes[*code]; ok {
		return pick(language, p)
	}
	return pick(language, unknownWeather)
}
