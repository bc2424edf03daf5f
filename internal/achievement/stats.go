package achievement

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	earlyDiveHour  = 6
	nightDiveHour  = 20
	coldDiveMaxTmp = 15.0
	dateLayout     = "2006-01-02"
)

// LogEntry 是统计所需的潜水日志字段子集
type LogEntry struct {
	Date      string
	Country   string
	SpotName  string
	MaxDepth  *float64
	WaterTemp *float64
	EntryTime string
}

// Stats 为某个用户的统计快照，按需计算，不落库
type Stats struct {
	TotalDives   int     `json:"totalDives"`
	CountryCount int     `json:"countryCount"`
	SpotsCount   int     `json:"spotsCount"`
	ReviewCount  int     `json:"reviewCount"`
	PhotoCount   int     `json:"photoCount"`
	MaxDepth     float64 `json:"maxDepth"`
	HasEarlyDive bool    `json:"hasEarlyDive"`
	HasNightDive bool    `json:"hasNightDive"`
	HasColdDive  bool    `json:"hasColdDive"`
	Streak       int     `json:"streak"`
}

// BuildStats 从日志与评论计数推导统计快照，纯函数
func BuildStats(entries []LogEntry, reviewCount, photoCount int) Stats {
	stats := Stats{
		TotalDives:  len(entries),
		ReviewCount: reviewCount,
		PhotoCount:  photoCount,
	}

	countries := make(map[string]struct{})
	spots := make(map[string]struct{})
	dates := make([]string, 0, len(entries))

	for _, entry := range entries {
		if country := strings.TrimSpace(entry.Country); country != "" {
			countries[country] = struct{}{}
		}
		if spot := strings.TrimSpace(entry.SpotName); spot != "" {
			spots[spot] = struct{}{}
		}
		if entry.MaxDepth != nil && *entry.MaxDepth > stats.MaxDepth {
			stats.MaxDepth = *entry.MaxDepth
		}
		if hour, ok := entryHour(entry.EntryTime); ok {
			if hour < earlyDiveHour {
				stats.HasEarlyDive = true
			}
			if hour >= nightDiveHour {
				stats.HasNightDive = true
			}
		}
		if entry.WaterTemp != nil && *entry.WaterTemp <= coldDiveMaxTmp {
			stats.HasColdDive = true
		}
		if date := strings.TrimSpace(entry.Date); date != "" {
			dates = append(dates, date)
		}
	}

	stats.CountryCount = len(countries)
	stats.SpotsCount = len(spots)
	stats.Streak = longestStreak(dates)
	return stats
}

// entryHour 解析 "HH:MM" 的小时部分
func entryHour(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	head, _, _ := strings.Cut(value, ":")
	hour, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}

// longestStreak 计算最长连续日历天数。
// 先去重再比较相邻日期，同一天多次潜水只算一天；无法解析的日期被忽略。
func longestStreak(rawDates []string) int {
	seen := make(map[time.Time]struct{}, len(rawDates))
	days := make([]time.Time, 0, len(rawDates))
	for _, raw := range rawDates {
		day, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			continue
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	if len(days) == 0 {
		return 0
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest, current := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			current++
		} else {
			current = 1
		}
		if current > longest {
			longest = current
		}
	}
	return longest
}
