package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/where2dive/internal/achievement"
	"github.com/where2dive/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrDiveLogNotFound 日志不存在或不属于当前用户
	ErrDiveLogNotFound = errors.New("dive log not found")
	// ErrDiveLogInvalid 日志字段格式错误
	ErrDiveLogInvalid = errors.New("invalid dive log")
)

const (
	dateLayout      = "2006-01-02"
	entryTimeLayout = "15:04"
)

// DiveLogService 负责个人潜水日志的增删改查与汇总
type DiveLogService struct {
	db  *gorm.DB
	now func() time.Time
}

// DiveLogInput 定义创建/更新日志时可配置字段
type DiveLogInput struct {
	Date              string
	SpotName          string
	SpotID            *uint
	Country           string
	Lat               *float64
	Lng               *float64
	ActivityType      string
	MaxDepth          *float64
	DiveTime          *int
	WaterTemp         *float64
	Visibility        *float64
	EntryTime         string
	Equipment         string
	Weight            *float64
	TankPressureStart *int
	TankPressureEnd   *int
	Buddy             string
	Weather           string
	Memo              string
}

// DiveLogStats 为日志页顶部的汇总
type DiveLogStats struct {
	TotalDives int     `json:"totalDives"`
	MaxDepth   float64 `json:"maxDepth"`
	TotalTime  int     `json:"totalTime"`
}

// NewDiveLogService 构造 DiveLogService
func NewDiveLogService(gdb *gorm.DB) *DiveLogService {
	return &DiveLogService{db: gdb, now: time.Now}
}

// List 返回用户日志，按日期倒序
func (s *DiveLogService) List(userID uint) ([]db.DiveLog, error) {
	var logs []db.DiveLog
	if err := s.db.Where("user_id = ?", userID).Order("date DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list dive logs: %w", err)
	}
	return logs, nil
}

// Get 获取用户自己的某条日志
func (s *DiveLogService) Get(userID, id uint) (*db.DiveLog, error) {
	var entry db.DiveLog
	if err := s.db.Where("user_id = ?", userID).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiveLogNotFound
		}
		return nil, fmt.Errorf("get dive log: %w", err)
	}
	return &entry, nil
}

// Create 新建日志，日期缺省为今天，活动类型缺省为 skin
func (s *DiveLogService) Create(userID uint, input DiveLogInput) (*db.DiveLog, error) {
	entry := db.DiveLog{UserID: userID}
	if err := s.apply(s.db, &entry, input); err != nil {
		return nil, err
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("create dive log: %w", err)
	}
	return &entry, nil
}

// Update 覆盖更新用户自己的日志
func (s *DiveLogService) Update(userID, id uint, input DiveLogInput) (*db.DiveLog, error) {
	entry, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(s.db, entry, input); err != nil {
		return nil, err
	}
	if err := s.db.Save(entry).Error; err != nil {
		return nil, fmt.Errorf("update dive log: %w", err)
	}
	return entry, nil
}

// Delete 删除用户自己的日志
func (s *DiveLogService) Delete(userID, id uint) error {
	result := s.db.Where("user_id = ?", userID).Delete(&db.DiveLog{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete dive log: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDiveLogNotFound
	}
	return nil
}

// Stats 汇总次数、最大深度与总潜水时间（分钟）
func (s *DiveLogService) Stats(userID uint) (DiveLogStats, error) {
	logs, err := s.List(userID)
	if err != nil {
		return DiveLogStats{}, err
	}
	stats := DiveLogStats{TotalDives: len(logs)}
	for _, entry := range logs {
		if entry.MaxDepth != nil && *entry.MaxDepth > stats.MaxDepth {
			stats.MaxDepth = *entry.MaxDepth
		}
		if entry.DiveTime != nil {
			stats.TotalTime += *entry.DiveTime
		}
	}
	return stats, nil
}

// Entries 将日志转换为成就统计所需的条目
func (s *DiveLogService) Entries(userID uint) ([]achievement.LogEntry, error) {
	logs, err := s.List(userID)
	if err != nil {
		return nil, err
	}
	entries := make([]achievement.LogEntry, 0, len(logs))
	for _, entry := range logs {
		entries = append(entries, achievement.LogEntry{
			Date:      entry.Date,
			Country:   entry.Country,
			SpotName:  entry.SpotName,
			MaxDepth:  entry.MaxDepth,
			WaterTemp: entry.WaterTemp,
			EntryTime: entry.EntryTime,
		})
	}
	return entries, nil
}

func (s *DiveLogService) apply(tx *gorm.DB, entry *db.DiveLog, input DiveLogInput) error {
	date := strings.TrimSpace(input.Date)
	if date == "" {
		date = s.now().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrDiveLogInvalid)
	}

	entryTime := strings.TrimSpace(input.EntryTime)
	if entryTime != "" {
		parsed, err := time.Parse(entryTimeLayout, entryTime)
		if err != nil {
			return fmt.Errorf("%w: entry time must be HH:MM", ErrDiveLogInvalid)
		}
		entryTime = parsed.Format(entryTimeLayout)
	}

	activity := strings.ToLower(strings.TrimSpace(input.ActivityType))
	if activity == "" {
		activity = "skin"
	}
	if activity != "skin" && activity != "scuba" {
		return fmt.Errorf("%w: unsupported activity %s", ErrDiveLogInvalid, input.ActivityType)
	}

	if input.MaxDepth != nil && *input.MaxDepth < 0 {
		return fmt.Errorf("%w: depth must not be negative", ErrDiveLogInvalid)
	}
	if input.DiveTime != nil && *input.DiveTime < 0 {
		return fmt.Errorf("%w: dive time must not be negative", ErrDiveLogInvalid)
	}

	spotName := strings.TrimSpace(input.SpotName)
	country := strings.TrimSpace(input.Country)
	if input.SpotID != nil {
		var spot db.DiveSpot
		if err := tx.First(&spot, *input.SpotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSpotNotFound
			}
			return fmt.Errorf("find spot: %w", err)
		}
		if spotName == "" {
			spotName = spot.Name
		}
		if country == "" {
			country = spot.Country
		}
	}

	entry.Date = date
	entry.SpotName = spotName
	entry.SpotID = input.SpotID
	entry.Country = country
	entry.Lat = input.Lat
	entry.Lng = input.Lng
	entry.ActivityType = activity
	entry.MaxDepth = input.MaxDepth
	entry.DiveTime = input.DiveTime
	entry.WaterTemp = input.WaterTemp
	entry.Visibility = input.Visibility
	entry.EntryTime = entryTime
	entry.Equipment = strings.TrimSpace(input.Equipment)
	entry.Weight = input.Weight
	entry.TankPressureStart = input.TankPressureStart
	entry.TankPressureEnd = input.TankPressureEnd
	entry.Buddy = strings.TrimSpace(input.Buddy)
	entry.Weather = strings.TrimSpace(input.Weather)
	entry.Memo = strings.TrimSpace(input.Memo)
	return nil
}
