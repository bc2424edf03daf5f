package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/where2dive/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrPersonalSpotNotFound 个人潜水点不存在或不属于当前用户
	ErrPersonalSpotNotFound = errors.New("personal spot not found")
	// ErrPersonalSpotInvalid 个人潜水点字段错误
	ErrPersonalSpotInvalid = errors.New("invalid personal spot")
)

// PersonalSpotService 管理用户私有潜水点
type PersonalSpotService struct {
	db *gorm.DB
}

// PersonalSpotInput 定义创建/更新个人潜水点的字段
type PersonalSpotInput struct {
	Name          string
	Lat           float64
	Lng           float64
	Depth         string
	WaterTempMin  *float64
	WaterTempMax  *float64
	Difficulty    string
	ActivityTypes []string
	Memo          string
}

// NewPersonalSpotService 构造 PersonalSpotService
func NewPersonalSpotService(gdb *gorm.DB) *PersonalSpotService {
	return &PersonalSpotService{db: gdb}
}

// List 返回用户全部个人潜水点
func (s *PersonalSpotService) List(userID uint) ([]db.PersonalSpot, error) {
	var spots []db.PersonalSpot
	if err := s.db.Where("user_id = ?", userID).Order("id ASC").Find(&spots).Error; err != nil {
		return nil, fmt.Errorf("list personal spots: %w", err)
	}
	return spots, nil
}

// Get 获取用户自己的个人潜水点
func (s *PersonalSpotService) Get(userID, id uint) (*db.PersonalSpot, error) {
	var spot db.PersonalSpot
	if err := s.db.Where("user_id = ?", userID).First(&spot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPersonalSpotNotFound
		}
		return nil, fmt.Errorf("get personal spot: %w", err)
	}
	return &spot, nil
}

// Create 新建个人潜水点，难度缺省 beginner，活动缺省 [skin]
func (s *PersonalSpotService) Create(userID uint, input PersonalSpotInput) (*db.PersonalSpot, error) {
	spot := db.PersonalSpot{UserID: userID}
	if err := applyPersonalSpot(&spot, input); err != nil {
		return nil, err
	}
	if err := s.db.Create(&spot).Error; err != nil {
		return nil, fmt.Errorf("create personal spot: %w", err)
	}
	return &spot, nil
}

// Update 覆盖更新
func (s *PersonalSpotService) Update(userID, id uint, input PersonalSpotInput) (*db.PersonalSpot, error) {
	spot, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	if err := applyPersonalSpot(spot, input); err != nil {
		return nil, err
	}
	if err := s.db.Save(spot).Error; err != nil {
		return nil, fmt.Errorf("update personal spot: %w", err)
	}
	return spot, nil
}

// Delete 删除用户自己的个人潜水点
func (s *PersonalSpotService) Delete(userID, id uint) error {
	result := s.db.Where("user_id = ?", userID).Delete(&db.PersonalSpot{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete personal spot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPersonalSpotNotFound
	}
	return nil
}

func applyPersonalSpot(spot *db.PersonalSpot, input PersonalSpotInput) error {
	if input.Lat < -90 || input.Lat > 90 || input.Lng < -180 || input.Lng > 180 {
		return fmt.Errorf("%w: coordinates out of range", ErrPersonalSpotInvalid)
	}

	difficulty := strings.ToLower(strings.TrimSpace(input.Difficulty))
	if difficulty == "" {
		difficulty = "beginner"
	}
	if !ValidDifficulty(difficulty) {
		return fmt.Errorf("%w: unsupported difficulty %s", ErrPersonalSpotInvalid, input.Difficulty)
	}

	activities := make([]string, 0, len(input.ActivityTypes))
	for _, raw := range input.ActivityTypes {
		activity := strings.ToLower(strings.TrimSpace(raw))
		if activity != "skin" && activity != "scuba" {
			return fmt.Errorf("%w: unsupported activity %s", ErrPersonalSpotInvalid, raw)
		}
		activities = append(activities, activity)
	}
	if len(activities) == 0 {
		activities = []string{"skin"}
	}

	spot.Name = strings.TrimSpace(input.Name)
	spot.Lat = input.Lat
	spot.Lng = input.Lng
	spot.Depth = strings.TrimSpace(input.Depth)
	spot.WaterTempMin = input.WaterTempMin
	spot.WaterTempMax = input.WaterTempMax
	spot.Difficulty = difficulty
	spot.ActivityTypes = activities
	spot.Memo = strings.TrimSpace(input.Memo)
	return nil
}
