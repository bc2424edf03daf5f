package service

import (
	"errors"
	"fmt"

	"github.com/where2dive/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FavoriteService 管理用户收藏的潜水点
type FavoriteService struct {
	db *gorm.DB
}

// NewFavoriteService 构造 FavoriteService
func NewFavoriteService(gdb *gorm.DB) *FavoriteService {
	return &FavoriteService{db: gdb}
}

// Toggle 切换收藏状态，返回切换后的结果
func (s *FavoriteService) Toggle(userID, spotID uint) (bool, error) {
	var spot db.DiveSpot
	if err := s.db.Select("id").First(&spot, spotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrSpotNotFound
		}
		return false, fmt.Errorf("find spot: %w", err)
	}

	result := s.db.Where("user_id = ? AND spot_id = ?", userID, spotID).Delete(&db.Favorite{})
	if result.Error != nil {
		return false, fmt.Errorf("remove favorite: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return false, nil
	}

	if err := s.add(s.db, userID, spotID); err != nil {
		return false, err
	}
	return true, nil
}

// IDs 返回用户收藏的潜水点 ID，按收藏时间倒序
func (s *FavoriteService) IDs(userID uint) ([]uint, error) {
	var ids []uint
	if err := s.db.Model(&db.Favorite{}).
		Where("user_id = ?", userID).
		Order("added_at DESC, id DESC").
		Pluck("spot_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return ids, nil
}

// Count 返回收藏数量
func (s *FavoriteService) Count(userID uint) (int64, error) {
	var count int64
	if err := s.db.Model(&db.Favorite{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count favorites: %w", err)
	}
	return count, nil
}

// add 幂等写入收藏，重复写入保持原记录
func (s *FavoriteService) add(tx *gorm.DB, userID, spotID uint) error {
	record := db.Favorite{UserID: userID, SpotID: spotID}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "spot_id"}},
		DoNothing: true,
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}
