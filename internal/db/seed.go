package db

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed seed/spots.yaml
var spotSeed []byte

// LoadSeedSpots 解析内置的潜水点列表
func LoadSeedSpots() ([]DiveSpot, error) {
	var spots []DiveSpot
	if err := yaml.Unmarshal(spotSeed, &spots); err != nil {
		return nil, fmt.Errorf("parse spot seed: %w", err)
	}
	return spots, nil
}

// SeedSpots 以 slug 为键写入内置潜水点，已存在的记录保持不变
func SeedSpots(gdb *gorm.DB) error {
	spots, err := LoadSeedSpots()
	if err != nil {
		return err
	}
	if len(spots) == 0 {
		return nil
	}
	return gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoNothing: true,
	}).Create(&spots).Error
}
