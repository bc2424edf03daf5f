package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Models 列出需要自动迁移的全部模型
func Models() []any {
	return []any{
		&User{},
		&Certification{},
		&DiveSpot{},
		&Favorite{},
		&DiveLog{},
		&PersonalSpot{},
		&Review{},
		&ReviewMedia{},
		&AchievementProgress{},
		&ContactMessage{},
	}
}

// Init 初始化数据库连接、执行自动迁移并写入内置潜水点。
// databasePath 为空时将回退到默认值 where2dive.db。
func Init(databasePath string) error {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = "where2dive.db"
	}

	if err := ensureParentDir(path); err != nil {
		return err
	}

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return err
	}

	if err := Prepare(gdb); err != nil {
		return err
	}

	DB = gdb
	return nil
}

// Prepare 对已打开的连接执行迁移与种子数据写入，测试中复用
func Prepare(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	// sqlite 单写者，后台进度写入与请求共用一个连接避免 database is locked
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := SeedSpots(gdb); err != nil {
		return fmt.Errorf("seed spots: %w", err)
	}
	return nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
