package db

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User 定义了用户模型，同时承载个人资料字段
type User struct {
	gorm.Model
	Email            string `gorm:"uniqueIndex;not null"`
	Password         string `gorm:"not null"`
	Nickname         string `gorm:"size:40"`
	Bio              string `gorm:"size:500"`
	PhotoURL         string
	PhotoPath        string
	IsPublic         bool
	Language         string          `gorm:"size:8"`
	FeaturedBadges   []string        `gorm:"serializer:json"`
	Certifications   []Certification `gorm:"constraint:OnDelete:CASCADE"`
	LegacyImportedAt *time.Time
}

// Certification 为潜水资格证，Org 限定在内置的机构列表
type Certification struct {
	gorm.Model
	UserID     uint   `gorm:"index;not null"`
	Org        string `gorm:"size:16;not null"`
	Level      string `gorm:"size:80;not null"`
	Date       string `gorm:"size:10"`
	CertNumber string `gorm:"size:64"`
	PhotoURL   string
	PhotoPath  string
}

// EnsureUser 存在性检查：若提供的邮箱与密码均非空且不存在对应账号，则创建一个 bcrypt 哈希的用户。
func EnsureUser(email, password string) error {
	trimmedEmail := strings.ToLower(strings.TrimSpace(email))
	trimmedPassword := strings.TrimSpace(password)
	if trimmedEmail == "" || trimmedPassword == "" {
		return nil
	}

	if DB == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := DB.Where("email = ?", trimmedEmail).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		nickname, _, _ := strings.Cut(trimmedEmail, "@")
		return DB.Create(&User{Email: trimmedEmail, Password: string(hashed), Nickname: nickname}).Error
	}

	return nil
}
