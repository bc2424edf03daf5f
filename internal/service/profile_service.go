package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/where2dive/internal/db"
	"github.com/where2dive/internal/locale"
	"github.com/where2dive/internal/storage"
	"gorm.io/gorm"
)

var (
	// ErrProfileInvalid 昵称、简介或语言不合法
	ErrProfileInvalid = errors.New("invalid profile input")
	// ErrCertificationInvalid 认证机构或等级不在内置列表中
	ErrCertificationInvalid = errors.New("invalid certification")
	// ErrCertificationNotFound 认证不存在或不属于当前用户
	ErrCertificationNotFound = errors.New("certification not found")
)

const (
	maxNicknameRunes   = 40
	maxBioRunes        = 500
	profilePhotoMaxDim = 512
	certPhotoMaxDim    = 1280
	recentReviewLimit  = 3
)

// CertOrgs 为支持的认证机构及其等级，顺序即展示顺序
var CertOrgs = map[string][]string{
	"PADI": {"Open Water Diver", "Advanced Open Water", "Rescue Diver", "Divemaster", "Instructor"},
	"SSI":  {"Open Water Diver", "Advanced Adventurer", "Diver Stress & Rescue", "Dive Guide", "Instructor"},
	"NAUI": {"Scuba Diver", "Advanced Scuba Diver", "Rescue Diver", "Divemaster", "Instructor"},
	"CMAS": {"1 Star Diver", "2 Star Diver", "3 Star Diver", "4 Star Diver", "Instructor"},
	"SDI":  {"Open Water Scuba Diver", "Advanced Diver", "Rescue Diver", "Divemaster", "Instructor"},
}

// CertOrgOrder 为认证机构的展示顺序
var CertOrgOrder = []string{"PADI", "SSI", "NAUI", "CMAS", "SDI"}

// ProfileInput 使用指针区分未传入与显式清空
type ProfileInput struct {
	Nickname *string
	Bio      *string
	IsPublic *bool
	Language *string
}

// CertificationInput 为新增认证的字段
type CertificationInput struct {
	Org        string
	Level      string
	Date       string
	CertNumber string
}

// PublicProfile 为他人可见的个人主页，未公开时只保留昵称
type PublicProfile struct {
	ID             uint               `json:"id"`
	Nickname       string             `json:"nickname"`
	IsPublic       bool               `json:"isPublic"`
	Bio            string             `json:"bio,omitempty"`
	PhotoURL       string             `json:"photoURL,omitempty"`
	Certifications []db.Certification `json:"certifications,omitempty"`
	ReviewCount    int                `json:"reviewCount"`
	RecentReviews  []db.Review        `json:"recentReviews,omitempty"`
	FeaturedBadges []string           `json:"featuredBadges,omitempty"`
}

// ProfileService 维护用户资料、头像与潜水认证
type ProfileService struct {
	db      *gorm.DB
	store   storage.Store
	reviews *ReviewService
}

// NewProfileService 构造 ProfileService
func NewProfileService(gdb *gorm.DB, store storage.Store, reviews *ReviewService) *ProfileService {
	return &ProfileService{db: gdb, store: store, reviews: reviews}
}

// Get 返回用户资料及其认证
func (s *ProfileService) Get(userID uint) (*db.User, error) {
	var user db.User
	err := s.db.Preload("Certifications", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("id ASC")
	}).First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &user, nil
}

// Update 仅修改传入的字段
func (s *ProfileService) Update(userID uint, input ProfileInput) (*db.User, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Nickname != nil {
		nickname := strings.TrimSpace(*input.Nickname)
		if nickname == "" || utf8.RuneCountInString(nickname) > maxNicknameRunes {
			return nil, fmt.Errorf("%w: nickname", ErrProfileInvalid)
		}
		updates["nickname"] = nickname
	}
	if input.Bio != nil {
		bio := strings.TrimSpace(*input.Bio)
		if utf8.RuneCountInString(bio) > maxBioRunes {
			return nil, fmt.Errorf("%w: bio", ErrProfileInvalid)
		}
		updates["bio"] = bio
	}
	if input.IsPublic != nil {
		updates["is_public"] = *input.IsPublic
	}
	if input.Language != nil {
		language := ""
		if strings.TrimSpace(*input.Language) != "" {
			language = locale.NormalizeLanguage(*input.Language)
			if language == "" {
				return nil, fmt.Errorf("%w: language", ErrProfileInvalid)
			}
		}
		updates["language"] = language
	}

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
	}
	return s.Get(userID)
}

// UploadPhoto 将头像缩放到 512px 后写入存储，并替换旧头像
func (s *ProfileService) UploadPhoto(ctx context.Context, userID uint, upload MediaUpload) (*db.User, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	stored, err := putMedia(ctx, s.store, fmt.Sprintf("profiles/%d", userID), upload, photoRules, profilePhotoMaxDim)
	if err != nil {
		return nil, err
	}

	oldPath := user.PhotoPath
	err = s.db.Model(user).Updates(map[string]any{
		"photo_url":  stored.object.URL,
		"photo_path": stored.object.Key,
	}).Error
	if err != nil {
		deleteBlobs(ctx, s.store, stored.object.Key)
		return nil, fmt.Errorf("save profile photo: %w", err)
	}
	deleteBlobs(ctx, s.store, oldPath)
	return s.Get(userID)
}

// AddCertification 新增认证，photo 可为 nil
func (s *ProfileService) AddCertification(ctx context.Context, userID uint, input CertificationInput, photo *MediaUpload) (*db.Certification, error) {
	org := strings.ToUpper(strings.TrimSpace(input.Org))
	levels, ok := CertOrgs[org]
	if !ok {
		return nil, fmt.Errorf("%w: org %s", ErrCertificationInvalid, input.Org)
	}
	level := strings.TrimSpace(input.Level)
	if !slices.Contains(levels, level) {
		return nil, fmt.Errorf("%w: level %s", ErrCertificationInvalid, input.Level)
	}
	date := strings.TrimSpace(input.Date)
	if date != "" {
		if _, err := time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrCertificationInvalid)
		}
	}
	if _, err := s.Get(userID); err != nil {
		return nil, err
	}

	cert := db.Certification{
		UserID:     userID,
		Org:        org,
		Level:      level,
		Date:       date,
		CertNumber: strings.TrimSpace(input.CertNumber),
	}
	if photo != nil {
		stored, err := putMedia(ctx, s.store, fmt.Sprintf("profiles/%d/certs", userID), *photo, photoRules, certPhotoMaxDim)
		if err != nil {
			return nil, err
		}
		cert.PhotoURL = stored.object.URL
		cert.PhotoPath = stored.object.Key
	}

	if err := s.db.Create(&cert).Error; err != nil {
		deleteBlobs(ctx, s.store, cert.PhotoPath)
		return nil, fmt.Errorf("create certification: %w", err)
	}
	return &cert, nil
}

// RemoveCertification 删除用户自己的认证及其照片
func (s *ProfileService) RemoveCertification(ctx context.Context, userID, certID uint) error {
	var cert db.Certification
	if err := s.db.Where("user_id = ?", userID).First(&cert, certID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCertificationNotFound
		}
		return fmt.Errorf("find certification: %w", err)
	}
	if err := s.db.Delete(&cert).Error; err != nil {
		return fmt.Errorf("delete certification: %w", err)
	}
	deleteBlobs(ctx, s.store, cert.PhotoPath)
	return nil
}

// Public 返回他人可见的主页；未公开的用户只暴露昵称
func (s *ProfileService) Public(userID uint) (*PublicProfile, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	profile := &PublicProfile{ID: user.ID, Nickname: user.Nickname, IsPublic: user.IsPublic}
	if !user.IsPublic {
		return profile, nil
	}

	profile.Bio = user.Bio
	profile.PhotoURL = user.PhotoURL
	profile.Certifications = user.Certifications
	profile.FeaturedBadges = user.FeaturedBadges

	if s.reviews != nil {
		count, _, err := s.reviews.CountByUser(userID)
		if err != nil {
			return nil, err
		}
		recent, err := s.reviews.RecentByUser(userID, recentReviewLimit)
		if err != nil {
			return nil, err
		}
		profile.ReviewCount = count
		profile.RecentReviews = recent
	}
	return profile, nil
}
