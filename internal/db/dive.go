package db

import (
	"time"

	"gorm.io/gorm"
)

// DiveSpot 为公开的潜水点目录，启动时从内置 YAML 写入
type DiveSpot struct {
	gorm.Model
	Slug          string   `gorm:"uniqueIndex;size:80;not null" yaml:"slug"`
	Name          string   `gorm:"not null" yaml:"name"`
	NameEn        string   `yaml:"nameEn"`
	Country       string   `gorm:"index" yaml:"country"`
	CountryEn     string   `yaml:"countryEn"`
	Region        string   `gorm:"index;size:32" yaml:"region"`
	Difficulty    string   `gorm:"index;size:16" yaml:"difficulty"`
	Lat           float64  `yaml:"lat"`
	Lng           float64  `yaml:"lng"`
	Depth         string   `yaml:"depth"`
	WaterTempMin  float64  `yaml:"waterTempMin"`
	WaterTempMax  float64  `yaml:"waterTempMax"`
	ActivityTypes []string `gorm:"serializer:json" yaml:"activityTypes"`
	MarineLife    []string `gorm:"serializer:json" yaml:"marineLife"`
	Description   string   `yaml:"description"`
	DescriptionEn string   `yaml:"descriptionEn"`
	BestSeason    string   `yaml:"bestSeason"`
}

// Favorite 记录用户收藏的潜水点，(user_id, spot_id) 唯一
type Favorite struct {
	ID      uint      `gorm:"primaryKey"`
	UserID  uint      `gorm:"index:idx_favorite_unique,unique;not null"`
	SpotID  uint      `gorm:"index:idx_favorite_unique,unique;not null"`
	AddedAt time.Time `gorm:"autoCreateTime"`
}

// DiveLog 为个人潜水日志，Date 以 YYYY-MM-DD 存储便于排序与连续天数计算
type DiveLog struct {
	gorm.Model
	UserID            uint   `gorm:"index;not null"`
	Date              string `gorm:"size:10;index"`
	SpotName          string
	SpotID            *uint
	Country           string
	Lat               *float64
	Lng               *float64
	ActivityType      string `gorm:"size:16"`
	MaxDepth          *float64
	DiveTime          *int
	WaterTemp         *float64
	Visibility        *float64
	EntryTime         string `gorm:"size:5"`
	Equipment         string
	Weight            *float64
	TankPressureStart *int
	TankPressureEnd   *int
	Buddy             string
	Weather           string
	Memo              string
}

// PersonalSpot 为用户私有的潜水点
type PersonalSpot struct {
	gorm.Model
	UserID        uint `gorm:"index;not null"`
	Name          string
	Lat           float64
	Lng           float64
	Depth         string
	WaterTempMin  *float64
	WaterTempMax  *float64
	Difficulty    string   `gorm:"size:16"`
	ActivityTypes []string `gorm:"serializer:json"`
	Memo          string
}

// Review 为潜水点评论，ContentHTML 是清洗后的 Markdown 渲染结果
type Review struct {
	gorm.Model
	SpotID      uint `gorm:"index;not null"`
	UserID      uint `gorm:"index;not null"`
	Nickname    string
	Rating      int `gorm:"not null"`
	Title       string
	Content     string
	ContentHTML string
	VisitDate   string        `gorm:"size:10"`
	Media       []ReviewMedia `gorm:"constraint:OnDelete:CASCADE"`
}

// ReviewMedia 为评论附带的图片或视频，Path 为存储层中的对象键
type ReviewMedia struct {
	ID          uint   `gorm:"primaryKey"`
	ReviewID    uint   `gorm:"index;not null"`
	Kind        string `gorm:"size:8"`
	ContentType string `gorm:"size:32"`
	Size        int64
	URL         string
	Path        string
	CreatedAt   time.Time
}

func (ReviewMedia) TableName() string {
	return "review_media"
}

// AchievementProgress 记录用户在单个成就上的进度，(user_id, achievement_id) 唯一。
// UnlockedAt 一旦写入即不可被覆盖。
type AchievementProgress struct {
	ID            uint   `gorm:"primaryKey"`
	UserID        uint   `gorm:"index:idx_achievement_unique,unique;not null"`
	AchievementID string `gorm:"index:idx_achievement_unique,unique;size:32;not null"`
	Progress      float64
	Target        float64
	UnlockedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName 固定表名，唯一索引依赖它
func (AchievementProgress) TableName() string {
	return "achievement_progress"
}

// ContactMessage 为站点联系表单的留言，Status 初始为 unread
type ContactMessage struct {
	gorm.Model
	Name    string `gorm:"size:80;not null"`
	Email   string `gorm:"size:255;not null"`
	Subject string `gorm:"size:200"`
	Message string `gorm:"not null"`
	Status  string `gorm:"size:16;default:unread"`
}
