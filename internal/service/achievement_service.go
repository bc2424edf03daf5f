package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/where2dive/internal/achievement"
	"github.com/where2dive/internal/db"
	"github.com/where2dive/internal/locale"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AchievementStore 基于 gorm 持久化成就进度，已解锁的行不会被覆盖
type AchievementStore struct {
	db *gorm.DB
}

// NewAchievementStore 构造 AchievementStore
func NewAchievementStore(gdb *gorm.DB) *AchievementStore {
	return &AchievementStore{db: gdb}
}

var _ achievement.Store = (*AchievementStore)(nil)

func (s *AchievementStore) LoadProgress(ctx context.Context, userID uint) (map[string]achievement.Progress, error) {
	var rows []db.AchievementProgress
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load achievement progress: %w", err)
	}
	progress := make(map[string]achievement.Progress, len(rows))
	for _, row := range rows {
		progress[row.AchievementID] = achievement.Progress{
			AchievementID: row.AchievementID,
			Progress:      row.Progress,
			Target:        row.Target,
			UnlockedAt:    row.UnlockedAt,
		}
	}
	return progress, nil
}

func (s *AchievementStore) WriteProgress(ctx context.Context, userID uint, progress achievement.Progress) error {
	_, err := s.upsert(ctx, userID, achievement.Progress{
		AchievementID: progress.AchievementID,
		Progress:      progress.Progress,
		Target:        progress.Target,
	}, "progress", "target", "updated_at")
	return err
}

// WriteUnlock 写入解锁记录，该行此前已解锁时返回 achievement.ErrAlreadyUnlocked
func (s *AchievementStore) WriteUnlock(ctx context.Context, userID uint, progress achievement.Progress) error {
	if progress.UnlockedAt == nil {
		return fmt.Errorf("write unlock %s: missing unlock time", progress.AchievementID)
	}
	affected, err := s.upsert(ctx, userID, progress, "progress", "target", "unlocked_at", "updated_at")
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("write unlock %s: %w", progress.AchievementID, achievement.ErrAlreadyUnlocked)
	}
	return nil
}

// upsert 只在 unlocked_at 为空时更新，保证解锁不可逆；返回受影响的行数
func (s *AchievementStore) upsert(ctx context.Context, userID uint, progress achievement.Progress, columns ...string) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	row := db.AchievementProgress{
		UserID:        userID,
		AchievementID: progress.AchievementID,
		Progress:      progress.Progress,
		Target:        progress.Target,
		UnlockedAt:    progress.UnlockedAt,
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "achievement_progress.unlocked_at IS NULL"},
		}},
	}).Create(&row)
	if result.Error != nil {
		return 0, fmt.Errorf("upsert achievement %s: %w", progress.AchievementID, result.Error)
	}
	return result.RowsAffected, nil
}

func (s *AchievementStore) LoadFeatured(ctx context.Context, userID uint) ([]string, error) {
	var user db.User
	if err := s.db.WithContext(ctx).Select("id", "featured_badges").First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("load featured badges: %w", err)
	}
	return user.FeaturedBadges, nil
}

func (s *AchievementStore) WriteFeatured(ctx context.Context, userID uint, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	err := s.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", userID).
		Select("FeaturedBadges").Updates(&db.User{FeaturedBadges: ids}).Error
	if err != nil {
		return fmt.Errorf("write featured badges: %w", err)
	}
	return nil
}

// AchievementView 为单个成就的展示数据
type AchievementView struct {
	ID          string     `json:"id"`
	Icon        string     `json:"icon"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Condition   string     `json:"condition"`
	Progress    float64    `json:"progress"`
	Target      float64    `json:"target"`
	Percent     int        `json:"percent"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlockedAt,omitempty"`
}

// AchievementGroup 为同一分组下的成就
type AchievementGroup struct {
	Category     string            `json:"category"`
	Label        string            `json:"label"`
	Achievements []AchievementView `json:"achievements"`
}

// AchievementOverview 为成就页的完整数据
type AchievementOverview struct {
	Groups   []AchievementGroup `json:"groups"`
	Unlocked int                `json:"unlocked"`
	Total    int                `json:"total"`
	Featured []string           `json:"featured"`
}

// AchievementService 连接日志/评论数据与成就评估器
type AchievementService struct {
	registry  *achievement.Registry
	evaluator *achievement.Evaluator
	logs      *DiveLogService
	reviews   *ReviewService
}

// NewAchievementService 构造 AchievementService，notifier 可为 nil
func NewAchievementService(gdb *gorm.DB, logs *DiveLogService, reviews *ReviewService, notifier achievement.Notifier) *AchievementService {
	store := NewAchievementStore(gdb)
	return &AchievementService{
		registry:  achievement.NewRegistry(store),
		evaluator: achievement.NewEvaluator(achievement.DefaultCatalog(), store, notifier),
		logs:      logs,
		reviews:   reviews,
	}
}

// Catalog 返回成就目录
func (s *AchievementService) Catalog() *achievement.Catalog {
	return s.evaluator.Catalog()
}

// OnLogin 重新加载用户的成就缓存
func (s *AchievementService) OnLogin(ctx context.Context, userID uint) error {
	_, err := s.registry.Load(ctx, userID)
	return err
}

// OnLogout 清除用户的成就缓存
func (s *AchievementService) OnLogout(userID uint) {
	s.registry.Clear(userID)
}

// Wait 等待后台进度写入完成
func (s *AchievementService) Wait() {
	s.evaluator.Wait()
}

// Stats 汇总用户日志与评论，生成统计快照
func (s *AchievementService) Stats(userID uint) (achievement.Stats, error) {
	entries, err := s.logs.Entries(userID)
	if err != nil {
		return achievement.Stats{}, err
	}
	reviews, photos, err := s.reviews.CountByUser(userID)
	if err != nil {
		return achievement.Stats{}, err
	}
	return achievement.BuildStats(entries, reviews, photos), nil
}

// Check 重新评估并返回本次新解锁的成就
func (s *AchievementService) Check(ctx context.Context, userID uint) ([]string, error) {
	if userID == 0 {
		return nil, nil
	}
	stats, err := s.Stats(userID)
	if err != nil {
		return nil, err
	}
	state, err := s.registry.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.evaluator.Evaluate(ctx, state, stats), nil
}

// Refresh 用于日志或评论保存之后，失败只记录日志，不影响主流程
func (s *AchievementService) Refresh(ctx context.Context, userID uint) []string {
	unlocked, err := s.Check(ctx, userID)
	if err != nil {
		log.Printf("[achievement] refresh for user %d failed: %v", userID, err)
		return nil
	}
	return unlocked
}

// SetFeatured 设置个人主页展示的徽章
func (s *AchievementService) SetFeatured(ctx context.Context, userID uint, ids []string) ([]string, error) {
	state, err := s.registry.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.evaluator.SetFeatured(ctx, state, ids)
}

// Overview 按分组返回全部成就及其进度
func (s *AchievementService) Overview(ctx context.Context, userID uint, language string) (AchievementOverview, error) {
	state, err := s.registry.Get(ctx, userID)
	if err != nil {
		return AchievementOverview{}, err
	}
	progress, featured := state.Snapshot()

	catalog := s.Catalog()
	grouped := catalog.ByCategory()
	overview := AchievementOverview{Total: catalog.Len(), Featured: featured}
	if overview.Featured == nil {
		overview.Featured = []string{}
	}

	for _, category := range achievement.Categories {
		defs := grouped[category]
		if len(defs) == 0 {
			continue
		}
		group := AchievementGroup{
			Category:     string(category),
			Label:        locale.AchievementCategoryLabel(language, string(category)),
			Achievements: make([]AchievementView, 0, len(defs)),
		}
		for _, def := range defs {
			view := AchievementView{
				ID:          def.ID,
				Icon:        def.Icon,
				Title:       locale.Pick(language, def.TitleEn, def.Title),
				Description: locale.Pick(language, def.DescriptionEn, def.Description),
				Condition:   def.Condition.Label(),
				Target:      def.Condition.Target(),
			}
			if record, ok := progress[def.ID]; ok {
				view.Progress = record.Progress
				view.Unlocked = record.Unlocked()
				view.UnlockedAt = record.UnlockedAt
			}
			view.Percent = percentOf(view, def.Condition)
			if view.Unlocked {
				overview.Unlocked++
			}
			group.Achievements = append(group.Achievements, view)
		}
		overview.Groups = append(overview.Groups, group)
	}
	return overview, nil
}

// percentOf 只对数值型条件计算比例，标记类条件未解锁时为 0
func percentOf(view AchievementView, condition achievement.Condition) int {
	if view.Unlocked {
		return 100
	}
	if _, ok := condition.(achievement.Threshold); !ok || view.Target <= 0 {
		return 0
	}
	return int(math.Min(100, math.Floor(view.Progress/view.Target*100)))
}
