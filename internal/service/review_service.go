package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/where2dive/internal/db"
	"github.com/where2dive/internal/storage"
	"gorm.io/gorm"
)

var (
	// ErrReviewNotFound 评论不存在
	ErrReviewNotFound = errors.New("review not found")
	// ErrReviewForbidden 非作者尝试修改或删除评论
	ErrReviewForbidden = errors.New("review forbidden")
	// ErrReviewInvalid 评分、标题或内容不合法
	ErrReviewInvalid = errors.New("invalid review")
)

// 评论排序方式
const (
	ReviewSortLatest     = "latest"
	ReviewSortRatingHigh = "ratingHigh"
	ReviewSortRatingLow  = "ratingLow"
)

const reviewImageMaxDim = 1920

// ReviewInput 为评论的可编辑字段
type ReviewInput struct {
	Rating    int    `validate:"min=1,max=5"`
	Title     string `validate:"required,max=100"`
	Content   string `validate:"required,max=5000"`
	VisitDate string `validate:"omitempty,datetime=2006-01-02"`
}

// ReviewSummary 为某潜水点的评论列表及平均分
type ReviewSummary struct {
	Reviews []db.Review
	Average float64
	Count   int
}

// ReviewService 管理潜水点评论及其附带的图片和视频
type ReviewService struct {
	db       *gorm.DB
	store    storage.Store
	validate *validator.Validate
}

// NewReviewService 构造 ReviewService
func NewReviewService(gdb *gorm.DB, store storage.Store) *ReviewService {
	return &ReviewService{db: gdb, store: store, validate: validator.New()}
}

// List 返回潜水点的评论，平均分保留一位小数
func (s *ReviewService) List(spotID uint, sortBy string) (ReviewSummary, error) {
	if err := s.ensureSpot(spotID); err != nil {
		return ReviewSummary{}, err
	}

	order := "created_at DESC, id DESC"
	switch sortBy {
	case ReviewSortRatingHigh:
		order = "rating DESC, created_at DESC"
	case ReviewSortRatingLow:
		order = "rating ASC, created_at DESC"
	}

	var reviews []db.Review
	if err := s.db.Preload("Media").Where("spot_id = ?", spotID).Order(order).Find(&reviews).Error; err != nil {
		return ReviewSummary{}, fmt.Errorf("list reviews: %w", err)
	}

	summary := ReviewSummary{Reviews: reviews, Count: len(reviews)}
	if len(reviews) > 0 {
		total := 0
		for _, review := range reviews {
			total += review.Rating
		}
		summary.Average = math.Round(float64(total)/float64(len(reviews))*10) / 10
	}
	return summary, nil
}

// Get 根据 ID 获取评论及其媒体
func (s *ReviewService) Get(id uint) (*db.Review, error) {
	var review db.Review
	if err := s.db.Preload("Media").First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &review, nil
}

// Create 创建评论并上传媒体；任一文件写入失败时回滚评论与已写入的对象
func (s *ReviewService) Create(ctx context.Context, userID uint, nickname string, spotID uint, input ReviewInput, files []MediaUpload) (*db.Review, error) {
	input, err := s.validateInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSpot(spotID); err != nil {
		return nil, err
	}
	if err := checkUploads(files, reviewMediaRules); err != nil {
		return nil, err
	}

	contentHTML, err := RenderReviewContent(input.Content)
	if err != nil {
		return nil, err
	}

	review := db.Review{
		SpotID:      spotID,
		UserID:      userID,
		Nickname:    strings.TrimSpace(nickname),
		Rating:      input.Rating,
		Title:       input.Title,
		Content:     input.Content,
		ContentHTML: contentHTML,
		VisitDate:   input.VisitDate,
	}
	if err := s.db.Create(&review).Error; err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	media, err := s.storeMedia(ctx, review.ID, files)
	if err != nil {
		if delErr := s.db.Unscoped().Delete(&review).Error; delErr != nil {
			return nil, fmt.Errorf("rollback review: %w (after %v)", delErr, err)
		}
		return nil, err
	}
	review.Media = media
	return &review, nil
}

// Update 更新作者本人的评论，可追加新文件并移除指定媒体
func (s *ReviewService) Update(ctx context.Context, userID, id uint, input ReviewInput, files []MediaUpload, removeMediaIDs []uint) (*db.Review, error) {
	review, err := s.owned(userID, id)
	if err != nil {
		return nil, err
	}
	input, err = s.validateInput(input)
	if err != nil {
		return nil, err
	}
	if err := checkUploads(files, reviewMediaRules); err != nil {
		return nil, err
	}

	contentHTML, err := RenderReviewContent(input.Content)
	if err != nil {
		return nil, err
	}

	review.Rating = input.Rating
	review.Title = input.Title
	review.Content = input.Content
	review.ContentHTML = contentHTML
	review.VisitDate = input.VisitDate
	if err := s.db.Omit("Media").Save(review).Error; err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	if len(removeMediaIDs) > 0 {
		var removed []db.ReviewMedia
		if err := s.db.Where("review_id = ? AND id IN ?", review.ID, removeMediaIDs).Find(&removed).Error; err != nil {
			return nil, fmt.Errorf("find review media: %w", err)
		}
		if len(removed) > 0 {
			if err := s.db.Delete(&removed).Error; err != nil {
				return nil, fmt.Errorf("remove review media: %w", err)
			}
			deleteBlobs(ctx, s.store, mediaPaths(removed)...)
		}
	}

	if _, err := s.storeMedia(ctx, review.ID, files); err != nil {
		return nil, err
	}
	return s.Get(review.ID)
}

// Delete 删除作者本人的评论及全部媒体
func (s *ReviewService) Delete(ctx context.Context, userID, id uint) error {
	review, err := s.owned(userID, id)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", review.ID).Delete(&db.ReviewMedia{}).Error; err != nil {
			return err
		}
		return tx.Delete(&db.Review{}, review.ID).Error
	})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	deleteBlobs(ctx, s.store, mediaPaths(review.Media)...)
	return nil
}

// CountByUser 返回用户的评论数与评论中的图片数
func (s *ReviewService) CountByUser(userID uint) (reviews int, images int, err error) {
	var reviewCount int64
	if err := s.db.Model(&db.Review{}).Where("user_id = ?", userID).Count(&reviewCount).Error; err != nil {
		return 0, 0, fmt.Errorf("count reviews: %w", err)
	}

	var imageCount int64
	err = s.db.Model(&db.ReviewMedia{}).
		Joins("JOIN reviews ON reviews.id = review_media.review_id AND reviews.deleted_at IS NULL").
		Where("reviews.user_id = ? AND review_media.kind = ?", userID, mediaKindImage).
		Count(&imageCount).Error
	if err != nil {
		return 0, 0, fmt.Errorf("count review images: %w", err)
	}
	return int(reviewCount), int(imageCount), nil
}

// RecentByUser 返回用户最近的评论
func (s *ReviewService) RecentByUser(userID uint, limit int) ([]db.Review, error) {
	if limit <= 0 {
		limit = 3
	}
	var reviews []db.Review
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Limit(limit).Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("recent reviews: %w", err)
	}
	return reviews, nil
}

func (s *ReviewService) validateInput(input ReviewInput) (ReviewInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	input.VisitDate = strings.TrimSpace(input.VisitDate)

	if err := s.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, fe.Field())
			}
			return input, fmt.Errorf("%w: %s", ErrReviewInvalid, strings.Join(fields, ", "))
		}
		return input, fmt.Errorf("%w: %v", ErrReviewInvalid, err)
	}
	return input, nil
}

func (s *ReviewService) ensureSpot(spotID uint) error {
	var count int64
	if err := s.db.Model(&db.DiveSpot{}).Where("id = ?", spotID).Count(&count).Error; err != nil {
		return fmt.Errorf("find spot: %w", err)
	}
	if count == 0 {
		return ErrSpotNotFound
	}
	return nil
}

func (s *ReviewService) owned(userID, id uint) (*db.Review, error) {
	review, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if review.UserID != userID {
		return nil, ErrReviewForbidden
	}
	return review, nil
}

func (s *ReviewService) storeMedia(ctx context.Context, reviewID uint, files []MediaUpload) ([]db.ReviewMedia, error) {
	if len(files) == 0 {
		return nil, nil
	}

	prefix := fmt.Sprintf("reviews/%d", reviewID)
	media := make([]db.ReviewMedia, 0, len(files))
	for _, file := range files {
		stored, err := putMedia(ctx, s.store, prefix, file, reviewMediaRules, reviewImageMaxDim)
		if err != nil {
			deleteBlobs(ctx, s.store, mediaPaths(media)...)
			return nil, err
		}
		media = append(media, db.ReviewMedia{
			ReviewID:    reviewID,
			Kind:        stored.kind,
			ContentType: stored.contentType,
			Size:        stored.object.Size,
			URL:         stored.object.URL,
			Path:        stored.object.Key,
		})
	}

	if err := s.db.Create(&media).Error; err != nil {
		deleteBlobs(ctx, s.store, mediaPaths(media)...)
		return nil, fmt.Errorf("save review media: %w", err)
	}
	return media, nil
}

func mediaPaths(media []db.ReviewMedia) []string {
	paths := make([]string, 0, len(media))
	for _, item := range media {
		paths = append(paths, item.Path)
	}
	return paths
}
