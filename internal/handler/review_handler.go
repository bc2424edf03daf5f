package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/where2dive/internal/db"
	"github.com/where2dive/internal/service"
)

type reviewPayload struct {
	Rating      int    `json:"rating"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	VisitDate   string `json:"visitDate"`
	RemoveMedia []uint `json:"removeMedia"`
}

// ListReviews 返回潜水点评论，sort 取 latest、ratingHigh 或 ratingLow
func (a *API) ListReviews(c *gin.Context) {
	spotID, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	summary, err := a.reviews.List(spotID, c.DefaultQuery("sort", service.ReviewSortLatest))
	if err != nil {
		a.handleReviewError(c, err)
		return
	}

	userID := currentUserID(c)
	items := make([]gin.H, 0, len(summary.Reviews))
	for i := range summary.Reviews {
		items = append(items, reviewToPayload(&summary.Reviews[i], userID))
	}
	c.JSON(http.StatusOK, gin.H{
		"reviews": items,
		"average": summary.Average,
		"count":   summary.Count,
	})
}

// CreateReview 接受 multipart 表单（media 字段可多文件）或 JSON
func (a *API) CreateReview(c *gin.Context) {
	spotID, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	payload, ok := a.parseReviewPayload(c)
	if !ok {
		return
	}
	uploads, closeUploads, err := formUploads(c, "media")
	if err != nil {
		a.respondMessage(c, http.StatusBadRequest, "request.invalid")
		return
	}
	defer closeUploads()

	userID := currentUserID(c)
	user, err := a.users.Get(userID)
	if err != nil {
		a.handleReviewError(c, err)
		return
	}

	review, err := a.reviews.Create(c.Request.Context(), userID, user.Nickname, spotID, reviewInput(payload), uploads)
	if err != nil {
		a.handleReviewError(c, err)
		return
	}
	unlocked := a.achievements.Refresh(c.Request.Context(), userID)
	c.JSON(http.StatusCreated, gin.H{"review": reviewToPayload(review, userID), "unlocked": nonNilStrings(unlocked)})
}

// UpdateReview 修改本人评论，removeMedia 为要删除的媒体 ID
func (a *API) UpdateReview(c *gin.Context) {
	id, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	payload, ok := a.parseReviewPayload(c)
	if !ok {
		return
	}
	uploads, closeUploads, err := formUploads(c, "media")
	if err != nil {
		a.respondMessage(c, http.StatusBadRequest, "request.invalid")
		return
	}
	defer closeUploads()

	userID := currentUserID(c)
	review, err := a.reviews.Update(c.Request.Context(), userID, id, reviewInput(payload), uploads, payload.RemoveMedia)
	if err != nil {
		a.handleReviewError(c, err)
		return
	}
	unlocked := a.achievements.Refresh(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"review": reviewToPayload(review, userID), "unlocked": nonNilStrings(unlocked)})
}

// DeleteReview 删除本人评论及其媒体
func (a *API) DeleteReview(c *gin.Context) {
	id, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	if err := a.reviews.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		a.handleReviewError(c, err)
		return
	}
	// 删除后进度可能回落，同步刷新缓存与存储
	a.achievements.Refresh(c.Request.Context(), currentUserID(c))
	c.Status(http.StatusNoContent)
}

func (a *API) parseReviewPayload(c *gin.Context) (reviewPayload, bool) {
	var payload reviewPayload
	if isJSONRequest(c) {
		if !a.bindJSON(c, &payload) {
			return payload, false
		}
		return payload, true
	}

	if raw := strings.TrimSpace(c.PostForm("rating")); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil {
			a.respondMessage(c, http.StatusBadRequest, "review.invalid")
			return payload, false
		}
		payload.Rating = rating
	}
	payload.Title = c.PostForm("title")
	payload.Content = c.PostForm("content")
	payload.VisitDate = c.PostForm("visitDate")
	payload.RemoveMedia = parseUintQuerySlice(c.PostFormArray("removeMedia"))
	return payload, true
}

func reviewInput(payload reviewPayload) service.ReviewInput {
	return service.ReviewInput{
		Rating:    payload.Rating,
		Title:     payload.Title,
		Content:   payload.Content,
		VisitDate: payload.VisitDate,
	}
}

func (a *API) handleReviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReviewNotFound):
		a.respondMessage(c, http.StatusNotFound, "review.notFound")
	case errors.Is(err, service.ErrReviewForbidden):
		a.respondMessage(c, http.StatusForbidden, "review.forbidden")
	case errors.Is(err, service.ErrReviewInvalid):
		a.respondMessage(c, http.StatusBadRequest, "review.invalid")
	case errors.Is(err, service.ErrSpotNotFound):
		a.respondMessage(c, http.StatusNotFound, "spot.notFound")
	case errors.Is(err, service.ErrMediaType):
		a.respondMessage(c, http.StatusBadRequest, "media.type")
	case errors.Is(err, service.ErrMediaTooLarge):
		a.respondMessage(c, http.StatusRequestEntityTooLarge, "media.size")
	case errors.Is(err, service.ErrUserNotFound):
		a.respondMessage(c, http.StatusUnauthorized, "auth.required")
	default:
		log.Printf("[reviews] request failed: %v", err)
		a.respondMessage(c, http.StatusInternalServerError, "server.error")
	}
}

func reviewToPayload(review *db.Review, viewerID uint) gin.H {
	media := make([]gin.H, 0, len(review.Media))
	for _, item := range review.Media {
		media = append(media, gin.H{
			"id":          item.ID,
			"kind":        item.Kind,
			"contentType": item.ContentType,
			"size":        item.Size,
			"url":         item.URL,
		})
	}
	return gin.H{
		"id":          review.ID,
		"spotId":      review.SpotID,
		"userId":      review.UserID,
		"nickname":    review.Nickname,
		"rating":      review.Rating,
		"title":       review.Title,
		"content":     review.Content,
		"contentHtml": review.ContentHTML,
		"visitDate":   review.VisitDate,
		"media":       media,
		"isMine":      viewerID != 0 && viewerID == review.UserID,
		"createdAt":   review.CreatedAt,
		"updatedAt":   review.UpdatedAt,
	}
}
