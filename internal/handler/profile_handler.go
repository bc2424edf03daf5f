package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/where2dive/internal/db"
	"github.com/where2dive/internal/service"
)

type profilePayload struct {
	Nickname *string `json:"nickname"`
	Bio      *string `json:"bio"`
	IsPublic *bool   `json:"isPublic"`
	Language *string `json:"language"`
}

type certificationPayload struct {
	Org        string `json:"org" form:"org"`
	Level      string `json:"level" form:"level"`
	Date       string `json:"date" form:"date"`
	CertNumber string `json:"certNumber" form:"certNumber"`
}

// GetProfile 返回当前用户资料与认证
func (a *API) GetProfile(c *gin.Context) {
	user, err := a.profiles.Get(currentUserID(c))
	if err != nil {
		a.handleProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profileToPayload(user)})
}

// UpdateProfile 只修改请求中出现的字段
func (a *API) UpdateProfile(c *gin.Context) {
	var payload profilePayload
	if !a.bindJSON(c, &payload) {
		return
	}
	user, err := a.profiles.Update(currentUserID(c), service.ProfileInput{
		Nickname: payload.Nickname,
		Bio:      payload.Bio,
		IsPublic: payload.IsPublic,
		Language: payload.Language,
	})
	if err != nil {
		a.handleProfileError(c, err)
		return
	}
	if user.Language != "" {
		a.persistLanguage(c, user.Language)
	}
	c.JSON(http.StatusOK, gin.H{"profile": profileToPayload(user)})
}

// UploadProfilePhoto 接受 multipart 字段 photo
func (a *API) UploadProfilePhoto(c *gin.Context) {
	header, err := c.FormFile("photo")
	if err != nil {
		a.respondMessage(c, http.StatusBadRequest, "profile.photoRequired")
		return
	}
	uploads, closeUploads, err := openUploadHeaders(header)
	if err != nil {
		a.respondMessage(c, http.StatusBadRequest, "request.invalid")
		return
	}
	defer closeUploads()

	user, err := a.profiles.UploadPhoto(c.Request.Context(), currentUserID(c), uploads[0])
	if err != nil {
		a.handleProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profileToPayload(user)})
}

// AddCertification 接受 JSON 或带可选 photo 文件的 multipart 表单
func (a *API) AddCertification(c *gin.Context) {
	var payload certificationPayload
	var photo *service.MediaUpload

	if isJSONRequest(c) {
		if !a.bindJSON(c, &payload) {
			return
		}
	} else {
		if err := c.ShouldBind(&payload); err != nil {
			a.respondMessage(c, http.StatusBadRequest, "request.invalid")
			return
		}
		uploads, closeUploads, err := formUploads(c, "photo")
		if err != nil {
			a.respondMessage(c, http.StatusBadRequest, "request.invalid")
			return
		}
		defer closeUploads()
		if len(uploads) > 0 {
			photo = &uploads[0]
		}
	}

	cert, err := a.profiles.AddCertification(c.Request.Context(), currentUserID(c), service.CertificationInput{
		Org:        payload.Org,
		Level:      payload.Level,
		Date:       payload.Date,
		CertNumber: payload.CertNumber,
	}, photo)
	if err != nil {
		a.handleProfileError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"certification": certificationToPayload(cert)})
}

func (a *API) RemoveCertification(c *gin.Context) {
	id, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	if err := a.profiles.RemoveCertification(c.Request.Context(), currentUserID(c), id); err != nil {
		a.handleProfileError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListCertOrgs 返回认证机构及等级
func (a *API) ListCertOrgs(c *gin.Context) {
	orgs := make([]gin.H, 0, len(service.CertOrgOrder))
	for _, org := range service.CertOrgOrder {
		orgs = append(orgs, gin.H{"id": org, "levels": service.CertOrgs[org]})
	}
	c.JSON(http.StatusOK, gin.H{"orgs": orgs})
}

// PublicProfile 返回他人主页，未公开时只含昵称
func (a *API) PublicProfile(c *gin.Context) {
	id, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	profile, err := a.profiles.Public(id)
	if err != nil {
		a.handleProfileError(c, err)
		return
	}

	payload := gin.H{
		"id":       profile.ID,
		"nickname": profile.Nickname,
		"isPublic": profile.IsPublic,
	}
	if profile.IsPublic {
		certs := make([]gin.H, 0, len(profile.Certifications))
		for i := range profile.Certifications {
			certs = append(certs, certificationToPayload(&profile.Certifications[i]))
		}
		viewerID := currentUserID(c)
		reviews := make([]gin.H, 0, len(profile.RecentReviews))
		for i := range profile.RecentReviews {
			reviews = append(reviews, reviewToPayload(&profile.RecentReviews[i], viewerID))
		}
		payload["bio"] = profile.Bio
		payload["photoUrl"] = profile.PhotoURL
		payload["certifications"] = certs
		payload["reviewCount"] = profile.ReviewCount
		payload["recentReviews"] = reviews
		payload["featuredBadges"] = a.featuredBadges(profile.FeaturedBadges)
	}
	c.JSON(http.StatusOK, gin.H{"profile": payload})
}

func (a *API) featuredBadges(ids []string) []gin.H {
	catalog := a.achievements.Catalog()
	badges := make([]gin.H, 0, len(ids))
	for _, id := range ids {
		def, ok := catalog.Get(id)
		if !ok {
			continue
		}
		badges = append(badges, gin.H{"id": def.ID, "icon": def.Icon, "title": def.Title, "titleEn": def.TitleEn})
	}
	return badges
}

func (a *API) handleProfileError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		a.respondMessage(c, http.StatusNotFound, "profile.notFound")
	case errors.Is(err, service.ErrProfileInvalid):
		a.respondMessage(c, http.StatusBadRequest, "profile.invalid")
	case errors.Is(err, service.ErrCertificationInvalid):
		a.respondMessage(c, http.StatusBadRequest, "cert.invalid")
	case errors.Is(err, service.ErrCertificationNotFound):
		a.respondMessage(c, http.StatusNotFound, "cert.notFound")
	case errors.Is(err, service.ErrMediaType):
		a.respondMessage(c, http.StatusBadRequest, "media.type")
	case errors.Is(err, service.ErrMediaTooLarge):
		a.respondMessage(c, http.StatusRequestEntityTooLarge, "media.size")
	default:
		log.Printf("[profile] request failed: %v", err)
		a.respondMessage(c, http.StatusInternalServerError, "server.error")
	}
}

func profileToPayload(user *db.User) gin.H {
	payload := userToPayload(user)
	certs := make([]gin.H, 0, len(user.Certifications))
	for i := range user.Certifications {
		certs = append(certs, certificationToPayload(&user.Certifications[i]))
	}
	payload["certifications"] = certs
	return payload
}

func certificationToPayload(cert *db.Certification) gin.H {
	return gin.H{
		"id":         cert.ID,
		"org":        cert.Org,
		"level":      cert.Level,
		"date":       cert.Date,
		"certNumber": cert.CertNumber,
		"photoUrl":   cert.PhotoURL,
	}
}
