package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/where2dive/internal/db"
	"github.com/where2dive/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testBaseURL = "http://example.test"

type handlerEnv struct {
	engine *gin.Engine
	api    *API
	db     *gorm.DB
}

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:handler-%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Prepare(gdb); err != nil {
		t.Fatalf("failed to prepare database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

// newHandlerEnv 组装与线上一致的中间件，路由只注册测试用到的部分
func newHandlerEnv(t *testing.T, opts Options) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb := setupHandlerTestDB(t)
	if opts.Store == nil {
		opts.Store = storage.NewLocalStore(t.TempDir(), "/static/uploads")
	}
	api := NewAPI(gdb, opts)
	t.Cleanup(api.Achievements().Wait)

	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.Use(api.LocaleMiddleware())

	r.POST("/api/auth/register", api.Register)
	r.POST("/api/auth/login", api.Login)
	r.POST("/api/auth/logout", api.Logout)
	r.GET("/api/auth/me", api.AuthRequired(), api.Me)

	r.GET("/api/spots", api.ListSpots)
	r.GET("/api/spots/regions", api.ListRegions)
	r.GET("/api/spots/suggest", api.SuggestSpots)
	r.GET("/api/spots/:id", api.GetSpot)
	r.GET("/api/spots/:id/weather", api.GetSpotWeather)
	r.GET("/api/spots/:id/reviews", api.ListReviews)
	r.GET("/api/weather", api.GetWeather)
	r.GET("/api/cert-orgs", api.ListCertOrgs)
	r.GET("/api/users/:id/profile", api.PublicProfile)
	r.POST("/api/contact", api.SubmitContact)

	auth := r.Group("/api", api.AuthRequired())
	auth.GET("/favorites", api.ListFavorites)
	auth.POST("/spots/:id/favorite", api.ToggleFavorite)
	auth.POST("/spots/:id/reviews", api.CreateReview)
	auth.PUT("/reviews/:id", api.UpdateReview)
	auth.DELETE("/reviews/:id", api.DeleteReview)
	auth.GET("/logs", api.ListDiveLogs)
	auth.POST("/logs", api.CreateDiveLog)
	auth.GET("/logs/:id", api.GetDiveLog)
	auth.PUT("/logs/:id", api.UpdateDiveLog)
	auth.DELETE("/logs/:id", api.DeleteDiveLog)
	auth.GET("/myspots", api.ListPersonalSpots)
	auth.POST("/myspots", api.CreatePersonalSpot)
	auth.PUT("/myspots/:id", api.UpdatePersonalSpot)
	auth.DELETE("/myspots/:id", api.DeletePersonalSpot)
	auth.GET("/profile", api.GetProfile)
	auth.PUT("/profile", api.UpdateProfile)
	auth.POST("/profile/photo", api.UploadProfilePhoto)
	auth.POST("/profile/certifications", api.AddCertification)
	auth.DELETE("/profile/certifications/:id", api.RemoveCertification)
	auth.GET("/achievements", api.GetAchievements)
	auth.POST("/achievements/check", api.CheckAchievements)
	auth.PUT("/achievements/featured", api.SetFeaturedAchievements)
	auth.POST("/import", api.ImportLegacy)

	return &handlerEnv{engine: r, api: api, db: gdb}
}

// testClient 在内存中执行请求并维护 cookie
type testClient struct {
	handler http.Handler
	jar     http.CookieJar
}

func (e *handlerEnv) client(t *testing.T) *testClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &testClient{handler: e.engine, jar: jar}
}

func (c *testClient) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	for _, ck := range c.jar.Cookies(req.URL) {
		req.AddCookie(ck)
	}
	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)
	c.jar.SetCookies(req.URL, rr.Result().Cookies())
	return rr
}

func (c *testClient) json(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, testBaseURL+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return c.do(t, req)
}

func (c *testClient) register(t *testing.T, email string) uint {
	t.Helper()
	rr := c.json(t, http.MethodPost, "/api/auth/register", gin.H{"email": email, "password": "secret", "nickname": "Diver"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", email, rr.Code, rr.Body.String())
	}
	var resp struct {
		User struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	decodeJSON(t, rr, &resp)
	return resp.User.ID
}

type multipartFile struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func (c *testClient) multipart(t *testing.T, method, path string, fields map[string][]string, files ...multipartFile) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, values := range fields {
		for _, value := range values {
			if err := writer.WriteField(key, value); err != nil {
				t.Fatalf("failed to write field: %v", err)
			}
		}
	}
	for _, file := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.field, file.filename))
		header.Set("Content-Type", file.contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("failed to create part: %v", err)
		}
		if _, err := part.Write(file.data); err != nil {
			t.Fatalf("failed to write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, testBaseURL+path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.do(t, req)
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	decodeJSON(t, rr, &resp)
	return resp.Error
}

func spotIDBySlug(t *testing.T, gdb *gorm.DB, slug string) uint {
	t.Helper()
	var spot db.DiveSpot
	if err := gdb.Where("slug = ?", slug).First(&spot).Error; err != nil {
		t.Fatalf("spot %s not found: %v", slug, err)
	}
	return spot.ID
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 20, G: 120, B: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}
