package router

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/where2dive/internal/config"
	"github.com/where2dive/internal/handler"
)

const (
	sessionName        = "where2dive_session"
	sessionMaxAge      = 30 * 24 * 60 * 60
	maxMultipartMemory = 8 << 20
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(cfg config.AppConfig, api *handler.API) *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = maxMultipartMemory

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	}

	// 配置会话中间件
	secret := cfg.SessionSecret
	if secret == "" {
		secret = "where2dive-dev-secret"
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(api.LocaleMiddleware())

	// 本地存储时直接提供上传文件
	if cfg.StorageDriver != "s3" && cfg.UploadDir != "" && cfg.UploadURLPath != "" {
		r.Static(cfg.UploadURLPath, cfg.UploadDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiGroup := r.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		authGroup.POST("/register", api.Register)
		authGroup.POST("/login", api.Login)
		authGroup.POST("/logout", api.Logout)
		authGroup.GET("/me", api.AuthRequired(), api.Me)

		apiGroup.GET("/spots", api.ListSpots)
		apiGroup.GET("/spots/regions", api.ListRegions)
		apiGroup.GET("/spots/suggest", api.SuggestSpots)
		apiGroup.GET("/spots/:id", api.GetSpot)
		apiGroup.GET("/spots/:id/weather", api.GetSpotWeather)
		apiGroup.GET("/spots/:id/reviews", api.ListReviews)
		apiGroup.GET("/weather", api.GetWeather)
		apiGroup.GET("/cert-orgs", api.ListCertOrgs)
		apiGroup.GET("/users/:id/profile", api.PublicProfile)
		apiGroup.POST("/contact", api.SubmitContact)

		// 需要登录的路由
		auth := apiGroup.Group("")
		auth.Use(api.AuthRequired())
		{
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
		}
	}

	r.GET("/ws/achievements", api.AuthRequired(), api.AchievementSocket)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept-Language"},
		ExposeHeaders:    []string{"Content-Length", "Content-Language"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

// OriginChecker 返回 websocket 握手使用的来源校验，空列表时只接受同源
func OriginChecker(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(origins, "*") || slices.Contains(origins, origin) {
			return true
		}
		parsed, err := url.Parse(origin)
		return err == nil && strings.EqualFold(parsed.Host, r.Host)
	}
}
