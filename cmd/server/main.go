package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/where2dive/internal/config"
	"github.com/where2dive/internal/db"
	"github.com/where2dive/internal/handler"
	"github.com/where2dive/internal/notify"
	"github.com/where2dive/internal/router"
	"github.com/where2dive/internal/service"
	"github.com/where2dive/internal/storage"
)

func main() {
	cfg := config.Load()
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	if err := db.EnsureUser(cfg.DemoUserEmail, cfg.DemoUserPassword); err != nil {
		log.Fatalf("failed to ensure demo user: %v", err)
	}

	ctx := context.Background()
	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}

	hub := notify.NewHub(router.OriginChecker(cfg.AllowedOrigins))
	api := handler.NewAPI(db.DB, handler.Options{
		Store:           store,
		Weather:         service.NewWeatherService(cfg.WeatherForecast, cfg.WeatherMarine, cfg.WeatherCacheTTL),
		Hub:             hub,
		DefaultLanguage: cfg.DefaultLanguage,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.SetupRouter(cfg, api),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[server] listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to run server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Printf("[server] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] shutdown: %v", err)
	}

	// 等待后台成就进度写入完成后再关闭数据库
	api.Achievements().Wait()
	if sqlDB, err := db.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
