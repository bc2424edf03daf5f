package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr       string
	Port             string
	DatabasePath     string
	SessionSecret    string
	GinMode          string
	UploadDir        string
	UploadURLPath    string
	StorageDriver    string
	S3               S3Config
	WeatherForecast  string
	WeatherMarine    string
	WeatherCacheTTL  time.Duration
	AllowedOrigins   []string
	DefaultLanguage  string
	DemoUserEmail    string
	DemoUserPassword string
}

// S3Config 描述 STORAGE_DRIVER=s3 时的对象存储参数
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	PublicBaseURL   string
	AccessKeyID     string
	SecretAccessKey string
}

var defaults = map[string]any{
	"PORT":                 "8080",
	"DATABASE_PATH":        "data/where2dive.db",
	"SESSION_SECRET":       "where2dive-dev-secret",
	"GIN_MODE":             "release",
	"UPLOAD_DIR":           "web/static/uploads",
	"UPLOAD_URL_PATH":      "/static/uploads",
	"STORAGE_DRIVER":       "local",
	"S3_REGION":            "ap-northeast-2",
	"WEATHER_FORECAST_URL": "https://api.open-meteo.com/v1/forecast",
	"WEATHER_MARINE_URL":   "https://marine-api.open-meteo.com/v1/marine",
	"WEATHER_CACHE_TTL":    "30m",
	"ALLOWED_ORIGINS":      "",
	"DEFAULT_LANGUAGE":     "ko",
}

var keys = []string{
	"PORT", "LISTEN_ADDR", "DATABASE_PATH", "SESSION_SECRET", "GIN_MODE",
	"UPLOAD_DIR", "UPLOAD_URL_PATH", "STORAGE_DRIVER",
	"S3_BUCKET", "S3_REGION", "S3_ENDPOINT", "S3_PUBLIC_BASE_URL", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY",
	"WEATHER_FORECAST_URL", "WEATHER_MARINE_URL", "WEATHER_CACHE_TTL",
	"ALLOWED_ORIGINS", "DEFAULT_LANGUAGE", "DEMO_USER_EMAIL", "DEMO_USER_PASSWORD",
}

// Load 依次读取 .env、环境变量与可选的 where2dive.yaml，并为缺失项提供安全的默认值。
func Load() AppConfig {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[config] skip .env: %v", err)
	}

	v := viper.New()
	v.SetConfigName("where2dive")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Printf("[config] read config file: %v", err)
		}
	}

	return FromViper(v)
}

// FromViper 基于给定 viper 实例解析配置，便于测试注入
func FromViper(v *viper.Viper) AppConfig {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	get := func(key string) string {
		return strings.TrimSpace(v.GetString(key))
	}

	port := get("PORT")
	if port == "" {
		port = "8080"
	}

	listenAddr := get("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	ttl, err := time.ParseDuration(get("WEATHER_CACHE_TTL"))
	if err != nil || ttl <= 0 {
		ttl = 30 * time.Minute
	}

	driver := strings.ToLower(get("STORAGE_DRIVER"))
	if driver != "s3" {
		driver = "local"
	}

	return AppConfig{
		ListenAddr:    listenAddr,
		Port:          port,
		DatabasePath:  get("DATABASE_PATH"),
		SessionSecret: get("SESSION_SECRET"),
		GinMode:       get("GIN_MODE"),
		UploadDir:     get("UPLOAD_DIR"),
		UploadURLPath: get("UPLOAD_URL_PATH"),
		StorageDriver: driver,
		S3: S3Config{
			Bucket:          get("S3_BUCKET"),
			Region:          get("S3_REGION"),
			Endpoint:        get("S3_ENDPOINT"),
			PublicBaseURL:   get("S3_PUBLIC_BASE_URL"),
			AccessKeyID:     get("S3_ACCESS_KEY_ID"),
			SecretAccessKey: get("S3_SECRET_ACCESS_KEY"),
		},
		WeatherForecast:  get("WEATHER_FORECAST_URL"),
		WeatherMarine:    get("WEATHER_MARINE_URL"),
		WeatherCacheTTL:  ttl,
		AllowedOrigins:   splitList(get("ALLOWED_ORIGINS")),
		DefaultLanguage:  get("DEFAULT_LANGUAGE"),
		DemoUserEmail:    get("DEMO_USER_EMAIL"),
		DemoUserPassword: get("DEMO_USER_PASSWORD"),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
