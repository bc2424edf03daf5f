package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/where2dive/internal/locale"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrWeatherInvalidCoords 经纬度缺失或越界
	ErrWeatherInvalidCoords = errors.New("invalid coordinates")
	// ErrWeatherUnavailable 气象预报接口请求失败
	ErrWeatherUnavailable = errors.New("weather unavailable")
)

const (
	defaultForecastURL   = "https://api.open-meteo.com/v1/forecast"
	defaultMarineURL     = "https://marine-api.open-meteo.com/v1/marine"
	defaultWeatherTTL    = 30 * time.Minute
	weatherCacheSize     = 512
	maxWeatherBodyBytes  = 1 << 20
	forecastCurrentField = "temperature_2m,weather_code,wind_speed_10m,wind_direction_10m"
	marineCurrentField   = "wave_height,wave_direction,wave_period,ocean_temperature"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// WeatherReport 为潜水点详情页展示的当前气象与海况，缺失的值为 null
type WeatherReport struct {
	Temperature *float64 `json:"temperature"`
	WeatherCode *int     `json:"weatherCode"`
	WeatherText string   `json:"weatherText"`
	WindSpeed   *float64 `json:"windSpeed"`
	WindDir     *string  `json:"windDir"`
	WaterTemp   *float64 `json:"waterTemp"`
	WaveHeight  *float64 `json:"waveHeight"`
	WaveDir     *string  `json:"waveDir"`
	WavePeriod  *float64 `json:"wavePeriod"`
}

type forecastResponse struct {
	Current struct {
		Temperature   *float64 `json:"temperature_2m"`
		WeatherCode   *int     `json:"weather_code"`
		WindSpeed     *float64 `json:"wind_speed_10m"`
		WindDirection *float64 `json:"wind_direction_10m"`
	} `json:"current"`
}

type marineResponse struct {
	Current struct {
		WaveHeight       *float64 `json:"wave_height"`
		WaveDirection    *float64 `json:"wave_direction"`
		WavePeriod       *float64 `json:"wave_period"`
		OceanTemperature *float64 `json:"ocean_temperature"`
	} `json:"current"`
}

// weatherSnapshot 为与语言无关的原始数据，缓存的就是它
type weatherSnapshot struct {
	forecast  forecastResponse
	marine    *marineResponse
	fetchedAt time.Time
}

// WeatherService 代理 open-meteo 的预报与海洋接口，并按坐标缓存
type WeatherService struct {
	http        httpDoer
	forecastURL string
	marineURL   string
	ttl         time.Duration
	now         func() time.Time

	cache *lru.Cache
	group singleflight.Group

	mu sync.Mutex
}

// NewWeatherService 构造 WeatherService，空参数使用默认接口与 30 分钟缓存
func NewWeatherService(forecastURL, marineURL string, ttl time.Duration) *WeatherService {
	if strings.TrimSpace(forecastURL) == "" {
		forecastURL = defaultForecastURL
	}
	if strings.TrimSpace(marineURL) == "" {
		marineURL = defaultMarineURL
	}
	if ttl <= 0 {
		ttl = defaultWeatherTTL
	}
	cache, _ := lru.New(weatherCacheSize)
	return &WeatherService{
		http:        &http.Client{Timeout: 10 * time.Second},
		forecastURL: strings.TrimRight(forecastURL, "/"),
		marineURL:   strings.TrimRight(marineURL, "/"),
		ttl:         ttl,
		now:         time.Now,
		cache:       cache,
	}
}

// SetHTTPClient 替换底层 HTTP 客户端，nil 时恢复默认
func (s *WeatherService) SetHTTPClient(client httpDoer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if client == nil {
		s.http = &http.Client{Timeout: 10 * time.Second}
		return
	}
	s.http = client
}

// Current 返回坐标处的当前天气。
// 预报接口失败视为错误，海洋接口失败时海况字段为 null。
func (s *WeatherService) Current(ctx context.Context, lat, lng float64, language string) (WeatherReport, error) {
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return WeatherReport{}, ErrWeatherInvalidCoords
	}

	key := weatherCacheKey(lat, lng)
	if cached, ok := s.cache.Get(key); ok {
		if snapshot, ok := cached.(weatherSnapshot); ok && s.now().Sub(snapshot.fetchedAt) < s.ttl {
			return snapshot.report(language), nil
		}
		s.cache.Remove(key)
	}

	value, err, _ := s.group.Do(key, func() (any, error) {
		snapshot, err := s.fetch(context.WithoutCancel(ctx), lat, lng)
		if err != nil {
			return nil, err
		}
		s.cache.Add(key, snapshot)
		return snapshot, nil
	})
	if err != nil {
		return WeatherReport{}, err
	}
	return value.(weatherSnapshot).report(language), nil
}

func (s *WeatherService) fetch(ctx context.Context, lat, lng float64) (weatherSnapshot, error) {
	snapshot := weatherSnapshot{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.getJSON(gctx, s.forecastURL, lat, lng, forecastCurrentField, &snapshot.forecast); err != nil {
			return fmt.Errorf("%w: %v", ErrWeatherUnavailable, err)
		}
		return nil
	})
	g.Go(func() error {
		var marine marineResponse
		if err := s.getJSON(gctx, s.marineURL, lat, lng, marineCurrentField, &marine); err != nil {
			log.Printf("[weather] marine request failed for %.2f,%.2f: %v", lat, lng, err)
			return nil
		}
		snapshot.marine = &marine
		return nil
	})
	if err := g.Wait(); err != nil {
		return weatherSnapshot{}, err
	}

	snapshot.fetchedAt = s.now()
	return snapshot, nil
}

func (s *WeatherService) getJSON(ctx context.Context, base string, lat, lng float64, fields string, target any) error {
	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	query.Set("current", fields)
	query.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	s.mu.Lock()
	client := s.http
	s.mu.Unlock()

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", base, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWeatherBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logUpstream("weather", fmt.Sprintf("%s status %d", base, resp.StatusCode), string(body))
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (w weatherSnapshot) report(language string) WeatherReport {
	fc := w.forecast.Current
	report := WeatherReport{
		Temperature: fc.Temperature,
		WeatherCode: fc.WeatherCode,
		WeatherText: locale.WeatherDescription(language, fc.WeatherCode),
		WindSpeed:   fc.WindSpeed,
		WindDir:     compass(language, fc.WindDirection),
	}
	if w.marine != nil {
		mc := w.marine.Current
		report.WaterTemp = mc.OceanTemperature
		report.WaveHeight = mc.WaveHeight
		report.WaveDir = compass(language, mc.WaveDirection)
		report.WavePeriod = mc.WavePeriod
	}
	return report
}

func compass(language string, degrees *float64) *string {
	if degrees == nil {
		return nil
	}
	dir := locale.CompassDirection(language, *degrees)
	return &dir
}

// weatherCacheKey 将坐标保留两位小数，约 1km 内共用缓存
func weatherCacheKey(lat, lng float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lng)
}
