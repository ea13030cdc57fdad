package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-mcp-server/internal/cache"
	"github.com/kjstillabower/weather-mcp-server/internal/client"
	"github.com/kjstillabower/weather-mcp-server/internal/models"
	"github.com/kjstillabower/weather-mcp-server/internal/observability"
)

// Default and maximum forecast day counts. The upper bound is clamped; the
// lower bound is intentionally not enforced, so zero takes the default and
// negative values pass through to the upstream unmodified.
const (
	DefaultForecastDays = 3
	MaxForecastDays     = 5
)

// WeatherService orchestrates weather retrieval using the cache-aside
// pattern: fresh cache entries are returned verbatim, misses fetch from the
// upstream and populate the cache. Cache keys embed the caller's exact city
// string, so "Tokyo" and "tokyo" are distinct entries and distinct upstream
// queries.
type WeatherService struct {
	client client.WeatherClient
	cache  cache.Cache
	logger *zap.Logger
}

// NewWeatherService creates a WeatherService with the provided dependencies.
func NewWeatherService(weatherClient client.WeatherClient, c cache.Cache, logger *zap.Logger) *WeatherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeatherService{
		client: weatherClient,
		cache:  c,
		logger: logger,
	}
}

// CurrentWeather returns the normalized current-conditions snapshot for the
// city as pretty-printed JSON. A fresh cache hit returns the stored bytes
// unchanged; a miss fetches from the upstream, normalizes, caches, and
// returns the new payload.
func (s *WeatherService) CurrentWeather(ctx context.Context, city string) (json.RawMessage, error) {
	key := "current_weather_" + city
	observability.RecordWeatherQuery(city)

	entry, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		observability.CacheHitsTotal.WithLabelValues("current").Inc()
		s.logger.Debug("cache hit", zap.String("key", key))
		return entry.Data, nil
	}
	observability.CacheMissesTotal.WithLabelValues("current").Inc()
	s.logger.Debug("cache miss, fetching upstream", zap.String("key", key))

	raw, err := s.client.FetchCurrent(ctx, city)
	if err != nil {
		return nil, fmt.Errorf("fetch current weather for %s: %w", city, err)
	}

	var conditions models.CurrentConditions
	if err := json.Unmarshal(raw, &conditions); err != nil {
		return nil, fmt.Errorf("parse current weather for %s: %w", city, err)
	}

	snapshot := models.WeatherSnapshot{
		Temperature: conditions.Main.Temp,
		Conditions:  firstCondition(conditions),
		Humidity:    conditions.Main.Humidity,
		WindSpeed:   conditions.Wind.Speed,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode weather snapshot: %w", err)
	}

	s.store(ctx, key, data)
	return data, nil
}

// Forecast returns the raw upstream forecast list for the city as
// pretty-printed JSON. days follows the upstream's defaulting rules: zero
// takes DefaultForecastDays, values above MaxForecastDays are clamped,
// negative values pass through.
func (s *WeatherService) Forecast(ctx context.Context, city string, days int) (json.RawMessage, error) {
	effective := EffectiveForecastDays(days)
	key := fmt.Sprintf("forecast_%s_%d", city, effective)
	observability.RecordWeatherQuery(city)

	entry, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		observability.CacheHitsTotal.WithLabelValues("forecast").Inc()
		s.logger.Debug("cache hit", zap.String("key", key))
		return entry.Data, nil
	}
	observability.CacheMissesTotal.WithLabelValues("forecast").Inc()
	s.logger.Debug("cache miss, fetching upstream", zap.String("key", key), zap.Int("days", effective))

	list, err := s.client.FetchForecast(ctx, city, effective)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast for %s: %w", city, err)
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, list, "", "  "); err != nil {
		return nil, fmt.Errorf("encode forecast for %s: %w", city, err)
	}
	data := json.RawMessage(indented.Bytes())

	s.store(ctx, key, data)
	return data, nil
}

// EffectiveForecastDays applies the forecast day-count rules: default when
// zero, clamp above MaxForecastDays, no lower bound.
func EffectiveForecastDays(days int) int {
	if days == 0 {
		return DefaultForecastDays
	}
	if days > MaxForecastDays {
		return MaxForecastDays
	}
	return days
}

// store writes through to the cache; a failed set is logged and otherwise
// ignored so the response is still served.
func (s *WeatherService) store(ctx context.Context, key string, data json.RawMessage) {
	if err := s.cache.Set(ctx, key, data); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func firstCondition(c models.CurrentConditions) string {
	if len(c.Weather) == 0 {
		return ""
	}
	if c.Weather[0].Description != "" {
		return c.Weather[0].Description
	}
	return c.Weather[0].Main
}
