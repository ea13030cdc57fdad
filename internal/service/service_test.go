package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-mcp-server/internal/cache"
)

type fetchCall struct {
	city string
	days int
}

type fakeWeatherClient struct {
	currentCalls  []fetchCall
	forecastCalls []fetchCall
	currentBody   string
	forecastBody  string
	err           error
}

func (f *fakeWeatherClient) FetchCurrent(ctx context.Context, city string) (json.RawMessage, error) {
	f.currentCalls = append(f.currentCalls, fetchCall{city: city})
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.currentBody), nil
}

func (f *fakeWeatherClient) FetchForecast(ctx context.Context, city string, days int) (json.RawMessage, error) {
	f.forecastCalls = append(f.forecastCalls, fetchCall{city: city, days: days})
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.forecastBody), nil
}

const currentBody = `{"main":{"temp":15.5,"humidity":65},"weather":[{"main":"Clouds","description":"scattered clouds"}],"wind":{"speed":3.2},"name":"Seattle"}`

func newTestService(t *testing.T, client *fakeWeatherClient, ttl time.Duration) *WeatherService {
	t.Helper()
	return NewWeatherService(client, cache.NewInMemoryCache(ttl), zap.NewNop())
}

func TestWeatherService_CurrentWeather_Normalizes(t *testing.T) {
	client := &fakeWeatherClient{currentBody: currentBody}
	svc := newTestService(t, client, time.Minute)

	data, err := svc.CurrentWeather(context.Background(), "Seattle")
	if err != nil {
		t.Fatalf("CurrentWeather() error = %v", err)
	}

	var snapshot map[string]any
	if err := json.Unmarshal(data, &snapshot); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	if got := snapshot["temperature"]; got != 15.5 {
		t.Errorf("temperature = %v, want 15.5", got)
	}
	if got := snapshot["conditions"]; got != "scattered clouds" {
		t.Errorf("conditions = %v, want %q", got, "scattered clouds")
	}
	if got := snapshot["humidity"]; got != float64(65) {
		t.Errorf("humidity = %v, want 65", got)
	}
	if got := snapshot["wind_speed"]; got != 3.2 {
		t.Errorf("wind_speed = %v, want 3.2", got)
	}
	ts, _ := snapshot["timestamp"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", ts, err)
	}
}

// TestWeatherService_CurrentWeather_CachedWithinTTL verifies the core cache
// property: a second read within the TTL returns byte-identical JSON and
// triggers zero upstream calls.
func TestWeatherService_CurrentWeather_CachedWithinTTL(t *testing.T) {
	client := &fakeWeatherClient{currentBody: currentBody}
	svc := newTestService(t, client, time.Minute)
	ctx := context.Background()

	first, err := svc.CurrentWeather(ctx, "Seattle")
	if err != nil {
		t.Fatalf("CurrentWeather() error = %v", err)
	}
	second, err := svc.CurrentWeather(ctx, "Seattle")
	if err != nil {
		t.Fatalf("CurrentWeather() second call error = %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("cached response differs:\nfirst:  %s\nsecond: %s", first, second)
	}
	if got := len(client.currentCalls); got != 1 {
		t.Errorf("upstream calls = %d, want 1 (second read must be served from cache)", got)
	}
}

// TestWeatherService_CurrentWeather_RefetchAfterTTL verifies that a read
// after TTL expiry triggers exactly one more upstream call.
func TestWeatherService_CurrentWeather_RefetchAfterTTL(t *testing.T) {
	client := &fakeWeatherClient{currentBody: currentBody}
	svc := newTestService(t, client, 2*time.Millisecond)
	ctx := context.Background()

	if _, err := svc.CurrentWeather(ctx, "Seattle"); err != nil {
		t.Fatalf("CurrentWeather() error = %v", err)
	}
	time.Sleep(3 * time.Millisecond)
	if _, err := svc.CurrentWeather(ctx, "Seattle"); err != nil {
		t.Fatalf("CurrentWeather() error = %v", err)
	}

	if got := len(client.currentCalls); got != 2 {
		t.Errorf("upstream calls = %d, want 2 after TTL expiry", got)
	}
}

// TestWeatherService_CurrentWeather_CaseSensitive verifies that city strings
// are not normalized: "Paris" and "paris" are separate upstream queries and
// separate cache entries.
func TestWeatherService_CurrentWeather_CaseSensitive(t *testing.T) {
	client := &fakeWeatherClient{currentBody: currentBody}
	svc := newTestService(t, client, time.Minute)
	ctx := context.Background()

	if _, err := svc.CurrentWeather(ctx, "Paris"); err != nil {
		t.Fatalf("CurrentWeather(Paris) error = %v", err)
	}
	if _, err := svc.CurrentWeather(ctx, "paris"); err != nil {
		t.Fatalf("CurrentWeather(paris) error = %v", err)
	}

	if got := len(client.currentCalls); got != 2 {
		t.Fatalf("upstream calls = %d, want 2 for differently-cased cities", got)
	}
	if client.currentCalls[0].city != "Paris" || client.currentCalls[1].city != "paris" {
		t.Errorf("upstream cities = %v, want verbatim strings", client.currentCalls)
	}
}

func TestWeatherService_CurrentWeather_UpstreamError(t *testing.T) {
	client := &fakeWeatherClient{err: errors.New("city not found")}
	svc := newTestService(t, client, time.Minute)

	if _, err := svc.CurrentWeather(context.Background(), "Nowhere"); err == nil {
		t.Fatal("CurrentWeather() error = nil, want upstream error propagated")
	}
}

func TestEffectiveForecastDays(t *testing.T) {
	tests := []struct {
		name string
		days int
		want int
	}{
		{name: "zero takes default", days: 0, want: 3},
		{name: "within bounds", days: 2, want: 2},
		{name: "at maximum", days: 5, want: 5},
		{name: "above maximum clamps", days: 7, want: 5},
		{name: "negative passes through", days: -1, want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveForecastDays(tt.days); got != tt.want {
				t.Errorf("EffectiveForecastDays(%d) = %d, want %d", tt.days, got, tt.want)
			}
		})
	}
}

func TestWeatherService_Forecast_DaysHandling(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		wantDays int
	}{
		{name: "default", days: 0, wantDays: 3},
		{name: "clamped", days: 7, wantDays: 5},
		{name: "negative unmodified", days: -1, wantDays: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeWeatherClient{forecastBody: `[{"dt":1}]`}
			svc := newTestService(t, client, time.Minute)

			if _, err := svc.Forecast(context.Background(), "London", tt.days); err != nil {
				t.Fatalf("Forecast() error = %v", err)
			}
			if got := client.forecastCalls[0].days; got != tt.wantDays {
				t.Errorf("upstream days = %d, want %d", got, tt.wantDays)
			}
		})
	}
}

// TestWeatherService_Forecast_CacheKeyUsesEffectiveDays verifies that a
// clamped request shares the cache entry of an explicit maximum request.
func TestWeatherService_Forecast_CacheKeyUsesEffectiveDays(t *testing.T) {
	client := &fakeWeatherClient{forecastBody: `[{"dt":1}]`}
	svc := newTestService(t, client, time.Minute)
	ctx := context.Background()

	if _, err := svc.Forecast(ctx, "London", 7); err != nil {
		t.Fatalf("Forecast(7) error = %v", err)
	}
	if _, err := svc.Forecast(ctx, "London", 5); err != nil {
		t.Fatalf("Forecast(5) error = %v", err)
	}

	if got := len(client.forecastCalls); got != 1 {
		t.Errorf("upstream calls = %d, want 1 (7 clamps to the same key as 5)", got)
	}
}

func TestWeatherService_Forecast_CachedWithinTTL(t *testing.T) {
	client := &fakeWeatherClient{forecastBody: `[{"dt":1,"main":{"temp":10}}]`}
	svc := newTestService(t, client, time.Minute)
	ctx := context.Background()

	first, err := svc.Forecast(ctx, "London", 3)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	second, err := svc.Forecast(ctx, "London", 3)
	if err != nil {
		t.Fatalf("Forecast() second call error = %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("cached forecast differs:\nfirst:  %s\nsecond: %s", first, second)
	}
	if got := len(client.forecastCalls); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}

// TestWeatherService_Forecast_RawListUnmodified verifies the forecast payload
// is the upstream list re-indented but not reshaped.
func TestWeatherService_Forecast_RawListUnmodified(t *testing.T) {
	client := &fakeWeatherClient{forecastBody: `[{"dt":1,"main":{"temp":10},"weather":[{"description":"rain"}]}]`}
	svc := newTestService(t, client, time.Minute)

	data, err := svc.Forecast(context.Background(), "London", 1)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}

	var entries []map[string]any
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("forecast is not a JSON array: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if _, ok := entries[0]["main"]; !ok {
		t.Error("forecast entry lost upstream fields; payload must stay unnormalized")
	}
}

func TestWeatherService_Forecast_UpstreamError(t *testing.T) {
	client := &fakeWeatherClient{err: errors.New("city not found")}
	svc := newTestService(t, client, time.Minute)

	if _, err := svc.Forecast(context.Background(), "Nowhere", 3); err == nil {
		t.Fatal("Forecast() error = nil, want upstream error propagated")
	}
}
