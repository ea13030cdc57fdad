package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kjstillabower/weather-mcp-server/internal/observability"
)

// WeatherClient wraps the two upstream OpenWeatherMap operations. Both return
// raw JSON: callers decide how (and whether) to normalize.
type WeatherClient interface {
	FetchCurrent(ctx context.Context, city string) (json.RawMessage, error)
	FetchForecast(ctx context.Context, city string, days int) (json.RawMessage, error)
}

var (
	ErrInvalidAPIKey = errors.New("invalid API key")
	ErrUpstream      = errors.New("weather API error")
)

// samplesPerDay converts a day count to the upstream cnt parameter; the
// forecast endpoint returns 3-hour samples.
const samplesPerDay = 8

// OpenWeatherClient calls the OpenWeatherMap current-weather and forecast
// endpoints with a fixed credential and metric units. No retries, no backoff:
// every failure is surfaced to the caller as-is.
type OpenWeatherClient struct {
	apiKey      string
	currentURL  string
	forecastURL string
	client      *http.Client
}

// NewOpenWeatherClient creates a client for the given endpoints. The API key
// is required; endpoint URLs fall back to the public OpenWeatherMap paths.
func NewOpenWeatherClient(apiKey, currentURL, forecastURL string, timeout time.Duration) (*OpenWeatherClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if currentURL == "" {
		currentURL = "https://api.openweathermap.org/data/2.5/weather"
	}
	if forecastURL == "" {
		forecastURL = "https://api.openweathermap.org/data/2.5/forecast"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OpenWeatherClient{
		apiKey:      apiKey,
		currentURL:  currentURL,
		forecastURL: forecastURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// upstreamError is the error body OpenWeatherMap returns on non-2xx responses.
type upstreamError struct {
	Cod     json.RawMessage `json:"cod"`
	Message string          `json:"message"`
}

// forecastResponse holds the single field the forecast path cares about; the
// list is passed through to callers without decoding its elements.
type forecastResponse struct {
	List json.RawMessage `json:"list"`
}

// FetchCurrent performs a single-city current-conditions lookup and returns
// the raw response body.
func (c *OpenWeatherClient) FetchCurrent(ctx context.Context, city string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("q", city)
	return c.call(ctx, "current", c.currentURL, params)
}

// FetchForecast performs a forecast lookup and returns the raw upstream list,
// unmodified. days is translated to a sample count (days * 8); values are
// passed through as given, including zero or negative counts.
func (c *OpenWeatherClient) FetchForecast(ctx context.Context, city string, days int) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("cnt", fmt.Sprintf("%d", days*samplesPerDay))
	body, err := c.call(ctx, "forecast", c.forecastURL, params)
	if err != nil {
		return nil, err
	}
	var resp forecastResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse forecast response: %w", err)
	}
	if len(resp.List) == 0 {
		return nil, fmt.Errorf("%w: forecast response missing list", ErrUpstream)
	}
	return resp.List, nil
}

// call issues a GET against base with the shared credential and unit params
// attached, returning the response body on 2xx.
func (c *OpenWeatherClient) call(ctx context.Context, endpoint, base string, params url.Values) (json.RawMessage, error) {
	start := time.Now()

	req, err := c.buildRequest(ctx, base, params)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.WeatherAPICallsTotal.WithLabelValues(endpoint, "error").Inc()
		observability.WeatherAPIDuration.WithLabelValues(endpoint, "error").Observe(duration)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := observability.APIStatusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(endpoint, status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(endpoint, status).Observe(duration)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.errorFromResponse(resp.StatusCode, body)
	}
	return body, nil
}

func (c *OpenWeatherClient) buildRequest(ctx context.Context, base string, params url.Values) (*http.Request, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

// errorFromResponse maps a non-2xx response to an error carrying the
// upstream-provided message when present, else a generic HTTP status.
func (c *OpenWeatherClient) errorFromResponse(statusCode int, body []byte) error {
	var ue upstreamError
	if err := json.Unmarshal(body, &ue); err == nil && ue.Message != "" {
		if statusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", ErrInvalidAPIKey, ue.Message)
		}
		return fmt.Errorf("%w: %s", ErrUpstream, ue.Message)
	}
	if statusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: HTTP %d", ErrInvalidAPIKey, statusCode)
	}
	return fmt.Errorf("%w: HTTP %d", ErrUpstream, statusCode)
}
