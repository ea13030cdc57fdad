package server

import (
	"context"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-mcp-server/internal/observability"
	"github.com/kjstillabower/weather-mcp-server/internal/validation"
)

const toolGetForecast = "get_forecast"

// ForecastArgs are the arguments for the get_forecast tool. The input schema
// is inferred from this struct: city is required, days is an optional number.
// The 1-5 day bound lives in the description only; the upper bound is clamped
// in the service and the lower bound is intentionally unenforced, so values
// like 7 succeed (clamped to 5) instead of failing schema validation.
type ForecastArgs struct {
	City string  `json:"city" jsonschema:"Name of the city"`
	Days float64 `json:"days,omitempty" jsonschema:"Number of days (1-5)"`
}

// GetForecast serves tools/call for get_forecast. Argument shape violations
// are rejected by SDK schema validation before this handler runs; the city
// check here is a defensive repeat. An upstream failure does NOT abort the
// request: it is returned as a successful protocol response flagged with
// IsError, matching what forecast-consuming clients expect.
func (h *Handler) GetForecast(ctx context.Context, req *mcp.CallToolRequest, args ForecastArgs) (*mcp.CallToolResult, any, error) {
	logger := h.logger.With(zap.String("request_id", uuid.NewString()), zap.String("tool", toolGetForecast))

	if err := validation.ValidateForecastCity(args.City); err != nil {
		observability.ToolCallsTotal.WithLabelValues(toolGetForecast, "invalid_params").Inc()
		logger.Warn("invalid tool arguments", zap.Error(err))
		return nil, nil, err
	}

	data, err := h.weather.Forecast(ctx, args.City, int(args.Days))
	if err != nil {
		observability.ToolCallsTotal.WithLabelValues(toolGetForecast, "upstream_error").Inc()
		logger.Warn("forecast fetch failed", zap.String("city", args.City), zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "Weather API error: " + err.Error()},
			},
		}, nil, nil
	}

	observability.ToolCallsTotal.WithLabelValues(toolGetForecast, "ok").Inc()
	logger.Debug("forecast served", zap.String("city", args.City))
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}
