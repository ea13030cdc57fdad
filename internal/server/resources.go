package server

import (
	"context"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-mcp-server/internal/observability"
	"github.com/kjstillabower/weather-mcp-server/internal/validation"
)

// ReadCurrentWeather serves resources/read for weather://{city}/current URIs.
// A URI that does not match the shape fails before any network call. An
// upstream failure aborts the whole request; this is deliberately different
// from the tool path, which reports upstream failures in-band.
func (h *Handler) ReadCurrentWeather(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	logger := h.logger.With(zap.String("request_id", uuid.NewString()), zap.String("uri", uri))

	city, err := validation.ParseCurrentWeatherURI(uri)
	if err != nil {
		observability.ResourceReadsTotal.WithLabelValues("invalid_uri").Inc()
		logger.Warn("invalid resource URI")
		return nil, err
	}

	data, err := h.weather.CurrentWeather(ctx, city)
	if err != nil {
		observability.ResourceReadsTotal.WithLabelValues("upstream_error").Inc()
		logger.Error("resource read failed", zap.String("city", city), zap.Error(err))
		return nil, err
	}

	observability.ResourceReadsTotal.WithLabelValues("ok").Inc()
	logger.Debug("resource read served", zap.String("city", city))
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: jsonMIMEType,
				Text:     string(data),
			},
		},
	}, nil
}
