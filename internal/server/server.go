// Package server wires the weather service into the MCP protocol surface:
// one static resource, one resource template, and the get_forecast tool.
package server

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const (
	serverName   = "weather-mcp-server"
	jsonMIMEType = "application/json"

	// The example resource keeps the city in the path component (empty
	// host): percent-escapes are not valid in a URL host, and the SDK
	// rejects unparseable resource URIs at registration. The read path
	// decodes either form to the literal city.
	sanFranciscoURI = "weather:///San%20Francisco/current"
	cityTemplate    = "weather://{city}/current"
)

// WeatherProvider is the service-layer surface the MCP handlers need.
// Implemented by service.WeatherService.
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, city string) (json.RawMessage, error)
	Forecast(ctx context.Context, city string, days int) (json.RawMessage, error)
}

// Handler holds dependencies for the MCP request handlers.
type Handler struct {
	weather WeatherProvider
	logger  *zap.Logger
}

// NewHandler returns a new Handler.
func NewHandler(weather WeatherProvider, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{weather: weather, logger: logger}
}

// New builds the MCP server with the resource, resource template, and tool
// registered. Listing the four protocol surfaces (resources, templates,
// tools, calls) is handled by the SDK from these registrations, as is
// rejecting unknown tool names and schema-invalid tool arguments.
func New(weather WeatherProvider, logger *zap.Logger, version string) *mcp.Server {
	h := NewHandler(weather, logger)

	srv := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)

	srv.AddResource(&mcp.Resource{
		URI:         sanFranciscoURI,
		Name:        "Current weather in San Francisco",
		Description: "Real-time weather data for San Francisco",
		MIMEType:    jsonMIMEType,
	}, h.ReadCurrentWeather)

	srv.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: cityTemplate,
		Name:        "Current weather for a given city",
		Description: "Real-time weather data for the requested city",
		MIMEType:    jsonMIMEType,
	}, h.ReadCurrentWeather)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        toolGetForecast,
		Description: "Get weather forecast for a city",
	}, h.GetForecast)

	return srv
}
