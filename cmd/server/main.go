package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-mcp-server/internal/cache"
	"github.com/kjstillabower/weather-mcp-server/internal/client"
	"github.com/kjstillabower/weather-mcp-server/internal/config"
	"github.com/kjstillabower/weather-mcp-server/internal/observability"
	"github.com/kjstillabower/weather-mcp-server/internal/ops"
	"github.com/kjstillabower/weather-mcp-server/internal/server"
	"github.com/kjstillabower/weather-mcp-server/internal/service"
)

const version = "0.1.0"

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	weatherClient, err := client.NewOpenWeatherClient(cfg.WeatherAPIKey, cfg.CurrentURL, cfg.ForecastURL, cfg.WeatherAPITimeout)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}

	var cacheSvc cache.Cache
	var memcacheCloser *cache.MemcachedCache
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.CacheTTL, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		memcacheCloser = mc
		cacheSvc = mc
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		cacheSvc = cache.NewInMemoryCache(cfg.CacheTTL)
		logger.Info("cache backend: in_memory", zap.Duration("ttl", cfg.CacheTTL))
	}

	weatherService := service.NewWeatherService(weatherClient, cacheSvc, logger)

	if len(cfg.TrackedCities) > 0 {
		observability.SetTrackedCities(cfg.TrackedCities)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.WarmCities) > 0 {
		warmer := cache.NewCacheWarmer(weatherService, logger)
		warmCtx, warmCancel := context.WithTimeout(ctx, 30*time.Second)
		if err := warmer.Warm(warmCtx, cfg.WarmCities); err != nil {
			logger.Warn("cache warming failed", zap.Error(err))
		}
		warmCancel()
		if cfg.WarmInterval > 0 {
			go func() {
				if err := warmer.WarmPeriodic(ctx, cfg.WarmCities, cfg.WarmInterval); err != nil && err != context.Canceled {
					logger.Error("periodic cache warming stopped", zap.Error(err))
				}
			}()
		}
	}

	if cfg.MetricsAddr != "" {
		var ping func() error
		if memcacheCloser != nil {
			ping = memcacheCloser.Ping
		}
		opsHandler := ops.NewHandler(logger, cfg.CacheBackend, ping)
		go func() {
			if err := opsHandler.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Error("ops listener", zap.Error(err))
			}
		}()
	}

	mcpServer := server.New(weatherService, logger, version)
	logger.Info("weather MCP server starting on stdio", zap.String("version", version))
	if err := mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Fatal("server", zap.Error(err))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
