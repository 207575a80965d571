// Package server wires the HTTP surface over the memory orchestrator.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/hrygo/mnemos/ai/embedding"
	"github.com/hrygo/mnemos/ai/llmbridge"
	"github.com/hrygo/mnemos/ai/memory"
	"github.com/hrygo/mnemos/ai/memory/ingest"
	"github.com/hrygo/mnemos/internal/profile"
	apiv1 "github.com/hrygo/mnemos/server/router/api/v1"
	"github.com/hrygo/mnemos/store"
)

// rateLimitPerSecond bounds requests per client IP. Burst allows short
// spikes from batch importers.
const (
	rateLimitPerSecond = 30
	rateLimitBurst     = 60
)

type Server struct {
	echoServer *echo.Echo
	profile    *profile.Profile
	store      *store.Store
	ingest     *ingest.Pipeline
}

// NewServer builds the HTTP server and wires the orchestrator, embedding
// ingest pipeline and API routes.
func NewServer(ctx context.Context, profile *profile.Profile, st *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(rateLimitPerSecond),
			Burst:     rateLimitBurst,
			ExpiresIn: 3 * time.Minute,
		},
	)))
	e.Use(requestLogger())
	e.Use(apiKeyAuth(profile))

	server := &Server{
		echoServer: e,
		profile:    profile,
		store:      st,
	}

	embedder := embedding.NewProvider(profile)
	if embedder == nil {
		slog.Warn("embedding provider not configured, semantic recall disabled")
	} else {
		server.ingest = ingest.NewPipeline(st, embedder)
		server.ingest.Start(ctx)
		go func() {
			if n, err := server.ingest.Backfill(ctx); err != nil {
				slog.Warn("embedding backfill failed", "err", err)
			} else if n > 0 {
				slog.Info("embedding backfill enqueued", "count", n)
			}
		}()
	}

	bridge := llmbridge.NewClient(profile.BridgeURL, time.Duration(profile.BridgeTimeout)*time.Second)
	repo := memory.NewStoreRepository(st, embedder)
	orchestrator := memory.NewOrchestrator(repo, bridge, "")

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": profile.Version})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	apiV1Service := apiv1.NewAPIV1Service(profile, st, orchestrator, server.ingest)
	apiV1Service.RegisterRoutes(e)

	return server, nil
}

// Start begins serving in the background.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped unexpectedly", "err", err)
		}
	}()
	return nil
}

// Shutdown drains HTTP connections, stops the ingest workers and closes the
// store.
func (s *Server) Shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down http server", "err", err)
	}
	if s.ingest != nil {
		s.ingest.Stop()
	}
	if err := s.store.Close(); err != nil {
		slog.Error("failed to close store", "err", err)
	}
	slog.Info("server shut down")
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				slog.Warn("request failed", "method", v.Method, "uri", v.URI, "status", v.Status, "err", v.Error)
				return nil
			}
			slog.Debug("request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	})
}
