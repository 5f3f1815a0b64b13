// Package api exposes the session surface over HTTP: a gin server with
// Firebase bearer auth, per-user sessions, and thin JSON handlers that
// map one-to-one onto store and session operations.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tyleshq/tyles/internal/cache"
	"github.com/tyleshq/tyles/internal/identity"
	"github.com/tyleshq/tyles/internal/service"
	"github.com/tyleshq/tyles/internal/session"
)

// platformsCacheKey and platformsCacheTTL govern the catalog cache.
const (
	platformsCacheKey = "tyles:platforms"
	platformsCacheTTL = time.Hour
)

// Config holds HTTP server settings.
type Config struct {
	Addr           string
	AllowedOrigins []string
}

// Server is the HTTP surface over the session layer.
type Server struct {
	config   Config
	engine   *gin.Engine
	manager  *session.Manager
	gateway  service.Gateway
	verifier identity.Verifier
	cache    cache.Cache
	logger   *slog.Logger
}

// New wires the engine, middleware and routes.
func New(config Config, gw service.Gateway, verifier identity.Verifier, c cache.Cache, manager *session.Manager) *Server {
	s := &Server{
		config:   config,
		manager:  manager,
		gateway:  gw,
		verifier: verifier,
		cache:    c,
		logger:   slog.Default().With("component", "api"),
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.requestLogger())
	corsConfig := cors.Config{
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(config.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = config.AllowedOrigins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	engine.Use(cors.New(corsConfig))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	v1.Use(s.authenticate())
	s.registerRoutes(v1)

	s.engine = engine
	return s
}

// Handler returns the underlying http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.config.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}
