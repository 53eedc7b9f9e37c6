package httpserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fizzlabs/fizzbuzz-service/internal/config"
	"github.com/fizzlabs/fizzbuzz-service/internal/metrics"
	"github.com/fizzlabs/fizzbuzz-service/pkg/logger"
)

// NewRouter assembles the gin engine with the full middleware chain and
// all routes.
func NewRouter(cfg config.ServerConfig, h *Handlers, log *logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(TracingMiddleware(log))
	router.Use(MetricsMiddleware())
	router.Use(CORSMiddleware(cfg.CORSOrigins))

	if cfg.RateLimitPerSec > 0 {
		rl := NewRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst, log)
		router.Use(rl.Handler())
	}

	router.GET("/fizzbuzz", h.FizzBuzz)
	router.GET("/fizzbuzz/statistics", h.Statistics)
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	return router
}

// Server wraps the HTTP listener lifecycle.
type Server struct {
	srv *http.Server
	log *logger.Logger
}

// NewServer builds the listener from config.
func NewServer(cfg config.ServerConfig, handler http.Handler, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewDefault("httpserver")
	}
	return &Server{
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		log: log,
	}
}

// Start serves until Shutdown. It returns nil on graceful close.
func (s *Server) Start() error {
	s.log.WithField("addr", s.srv.Addr).Info("http server listening")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("http server shutting down")
	return s.srv.Shutdown(ctx)
}
