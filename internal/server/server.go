// Package server provides the HTTP API for the portfolio analytics and
// trading-signal platform.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/nuniesmith/fks-portfolio-go/internal/allocation"
	"github.com/nuniesmith/fks-portfolio-go/internal/config"
	"github.com/nuniesmith/fks-portfolio-go/internal/database"
	"github.com/nuniesmith/fks-portfolio-go/internal/guidance"
	"github.com/nuniesmith/fks-portfolio-go/internal/marketdata"
	"github.com/nuniesmith/fks-portfolio-go/internal/quant"
	"github.com/nuniesmith/fks-portfolio-go/internal/signals"
)

// Config bundles every component the HTTP API dispatches to. When
// Config.FKSAIBaseURL is empty, /api/ai/compare still responds, comparing
// the baseline signal batch against itself.
type Config struct {
	Log     zerolog.Logger
	Config  *config.Config
	DB      *database.DB
	Port    int
	DevMode bool

	Router       *marketdata.Router
	Collector    *marketdata.Collector
	Assets       *marketdata.AssetConfigManager
	BTC          *marketdata.BTCConverter
	Correlation  *quant.Correlation
	Optimizer    *quant.MeanVarianceOptimizer
	SignalEngine *signals.Engine
	SignalStore  *signals.Store
	BiasDetector *guidance.BiasDetector
	Guidance     *guidance.Support
	Allocation   *allocation.Tracker
}

// Server wraps the HTTP server and its routed dependencies.
type Server struct {
	cfg  Config
	http *http.Server
}

// New builds a Server with its full route table registered, but does not
// start listening.
func New(cfg Config) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := &handlers{cfg: cfg}
	h.registerRoutes(r)

	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:         ":" + strconv.Itoa(cfg.Port),
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start begins serving HTTP requests, blocking until the server stops or
// fails. A clean shutdown via Shutdown returns http.ErrServerClosed, which
// callers should treat as success.
func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests to
// complete or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// requestLogger emits a structured access log line per request, in the
// style of zerolog-based request logging used throughout the platform.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			next.ServeHTTP(ww, req)
			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
