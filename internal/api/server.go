package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/snarg/bitacora/internal/config"
	"github.com/snarg/bitacora/internal/database"
	"github.com/snarg/bitacora/internal/metrics"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

type ServerOptions struct {
	Config    *config.Config
	Store     database.Store
	Pipeline  Processor
	MQTT      ConnStatus // optional
	Services  []string   // configured transcription services
	Version   string
	StartTime time.Time
	Log       zerolog.Logger
}

func NewServer(opts ServerOptions) *Server {
	cfg := opts.Config
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(opts.Log))
	r.Use(CORSWithOrigins(cfg.AllowedOrigins()))
	r.Use(metrics.InstrumentHandler)

	// Health and metrics: no auth
	health := NewHealthHandler(opts.Store, opts.MQTT, opts.Services, opts.Version, opts.StartTime)
	r.Get("/health", health.ServeHTTP)
	r.Get("/api/v1/health", health.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	bitacoras := NewBitacoraHandler(opts.Pipeline, opts.Store, cfg.MaxUploadMB<<20, opts.Log)
	profiles := NewProfileHandler(opts.Store, opts.Log)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(cfg.AuthToken))
		r.Post("/api/bitacora", bitacoras.Create)
		r.Get("/api/bitacora", bitacoras.List)
		r.Get("/api/user_profile/{user_id}", profiles.Get)
	})

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: opts.Log,
	}
}

// Handler returns the root router.
func (s *Server) Handler() http.Handler { return s.http.Handler }

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
