// Package api serves a kosha over a read-only REST API.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// NewRouter wires the routes of s. Metrics registered with gatherer are
// served on /metrics.
func NewRouter(s *Server, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	metrics := s.metrics
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))

		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))
		r.Get("/padas/{key}", metrics.InstrumentHandler("GET", "/api/v1/padas/{key}", s.handleGetPadas))
		r.Get("/contains/{key}", metrics.InstrumentHandler("GET", "/api/v1/contains/{key}", s.handleContains))
		// The empty prefix lists every key.
		r.Get("/prefix/", metrics.InstrumentHandler("GET", "/api/v1/prefix/", s.handlePrefix))
		r.Get("/prefix/{prefix}", metrics.InstrumentHandler("GET", "/api/v1/prefix/{prefix}", s.handlePrefix))
		r.Get("/stats", metrics.InstrumentHandler("GET", "/api/v1/stats", s.handleStats))
	})

	return r
}

// StartServer serves lexicon on config.Bind:config.Port until ctx is
// cancelled, then shuts down gracefully.
func StartServer(ctx context.Context, lexicon Lexicon, config ServerConfig, logger logrus.FieldLogger) error {
	metrics := NewMetrics(prometheus.DefaultRegisterer)
	metrics.UpdateKoshaStats(lexicon.Len(), lexicon.Records())

	server, err := NewServer(lexicon, config, metrics, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	addr := net.JoinHostPort(config.Bind, strconv.Itoa(config.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(server, prometheus.DefaultGatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr": addr,
			"auth": config.APIKey != "",
		}).Info("starting kosha REST API server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down kosha REST API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
