// Package web serves the browser front end for the analysis service.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/pcapview/internal/client"
	"github.com/user/pcapview/internal/graph"
	"github.com/user/pcapview/internal/metrics"
	"github.com/user/pcapview/internal/storage"
	"github.com/user/pcapview/internal/util"
)

// Server is the web server.
type Server struct {
	config *util.Config
	h      *Handlers
	port   int
	srv    *http.Server
}

// NewServer creates a new web server. journal and geo may be nil.
func NewServer(cfg *util.Config, c *client.Client, journal storage.Recorder, geo *graph.GeoAnnotator) *Server {
	if journal == nil {
		journal = storage.NopRecorder{}
	}
	return &Server{
		config: cfg,
		h:      NewHandlers(cfg, c, journal, geo),
		port:   cfg.WebPort,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	h := s.h

	r.HandleFunc("/", h.UploadPage).Methods(http.MethodGet)
	r.HandleFunc("/", h.Upload).Methods(http.MethodPost)
	r.HandleFunc("/history", h.HistoryPage).Methods(http.MethodGet)
	r.HandleFunc("/history/{id:[0-9]+}", h.DetailPage).Methods(http.MethodGet)
	r.HandleFunc("/history/{id:[0-9]+}/graph.mmd", h.DownloadMermaid).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/graph/{id:[0-9]+}", h.APIGraph).Methods(http.MethodGet, http.MethodOptions)
	api.Use(cors.New(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", client.RequestIDHeader},
	}).Handler)

	r.Use(requestLog)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	// uploads wait for the analysis, so writes get the service timeout plus slack
	var writeTimeout time.Duration
	if s.config.RequestTimeout > 0 {
		writeTimeout = s.config.RequestTimeout + 30*time.Second
	}

	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Minute,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		util.Info("Web server starting on port %d (service %s)", s.port, s.config.ServiceURL)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		util.Info("Web server shutting down")
		return s.srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// requestLog logs each request and records route-level metrics.
func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		elapsed := time.Since(start)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil && tpl != "" {
				path = tpl
			}
		}
		metrics.HTTPRequestTotal.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).Inc()
		metrics.HTTPRequestDurationSeconds.WithLabelValues(r.Method, path).Observe(elapsed.Seconds())

		util.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("elapsed", elapsed))
	})
}
