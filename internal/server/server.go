// Package server is the LyricDeck HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/VantageDataChat/LyricDeck"
	"github.com/VantageDataChat/LyricDeck/enrich"
	"github.com/VantageDataChat/LyricDeck/internal/config"
	"github.com/VantageDataChat/LyricDeck/internal/logging"
	"github.com/VantageDataChat/LyricDeck/internal/metrics"
)

const shutdownTimeout = 15 * time.Second

// Options wires the server's collaborators.
type Options struct {
	Config config.ServerConfig
	// Enricher answers /api/process-lyrics. Without one every line falls
	// back with enrich.ErrNotConfigured.
	Enricher  enrich.Processor
	BatchSize int
	Metrics   *metrics.Metrics
	// Gatherer backs /metrics; defaults to the global registry.
	Gatherer prometheus.Gatherer
	Logger   logging.Logger
}

// Server serves the API.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	enricher   enrich.Processor
	generator  *lyricdeck.Generator
	batchSize  int
	maxBody    int64
	metrics    *metrics.Metrics
	logger     logging.Logger
}

// New builds the gin engine and registers every route.
func New(opts Options) *Server {
	logger := logging.OrNop(opts.Logger)
	if !opts.Config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	batch := opts.BatchSize
	if batch <= 0 || batch > enrich.DefaultBatchSize {
		batch = enrich.DefaultBatchSize
	}
	maxBody := opts.Config.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 64 << 20
	}

	enricher := opts.Enricher
	if enricher == nil {
		enricher = enrich.NewLLMEnricher(nil, enrich.WithLogger(logger))
	}

	s := &Server{
		engine:   gin.New(),
		enricher: enricher,
		generator: lyricdeck.NewGenerator(
			lyricdeck.WithLogger(logger),
			lyricdeck.WithStageObserver(opts.Metrics.ObserveStage),
		),
		batchSize: batch,
		maxBody:   maxBody,
		metrics:   opts.Metrics,
		logger:    logger,
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(requestID())
	s.engine.Use(accessLog(logger, opts.Metrics))
	s.engine.Use(cors.New(corsConfig(opts.Config.CORSOrigins)))

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// process-lyrics sits outside the per-client limit; model calls go
	// through the enricher's own limiter.
	s.engine.POST(enrich.ProcessPath, limitBody(maxBody), s.handleProcessLyrics)

	api := s.engine.Group("/api")
	api.Use(rateLimit(opts.Config.RequestsPerMinute, opts.Config.Burst))
	api.Use(limitBody(maxBody))
	{
		api.POST("/parse-lyrics", s.handleParseLyrics)
		api.POST("/generate-pptx", s.handleGeneratePPTX)
	}

	s.httpServer = &http.Server{
		Addr:         opts.Config.Addr,
		Handler:      s.engine,
		ReadTimeout:  opts.Config.ReadTimeout,
		WriteTimeout: opts.Config.WriteTimeout,
	}
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With", requestIDHeader}
	cfg.ExposeHeaders = []string{"Content-Disposition", slideCountHeader, requestIDHeader}

	var allowed []string
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
		if o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = allowed
	return cfg
}
