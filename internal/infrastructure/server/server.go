package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/ZenCode/backend/internal/api/http"
	"github.com/GriffinCanCode/ZenCode/backend/internal/api/middleware"
	"github.com/GriffinCanCode/ZenCode/backend/internal/domain/generation"
	"github.com/GriffinCanCode/ZenCode/backend/internal/domain/ingest"
	"github.com/GriffinCanCode/ZenCode/backend/internal/domain/parser"
	"github.com/GriffinCanCode/ZenCode/backend/internal/domain/prompt"
	"github.com/GriffinCanCode/ZenCode/backend/internal/domain/reconcile"
	"github.com/GriffinCanCode/ZenCode/backend/internal/domain/session"
	"github.com/GriffinCanCode/ZenCode/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/ZenCode/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/ZenCode/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ZenCode/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/ZenCode/backend/internal/providers/analysis"
	"github.com/GriffinCanCode/ZenCode/backend/internal/providers/llm"
	"github.com/GriffinCanCode/ZenCode/backend/internal/providers/source"
	"github.com/GriffinCanCode/ZenCode/backend/internal/providers/store"
	"github.com/GriffinCanCode/ZenCode/backend/internal/providers/vector"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/paths"
)

// Version is reported by / and the version command
var Version = "0.1.0"

const shutdownTimeout = 15 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router       *gin.Engine
	httpServer   *http.Server
	handlers     *api.Handlers
	orchestrator *generation.Orchestrator
	ingest       *ingest.Service
	sessions     *session.Manager
	db           *store.DB
	tracer       *tracing.Tracer
	logger       *logging.Logger
	config       *config.Config
	metrics      *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)

	logger.Info("Initializing ZenCode Server",
		zap.String("port", cfg.Server.Port),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("store", cfg.Store.DSN),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()
	tracer := tracing.New("zencode", logger.Logger)

	ns, err := paths.NewNamespace(paths.Layout{
		Patterns:     cfg.Generation.InternalPatterns,
		SourcePrefix: cfg.Generation.SourcePrefix,
		AliasPrefix:  cfg.Generation.AliasPrefix,
		ManifestName: cfg.Generation.ManifestName,
	})
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("invalid component namespace: %w", err)
	}

	profile, err := prompt.LoadProfile(cfg.Generation.PromptProfile)
	if err != nil {
		tracer.Close()
		return nil, err
	}

	db, err := store.Open(cfg.Store.DSN)
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	logger.Info("Store ready", zap.Int("driver", int(db.Driver())))

	completer, err := llm.New(ctx, cfg.LLM.Provider, llm.OptionsFromConfig(cfg.LLM), logger.Logger, metrics)
	if err != nil {
		db.Close()
		tracer.Close()
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	logger.Info("LLM provider ready", zap.String("provider", completer.Name()))

	index := vector.New(vector.Config{
		BaseURL: cfg.Vector.BaseURL,
		APIKey:  cfg.Vector.APIKey,
		Timeout: cfg.Vector.Timeout,
	}, logger.Logger, metrics)

	analyzer := analysis.NewAnalyzer()
	sessions := session.NewManager(db, session.Options{
		MaxEntries: cfg.Session.CacheSize,
		IdleTTL:    cfg.Session.IdleTTL,
	}, logger.Logger)

	orchestrator := generation.NewOrchestrator(generation.Config{
		TopK:       cfg.Vector.TopK,
		LLMTimeout: cfg.LLM.Timeout,
		Profile:    profile,
	}, generation.Deps{
		Namespace:  ns,
		Index:      index,
		Store:      db,
		LLM:        completer,
		Sessions:   sessions,
		Reconciler: reconcile.New(ns, analyzer, db, logger.Logger),
		Parser:     parser.New(logger.Logger),
		Logger:     logger.Logger,
		Metrics:    metrics,
		Tracer:     tracer,
	})

	ingester := ingest.NewService(db, index, completer, analyzer, ns,
		ingest.Options{BatchSize: cfg.Ingest.BatchSize}, logger.Logger, metrics)

	s := &Server{
		orchestrator: orchestrator,
		ingest:       ingester,
		sessions:     sessions,
		db:           db,
		tracer:       tracer,
		logger:       logger,
		config:       cfg,
		metrics:      metrics,
	}

	s.handlers = api.NewHandlers(api.Deps{
		Generator: orchestrator,
		Searcher:  index,
		Ingester:  ingester,
		Users:     db,
		Catalog:   db,
		Sessions:  sessions,
		NewSource: s.githubSource,
		Metrics:   metrics,
		Logger:    logger.Logger,
		TopK:      cfg.Vector.TopK,
		Version:   Version,
	})
	s.router = s.setupRouter(s.handlers)

	logger.Info("Server initialized successfully")
	return s, nil
}

func (s *Server) setupRouter(handlers *api.Handlers) *gin.Engine {
	if !s.config.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(s.tracer))
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if s.config.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", s.config.RateLimit.RequestsPerSecond),
			zap.Int("burst", s.config.RateLimit.Burst),
		)
		limits := middleware.DefaultRateLimitConfig()
		limits.RequestsPerSecond = s.config.RateLimit.RequestsPerSecond
		limits.Burst = s.config.RateLimit.Burst
		router.Use(middleware.RateLimit(limits))
	}

	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	router.Use(middleware.User())
	handlers.Register(router)

	return router
}

func (s *Server) githubSource(repoURL, token string) (source.Source, error) {
	if token == "" {
		token = s.config.Ingest.GitHubToken
	}
	gh, err := source.NewGitHub(repoURL, source.GitHubOptions{
		APIBase:     s.config.Ingest.GitHubAPI,
		Token:       token,
		MaxFileSize: s.config.Ingest.MaxFileSize,
	}, s.logger.Logger)
	if err != nil {
		return nil, err
	}
	return gh, nil
}

// Router returns the configured gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Ingest returns the ingestion service
func (s *Server) Ingest() *ingest.Service {
	return s.ingest
}

// Logger returns the server logger
func (s *Server) Logger() *logging.Logger {
	return s.logger
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	// Streams submit spans, so they end before the tracer closes
	if err := s.handlers.Drain(ctx); err != nil {
		s.logger.Error("Failed to drain websocket streams", zap.Error(err))
		errs = append(errs, err)
	}
	if err := s.ingest.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to drain ingestion jobs", zap.Error(err))
		errs = append(errs, err)
	}
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close store", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to close store: %w", err))
	}
	s.tracer.Close()

	// Sync logger before exit
	_ = s.logger.Sync()

	return errors.Join(errs...)
}
