package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ZenCode/backend/internal/api/middleware"
	"github.com/GriffinCanCode/ZenCode/backend/internal/domain/generation"
	"github.com/GriffinCanCode/ZenCode/backend/internal/domain/session"
	"github.com/GriffinCanCode/ZenCode/backend/internal/domain/template"
	"github.com/GriffinCanCode/ZenCode/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ZenCode/backend/internal/providers/source"
	"github.com/GriffinCanCode/ZenCode/backend/internal/providers/store"
	"github.com/GriffinCanCode/ZenCode/backend/internal/providers/vector"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/utils"
)

// maxTopK caps raw vector queries
const maxTopK = 50

// Generator runs the generation pipeline
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (*generation.Response, error)
}

// Searcher runs raw vector queries
type Searcher interface {
	Query(ctx context.Context, namespace, text string, topK int) ([]vector.Match, error)
}

// Ingester starts and reports ingestion jobs
type Ingester interface {
	Start(ctx context.Context, userID string, src source.Source) (*types.IngestJob, error)
	Job(ctx context.Context, jobID string) (*types.IngestJob, error)
}

// Users resolves user records
type Users interface {
	GetOrCreateUser(ctx context.Context, id string) (*types.User, error)
}

// Catalog lists a user's indexed components
type Catalog interface {
	ListComponentPaths(ctx context.Context, userID string) ([]string, error)
}

// SessionStats reports session manager activity
type SessionStats interface {
	Stats() session.Stats
}

// SourceFactory opens a repository source for a training request
type SourceFactory func(repoURL, token string) (source.Source, error)

// Deps are the collaborators behind the handlers
type Deps struct {
	Generator Generator
	Searcher  Searcher
	Ingester  Ingester
	Users     Users
	Catalog   Catalog
	Sessions  SessionStats
	NewSource SourceFactory
	Metrics   *monitoring.Metrics
	Logger    *zap.Logger
	TopK      int
	Version   string
}

// Handlers contains all HTTP handlers
type Handlers struct {
	Deps
	live *liveStreams
}

// NewHandlers creates a new handler set
func NewHandlers(deps Deps) *Handlers {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.TopK <= 0 {
		deps.TopK = 5
	}
	return &Handlers{Deps: deps, live: newLiveStreams()}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.POST("/generate", h.Generate)
	api.GET("/generate/stream", h.Stream)
	api.GET("/components", h.ListComponents)
	api.POST("/components/query", h.QueryComponents)
	api.GET("/template", h.Template)
	api.POST("/train", h.Train)
	api.GET("/train/:id", h.TrainStatus)
	api.GET("/users/me", h.Me)
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "ZenCode Generation Service (Go)",
		"version": h.Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	}
	if h.Sessions != nil {
		body["sessions"] = h.Sessions.Stats()
	}
	c.JSON(http.StatusOK, body)
}

// Generate runs one generation request
func (h *Handlers) Generate(c *gin.Context) {
	var req types.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondKind(c, generation.KindInvalidRequest, err)
		return
	}
	if err := utils.ValidateGenerateRequest(req); err != nil {
		respondKind(c, generation.KindInvalidRequest, err)
		return
	}

	resp, err := h.Generator.Generate(c.Request.Context(), generation.FromAPI(req, middleware.UserID(c)))
	if err != nil {
		h.Logger.Warn("Generation failed",
			zap.String("user_id", middleware.UserID(c)),
			zap.Error(err))
		respondKind(c, generation.KindOf(err), err)
		return
	}

	c.JSON(http.StatusOK, resp.Payload())
}

// ListComponents returns the component paths indexed for the caller
func (h *Handlers) ListComponents(c *gin.Context) {
	paths, err := h.Catalog.ListComponentPaths(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(err.Error(), ""))
		return
	}
	if paths == nil {
		paths = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"components": paths,
	})
}

// QueryComponents runs a raw vector query against the caller's namespace
func (h *Handlers) QueryComponents(c *gin.Context) {
	var req types.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondKind(c, generation.KindInvalidRequest, err)
		return
	}
	if err := utils.ValidateQuery(req.QueryText); err != nil {
		respondKind(c, generation.KindInvalidRequest, err)
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = h.TopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}

	matches, err := h.Searcher.Query(c.Request.Context(), middleware.UserID(c), req.QueryText, topK)
	if err != nil {
		respondKind(c, generation.KindRetrievalFailure, err)
		return
	}
	if matches == nil {
		matches = []vector.Match{}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"matches": matches,
	})
}

// Template returns the React starter template
func (h *Handlers) Template(c *gin.Context) {
	base, err := template.ReactBase()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(err.Error(), ""))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"template": base,
	})
}

// Train starts ingesting a GitHub repository into the caller's namespace
func (h *Handlers) Train(c *gin.Context) {
	var req types.TrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondKind(c, generation.KindInvalidRequest, err)
		return
	}
	if _, _, err := utils.ValidateGitHubURL(req.GitHubURL); err != nil {
		respondKind(c, generation.KindInvalidRequest, err)
		return
	}

	src, err := h.NewSource(req.GitHubURL, req.AccessToken)
	if err != nil {
		respondKind(c, generation.KindInvalidRequest, err)
		return
	}

	job, err := h.Ingester.Start(c.Request.Context(), middleware.UserID(c), src)
	if err != nil {
		h.Logger.Error("Failed to start ingestion", zap.String("source", req.GitHubURL), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, errorBody(err.Error(), ""))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": "accepted",
		"job_id": job.ID,
	})
}

// TrainStatus reports an ingestion job owned by the caller
func (h *Handlers) TrainStatus(c *gin.Context) {
	job, err := h.Ingester.Job(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) || (err == nil && job.UserID != middleware.UserID(c)) {
		c.JSON(http.StatusNotFound, errorBody("job not found", ""))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(err.Error(), ""))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"job":    job,
	})
}

// Me returns the caller's user record, creating it on first sight
func (h *Handlers) Me(c *gin.Context) {
	user, err := h.Users.GetOrCreateUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(err.Error(), ""))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"user":   user,
	})
}
