package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/ZenCode/backend/internal/domain/parser"
	"github.com/GriffinCanCode/ZenCode/backend/internal/domain/prompt"
	"github.com/GriffinCanCode/ZenCode/backend/internal/domain/reconcile"
	"github.com/GriffinCanCode/ZenCode/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ZenCode/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/id"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/paths"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/utils"
)

// Pipeline stages, used for progress events, spans and metrics
const (
	StageSession   = "session"
	StageRetrieve  = "retrieve"
	StageFetch     = "fetch"
	StagePrompt    = "prompt"
	StageComplete  = "complete"
	StageParse     = "parse"
	StageReconcile = "reconcile"
	StagePersist   = "persist"
)

// Request is one generation call
type Request struct {
	Query                string
	UserID               string
	SessionID            string
	Codebase             []types.FileNode
	ForcedComponentPaths []string
	Conversation         []types.ChatMessage
	EnableAISelection    bool

	// OnStage, when set, is called as each stage starts
	OnStage func(stage string)
}

// FromAPI converts a generate request body into a pipeline request
func FromAPI(req types.GenerateRequest, userID string) Request {
	return Request{
		Query:                req.Query,
		UserID:               userID,
		SessionID:            req.SessionID,
		Codebase:             req.Codebase,
		ForcedComponentPaths: req.Components,
		Conversation:         req.Conversation,
		EnableAISelection:    req.AISelection(),
	}
}

// Response is the result of a successful generation
type Response struct {
	SessionID      string
	Result         *types.GenerationResult
	Conversation   []types.ChatMessage
	ComponentsUsed int
	Query          string
}

// Payload converts the response to its wire form
func (r *Response) Payload() types.GenerateResponse {
	return types.GenerateResponse{
		Status:        "success",
		SessionID:     r.SessionID,
		GeneratedCode: r.Result,
		Conversation:  r.Conversation,
		Context: types.GenerateContext{
			ComponentsUsed: r.ComponentsUsed,
			Query:          r.Query,
		},
	}
}

// Config tunes the orchestrator
type Config struct {
	TopK       int
	LLMTimeout time.Duration
	Profile    prompt.Profile
}

// Deps are the collaborators of the orchestrator
type Deps struct {
	Namespace  *paths.Namespace
	Index      VectorIndex
	Store      ComponentStore
	LLM        Completer
	Sessions   Sessions
	Reconciler *reconcile.Reconciler
	Parser     *parser.Parser
	Logger     *zap.Logger
	Metrics    *monitoring.Metrics
	Tracer     *tracing.Tracer
}

// Orchestrator runs the generation pipeline
type Orchestrator struct {
	cfg        Config
	ns         *paths.Namespace
	index      VectorIndex
	store      ComponentStore
	llm        Completer
	sessions   Sessions
	builder    *prompt.Builder
	parser     *parser.Parser
	reconciler *reconcile.Reconciler
	logger     *zap.Logger
	metrics    *monitoring.Metrics
	tracer     *tracing.Tracer
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(cfg Config, deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 120 * time.Second
	}
	if cfg.Profile.SystemPrompt == "" {
		cfg.Profile = prompt.DefaultProfile()
	}
	if deps.Parser == nil {
		deps.Parser = parser.New(deps.Logger)
	}

	return &Orchestrator{
		cfg:        cfg,
		ns:         deps.Namespace,
		index:      deps.Index,
		store:      deps.Store,
		llm:        deps.LLM,
		sessions:   deps.Sessions,
		builder:    prompt.NewBuilder(deps.Namespace),
		parser:     deps.Parser,
		reconciler: deps.Reconciler,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		tracer:     deps.Tracer,
	}
}

// workspace is the caller's codebase split by role
type workspace struct {
	userFiles     []types.FileNode
	internalPaths []string
	manifest      *types.FileNode
}

// retrieval is everything loaded from the index and store
type retrieval struct {
	components   []types.ComponentDescriptor
	manifest     *types.Manifest
	designTokens []types.DesignFile
}

// Generate runs the full pipeline for req
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := o.generate(ctx, req)
	if err != nil {
		o.metrics.RecordGeneration(string(KindOf(err)), 0, 0)
		o.logger.Error("Generation failed",
			append(tracing.Fields(ctx),
				zap.String("user_id", req.UserID),
				zap.String("kind", string(KindOf(err))),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err))...)
		return nil, err
	}

	o.logger.Info("Generation completed",
		append(tracing.Fields(ctx),
			zap.String("session_id", resp.SessionID),
			zap.Int("steps", len(resp.Result.Steps)),
			zap.Int("components_used", resp.ComponentsUsed),
			zap.Duration("duration", time.Since(start)))...)
	return resp, nil
}

func (o *Orchestrator) generate(ctx context.Context, req Request) (*Response, error) {
	if err := validate(req); err != nil {
		return nil, newError(KindInvalidRequest, "validate", err)
	}

	// 1. Session
	o.notify(req, StageSession)
	sessionID := o.resolveSession(ctx, req)

	// 2. Split the codebase
	ws := o.partition(req.Codebase)

	// 3-6. Retrieval
	o.notify(req, StageRetrieve)
	got, err := o.retrieve(ctx, req)
	if err != nil {
		return nil, err
	}

	// 7. Prompt
	o.notify(req, StagePrompt)
	extra := ""
	if len(req.Conversation) == 0 {
		extra = o.cfg.Profile.DesignInstruction
	}
	messages := o.builder.Build(prompt.Input{
		Query:            req.Query,
		Codebase:         ws.userFiles,
		Components:       got.components,
		Conversation:     req.Conversation,
		SystemPrompt:     o.cfg.Profile.SystemPrompt,
		DesignTokens:     got.designTokens,
		Dependencies:     got.manifest,
		ExtraInstruction: extra,
	})

	// 8. Completion
	o.notify(req, StageComplete)
	raw, err := o.complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	// 9. Parse
	o.notify(req, StageParse)
	timer := monitoring.NewTimer(o.metrics, StageParse)
	result, perr := o.parser.Parse(raw)
	timer.StopErr(perr)
	if perr != nil {
		o.degraded(ctx, KindParseFailure, perr)
	}

	// 10. Reconcile
	o.notify(req, StageReconcile)
	reconciled, manifestUpdated := o.reconcile(ctx, req.UserID, result, ws)

	// 11. Conversation
	serialized, err := sonic.MarshalString(result)
	if err != nil {
		serialized = `{"steps":[]}`
		o.degraded(ctx, KindParseFailure, fmt.Errorf("serialize result: %w", err))
	}
	conversation := make([]types.ChatMessage, 0, len(req.Conversation)+2)
	conversation = append(conversation, req.Conversation...)
	conversation = append(conversation,
		types.UserMessage(req.Query),
		types.AssistantMessage(serialized))

	// 12. Persist
	o.notify(req, StagePersist)
	codebase := req.Codebase
	if manifestUpdated {
		codebase = replaceFile(req.Codebase, *ws.manifest)
		o.logger.Info("Generated steps rewrite the manifest",
			zap.String("session_id", sessionID),
			zap.String("path", ws.manifest.FilePath))
	}
	o.persist(ctx, sessionID, conversation, codebase)

	o.metrics.RecordGeneration("success", len(got.components), reconciled)

	return &Response{
		SessionID:      sessionID,
		Result:         result,
		Conversation:   conversation,
		ComponentsUsed: len(got.components),
		Query:          req.Query,
	}, nil
}

func validate(req Request) error {
	if err := utils.ValidateQuery(req.Query); err != nil {
		return err
	}
	if req.UserID == "" {
		return errors.New("user id is required")
	}
	if err := utils.ValidateID(req.SessionID, "session_id", false); err != nil {
		return err
	}
	if err := utils.ValidateCodebase(req.Codebase); err != nil {
		return err
	}
	if err := utils.ValidateComponentPaths(req.ForcedComponentPaths); err != nil {
		return err
	}
	return utils.ValidateConversation(req.Conversation)
}

// resolveSession never fails; an unpersisted id is used when the store is down
func (o *Orchestrator) resolveSession(ctx context.Context, req Request) string {
	var sessionID string
	err := o.tracer.Trace(ctx, "generation."+StageSession, func(ctx context.Context) error {
		timer := monitoring.NewTimer(o.metrics, StageSession)
		var err error
		sessionID, err = o.sessions.Resolve(ctx, req.SessionID, req.UserID)
		timer.StopErr(err)
		return err
	})
	if err != nil {
		o.degraded(ctx, KindPersistenceFailure, err)
		if req.SessionID != "" {
			return req.SessionID
		}
		return id.NewSessionID().String()
	}
	return sessionID
}

func (o *Orchestrator) partition(codebase []types.FileNode) workspace {
	var ws workspace
	for _, f := range codebase {
		p := f.FilePath
		if p == "" {
			p = f.FileName
		}
		if o.ns.IsManifest(p) && ws.manifest == nil {
			m := f
			ws.manifest = &m
		}
		if o.ns.Contains(p) {
			ws.internalPaths = append(ws.internalPaths, p)
			continue
		}
		ws.userFiles = append(ws.userFiles, f)
	}
	return ws
}

func (o *Orchestrator) retrieve(ctx context.Context, req Request) (retrieval, error) {
	var got retrieval

	var candidates []string
	if req.EnableAISelection {
		err := o.tracer.Trace(ctx, "generation."+StageRetrieve, func(ctx context.Context) error {
			timer := monitoring.NewTimer(o.metrics, StageRetrieve)
			var err error
			candidates, err = o.index.QueryIDs(ctx, req.UserID, req.Query, o.cfg.TopK)
			timer.StopErr(err)
			return err
		})
		if err != nil {
			return got, newError(KindRetrievalFailure, "vector query", err)
		}
	}
	candidates = mergePaths(req.ForcedComponentPaths, candidates)

	o.notify(req, StageFetch)
	err := o.tracer.Trace(ctx, "generation."+StageFetch, func(ctx context.Context) error {
		timer := monitoring.NewTimer(o.metrics, StageFetch)
		g, gctx := errgroup.WithContext(ctx)

		if len(candidates) > 0 {
			g.Go(func() error {
				components, err := o.store.FetchByPaths(gctx, req.UserID, candidates)
				if err != nil {
					return newError(KindRetrievalFailure, "fetch components", err)
				}
				got.components = components
				return nil
			})
		}

		g.Go(func() error {
			manifest, tokens, err := o.store.FetchManifestAndDesignTokens(gctx, req.UserID)
			if err != nil {
				return newError(KindRetrievalFailure, "fetch design tokens", err)
			}
			got.manifest = manifest
			got.designTokens = tokens
			return nil
		})

		err := g.Wait()
		timer.StopErr(err)
		return err
	})
	return got, err
}

func (o *Orchestrator) complete(ctx context.Context, messages []types.ChatMessage) (string, error) {
	var raw string
	err := o.tracer.Trace(ctx, "generation."+StageComplete, func(ctx context.Context) error {
		timer := monitoring.NewTimer(o.metrics, StageComplete)
		cctx, cancel := context.WithTimeout(ctx, o.cfg.LLMTimeout)
		defer cancel()

		var err error
		raw, err = o.llm.Complete(cctx, messages)
		switch {
		case err == nil:
			timer.Stop("success")
			return nil
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(cctx.Err(), context.DeadlineExceeded):
			timer.Stop("timeout")
			return newError(KindGenerationTimeout, "complete", fmt.Errorf("no completion within %s: %w", o.cfg.LLMTimeout, err))
		default:
			timer.Stop("error")
			return newError(KindGenerationFailure, "complete", err)
		}
	})
	return raw, err
}

// reconcile appends backfilled steps to result. It reports how many were
// added and whether a step rewrote ws.manifest.
func (o *Orchestrator) reconcile(ctx context.Context, userID string, result *types.GenerationResult, ws workspace) (int, bool) {
	if o.reconciler == nil || len(result.Steps) == 0 {
		return 0, false
	}

	var res reconcile.Result
	err := o.tracer.Trace(ctx, "generation."+StageReconcile, func(ctx context.Context) error {
		timer := monitoring.NewTimer(o.metrics, StageReconcile)
		var err error
		res, err = o.reconciler.Reconcile(ctx, result.Steps, ws.internalPaths, ws.manifest, userID)
		timer.StopErr(err)
		return err
	})
	if err != nil {
		o.degraded(ctx, KindReconciliationFailure, err)
	}

	result.Steps = append(result.Steps, res.Steps...)
	return len(res.Steps), res.ManifestUpdated && ws.manifest != nil
}

// replaceFile returns a copy of codebase with the node at f's path swapped for f
func replaceFile(codebase []types.FileNode, f types.FileNode) []types.FileNode {
	out := make([]types.FileNode, len(codebase))
	copy(out, codebase)
	for i, n := range out {
		if n.FilePath == f.FilePath && n.FileName == f.FileName {
			out[i] = f
			break
		}
	}
	return out
}

func (o *Orchestrator) persist(ctx context.Context, sessionID string, conversation []types.ChatMessage, codebase []types.FileNode) {
	err := o.tracer.Trace(ctx, "generation."+StagePersist, func(ctx context.Context) error {
		timer := monitoring.NewTimer(o.metrics, StagePersist)
		err := o.sessions.Update(ctx, sessionID, conversation, codebase)
		timer.StopErr(err)
		return err
	})
	if err != nil {
		o.degraded(ctx, KindPersistenceFailure, err)
	}
}

func (o *Orchestrator) degraded(ctx context.Context, kind Kind, err error) {
	o.metrics.RecordDegraded(string(kind))
	o.logger.Warn("Generation degraded",
		append(tracing.Fields(ctx),
			zap.String("kind", string(kind)),
			zap.Error(err))...)
}

func (o *Orchestrator) notify(req Request, stage string) {
	if req.OnStage != nil {
		req.OnStage(stage)
	}
}

// mergePaths joins forced and retrieved paths, forced first, without repeats
func mergePaths(forced, retrieved []string) []string {
	seen := make(map[string]struct{}, len(forced)+len(retrieved))
	out := make([]string, 0, len(forced)+len(retrieved))
	for _, list := range [][]string{forced, retrieved} {
		for _, p := range list {
			p = paths.Clean(p)
			if p == "" || p == "." {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
