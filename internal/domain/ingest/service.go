package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/ZenCode/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ZenCode/backend/internal/providers/source"
	"github.com/GriffinCanCode/ZenCode/backend/internal/providers/vector"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/id"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/paths"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
)

// DefaultBatchSize is the number of components described per model call
const DefaultBatchSize = 10

// ErrShuttingDown is returned by Start after Shutdown began
var ErrShuttingDown = errors.New("ingest service is shutting down")

// Store persists jobs and indexed artifacts
type Store interface {
	CreateJob(ctx context.Context, job *types.IngestJob) error
	UpdateJob(ctx context.Context, job *types.IngestJob) error
	GetJob(ctx context.Context, id string) (*types.IngestJob, error)
	UpsertComponents(ctx context.Context, userID string, components []types.ComponentDescriptor) error
	ListComponentPaths(ctx context.Context, userID string) ([]string, error)
	DeleteComponents(ctx context.Context, userID string, paths []string) error
	SaveDesignFiles(ctx context.Context, userID string, files []types.DesignFile) error
	SaveManifest(ctx context.Context, userID string, m *types.Manifest) error
}

// Indexer stores embeddable records
type Indexer interface {
	Upsert(ctx context.Context, namespace string, records []vector.Record) error
	Delete(ctx context.Context, namespace string, ids []string) error
}

// Completer produces a completion for a message list
type Completer interface {
	Complete(ctx context.Context, messages []types.ChatMessage) (string, error)
}

// Analyzer extracts import identifiers from source code
type Analyzer interface {
	Parse(ctx context.Context, code string) ([]string, error)
}

// Options tunes a Service
type Options struct {
	BatchSize int
}

// Service runs ingestion jobs
type Service struct {
	store     Store
	index     Indexer
	llm       Completer
	analyzer  Analyzer
	ns        *paths.Namespace
	batchSize int
	logger    *zap.Logger
	metrics   *monitoring.Metrics

	mu       sync.Mutex
	closing  bool
	wg       sync.WaitGroup
	baseCtx  context.Context
	cancelFn context.CancelFunc
}

// NewService creates an ingestion service
func NewService(store Store, index Indexer, llm Completer, analyzer Analyzer, ns *paths.Namespace, opts Options, logger *zap.Logger, metrics *monitoring.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		store:     store,
		index:     index,
		llm:       llm,
		analyzer:  analyzer,
		ns:        ns,
		batchSize: opts.BatchSize,
		logger:    logger,
		metrics:   metrics,
		baseCtx:   ctx,
		cancelFn:  cancel,
	}
}

// DesignNamespace is the vector namespace holding a user's design summaries
func DesignNamespace(userID string) string {
	return userID + "-design"
}

// Start records a new job for userID and runs it in the background
func (s *Service) Start(ctx context.Context, userID string, src source.Source) (*types.IngestJob, error) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return nil, ErrShuttingDown
	}
	s.wg.Add(1)
	s.mu.Unlock()

	job, err := s.create(ctx, userID, src)
	if err != nil {
		s.wg.Done()
		return nil, err
	}

	snapshot := *job
	go func() {
		defer s.wg.Done()
		s.execute(s.baseCtx, job, src)
	}()
	return &snapshot, nil
}

// Run executes a job synchronously and returns its final state
func (s *Service) Run(ctx context.Context, userID string, src source.Source) (*types.IngestJob, error) {
	job, err := s.create(ctx, userID, src)
	if err != nil {
		return nil, err
	}
	s.execute(ctx, job, src)
	if job.Status == types.JobError {
		return job, errors.New(job.Error)
	}
	return job, nil
}

// Job returns the current state of a job
func (s *Service) Job(ctx context.Context, jobID string) (*types.IngestJob, error) {
	return s.store.GetJob(ctx, jobID)
}

// Shutdown cancels running jobs and waits for them to record their outcome
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	s.cancelFn()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) create(ctx context.Context, userID string, src source.Source) (*types.IngestJob, error) {
	job := &types.IngestJob{
		ID:        id.NewJobID().String(),
		UserID:    userID,
		Source:    src.Name(),
		Status:    types.JobInProgress,
		StartedAt: time.Now(),
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to record job: %w", err)
	}
	s.metrics.IngestStarted()
	s.logger.Info("Ingestion started",
		zap.String("job_id", job.ID),
		zap.String("user_id", userID),
		zap.String("source", job.Source))
	return job, nil
}

// execute runs the pipeline and records the terminal state
func (s *Service) execute(ctx context.Context, job *types.IngestJob, src source.Source) {
	start := time.Now()
	err := s.ingest(ctx, job, src)

	next := types.JobCompleted
	if err != nil {
		next = types.JobError
	}
	if terr := job.Transition(next, err); terr != nil {
		s.logger.Error("Invalid job transition", zap.String("job_id", job.ID), zap.Error(terr))
		return
	}

	// The job outcome is written even when ctx was cancelled
	uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if uerr := s.store.UpdateJob(uctx, job); uerr != nil {
		s.logger.Error("Failed to record job outcome", zap.String("job_id", job.ID), zap.Error(uerr))
	}

	s.metrics.IngestFinished(string(job.Status), job.Components, job.DesignFile)

	fields := []zap.Field{
		zap.String("job_id", job.ID),
		zap.String("status", string(job.Status)),
		zap.Int("components", job.Components),
		zap.Int("design_files", job.DesignFile),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		s.logger.Error("Ingestion failed", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Info("Ingestion completed", fields...)
}

// repository is a listed source split by role
type repository struct {
	styles     []types.FileNode
	manifest   *types.FileNode
	components []types.FileNode
}

func (s *Service) classify(files []types.FileNode) repository {
	var repo repository
	for i := range files {
		f := files[i]
		p := paths.Clean(f.FilePath)
		switch {
		case strings.HasSuffix(p, ".css"):
			repo.styles = append(repo.styles, f)
		case s.ns.IsManifest(p):
			// Prefer the manifest closest to the repository root
			if repo.manifest == nil || depth(p) < depth(repo.manifest.FilePath) {
				repo.manifest = &files[i]
			}
		case s.ns.Contains(p) && paths.HasSourceExtension(p) && strings.TrimSpace(f.FileContent) != "":
			repo.components = append(repo.components, f)
		}
	}
	return repo
}

func (s *Service) ingest(ctx context.Context, job *types.IngestJob, src source.Source) error {
	files, err := src.List(ctx)
	if err != nil {
		return fmt.Errorf("list %s: %w", src.Name(), err)
	}
	repo := s.classify(files)

	s.logger.Debug("Repository classified",
		zap.String("job_id", job.ID),
		zap.Int("files", len(files)),
		zap.Int("styles", len(repo.styles)),
		zap.Int("components", len(repo.components)))

	if err := s.ingestDesign(ctx, job.UserID, repo); err != nil {
		return err
	}
	job.DesignFile = len(repo.styles)

	count, err := s.ingestComponents(ctx, job.UserID, repo.components)
	if err != nil {
		return err
	}
	job.Components = count

	return s.prune(ctx, job.UserID, repo.components)
}

// prune drops components indexed by an earlier run that the repository no
// longer contains
func (s *Service) prune(ctx context.Context, userID string, current []types.FileNode) error {
	previous, err := s.store.ListComponentPaths(ctx, userID)
	if err != nil {
		return fmt.Errorf("list components: %w", err)
	}

	keep := make(map[string]bool, len(current))
	for _, f := range current {
		keep[f.FilePath] = true
	}
	var stale []string
	for _, p := range previous {
		if !keep[p] {
			stale = append(stale, p)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	s.logger.Info("Pruning stale components", zap.String("user_id", userID), zap.Int("count", len(stale)))
	if err := s.index.Delete(ctx, userID, stale); err != nil {
		return fmt.Errorf("unindex stale components: %w", err)
	}
	if err := s.store.DeleteComponents(ctx, userID, stale); err != nil {
		return err
	}
	return nil
}

func (s *Service) ingestDesign(ctx context.Context, userID string, repo repository) error {
	designFiles := make([]types.DesignFile, 0, len(repo.styles))
	records := make([]vector.Record, 0, len(repo.styles)+1)

	for _, f := range repo.styles {
		designFiles = append(designFiles, types.DesignFile{Path: f.FilePath, Content: f.FileContent})

		summary := ParseCSS(f.FilePath, f.FileContent)
		records = append(records, vector.Record{
			ID:   f.FilePath,
			Text: summary.Text(),
			Fields: map[string]string{
				"file_type":  "css",
				"file_path":  f.FilePath,
				"classes":    strconv.Itoa(len(summary.Classes)),
				"properties": strconv.Itoa(len(summary.CustomProperties)),
			},
		})
	}

	if err := s.store.SaveDesignFiles(ctx, userID, designFiles); err != nil {
		return fmt.Errorf("save design files: %w", err)
	}

	if repo.manifest != nil {
		manifest, err := ParseManifest(repo.manifest.FilePath, repo.manifest.FileContent)
		if err != nil {
			s.logger.Warn("Skipping invalid manifest", zap.Error(err))
		} else {
			if err := s.store.SaveManifest(ctx, userID, manifest); err != nil {
				return fmt.Errorf("save manifest: %w", err)
			}
			records = append(records, vector.Record{
				ID:   manifest.Path,
				Text: manifestText(manifest),
				Fields: map[string]string{
					"file_type": "package.json",
					"file_path": manifest.Path,
				},
			})
		}
	}

	if len(records) == 0 {
		return nil
	}
	if err := s.index.Upsert(ctx, DesignNamespace(userID), records); err != nil {
		return fmt.Errorf("index design files: %w", err)
	}
	return nil
}

func (s *Service) ingestComponents(ctx context.Context, userID string, files []types.FileNode) (int, error) {
	if len(files) == 0 {
		return 0, nil
	}
	sort.Slice(files, func(i, j int) bool { return files[i].FilePath < files[j].FilePath })

	components := make([]types.ComponentDescriptor, 0, len(files))
	for i := 0; i < len(files); i += s.batchSize {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		end := i + s.batchSize
		if end > len(files) {
			end = len(files)
		}
		s.logger.Debug("Describing component batch",
			zap.Int("batch", i/s.batchSize+1),
			zap.Int("size", end-i))
		components = append(components, s.describeBatch(ctx, files[i:end])...)
	}

	for i := range components {
		imports, err := s.analyzer.Parse(ctx, components[i].Code)
		if err != nil {
			s.logger.Debug("No imports for component",
				zap.String("path", components[i].Path),
				zap.Error(err))
			continue
		}
		components[i].Dependencies = imports
	}

	if err := s.store.UpsertComponents(ctx, userID, components); err != nil {
		return 0, fmt.Errorf("save components: %w", err)
	}

	records := make([]vector.Record, len(components))
	for i, c := range components {
		records[i] = vector.Record{
			ID:   c.Path,
			Text: componentText(c),
			Fields: map[string]string{
				"name": c.Name,
				"path": c.Path,
			},
		}
	}
	if err := s.index.Upsert(ctx, userID, records); err != nil {
		return 0, fmt.Errorf("index components: %w", err)
	}
	return len(components), nil
}

func depth(p string) int {
	return strings.Count(paths.Clean(p), "/")
}
