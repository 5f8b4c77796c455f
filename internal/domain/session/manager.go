package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/ZenCode/backend/internal/providers/store"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/id"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/utils"
)

// Store persists sessions
type Store interface {
	CreateSession(ctx context.Context, s *types.Session) error
	UpdateSession(ctx context.Context, s *types.Session, withCodebase bool) error
	GetSession(ctx context.Context, id string) (*types.Session, error)
}

// Stats summarizes manager activity
type Stats struct {
	Cached        int   `json:"cached"`
	Writes        int64 `json:"writes"`
	SnapshotsSkip int64 `json:"snapshots_skipped"`
	Evicted       int64 `json:"evicted"`
}

// Options bounds the session cache
type Options struct {
	// MaxEntries caps cached sessions; the least recently used goes first
	MaxEntries int
	// IdleTTL is how long an untouched session stays cached
	IdleTTL time.Duration
}

// DefaultOptions returns the cache bounds used by the server
func DefaultOptions() Options {
	return Options{
		MaxEntries: 1024,
		IdleTTL:    30 * time.Minute,
	}
}

// entry is the part of a session Resolve and Update read. Messages and
// codebase snapshots always come from the store.
type entry struct {
	id             string
	userID         string
	codebaseDigest string
	createdAt      time.Time
	lastSeen       time.Time
}

// Manager handles session lifecycle and persistence
type Manager struct {
	store  Store
	hasher *utils.Hasher
	logger *zap.Logger
	opts   Options
	now    func() time.Time

	mu        sync.Mutex
	entries   map[string]*entry
	lastSweep time.Time
	stats     Stats
}

// NewManager creates a new session manager
func NewManager(store Store, opts Options, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultOptions()
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = defaults.MaxEntries
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = defaults.IdleTTL
	}
	return &Manager{
		store:     store,
		hasher:    utils.DefaultHasher(),
		logger:    logger,
		opts:      opts,
		now:       time.Now,
		entries:   make(map[string]*entry),
		lastSweep: time.Now(),
	}
}

// Create starts an empty session owned by userID
func (m *Manager) Create(ctx context.Context, userID string) (string, error) {
	now := time.Now()
	s := &types.Session{
		ID:        id.NewSessionID().String(),
		UserID:    userID,
		Messages:  []types.ChatMessage{},
		Codebase:  []types.FileNode{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.CodebaseDigest = m.hasher.CodebaseDigest(s.Codebase)

	if err := m.store.CreateSession(ctx, s); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	m.remember(s.ID, s.UserID, s.CodebaseDigest, s.CreatedAt)
	m.logger.Debug("Session created",
		zap.String("session_id", s.ID),
		zap.String("user_id", userID))
	return s.ID, nil
}

// Resolve returns sessionID when it names a session owned by userID and
// creates a new session otherwise.
func (m *Manager) Resolve(ctx context.Context, sessionID, userID string) (string, error) {
	if sessionID != "" {
		e, err := m.lookup(ctx, sessionID)
		switch {
		case err == nil && e.userID == userID:
			return e.id, nil
		case err == nil:
			m.logger.Warn("Session belongs to another user, starting a new one",
				zap.String("session_id", sessionID))
		case errors.Is(err, store.ErrNotFound):
			m.logger.Debug("Unknown session id, starting a new one",
				zap.String("session_id", sessionID))
		default:
			return "", err
		}
	}
	return m.Create(ctx, userID)
}

// Get loads a full session from the store
func (m *Manager) Get(ctx context.Context, sessionID string) (*types.Session, error) {
	s, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.CodebaseDigest == "" {
		s.CodebaseDigest = m.hasher.CodebaseDigest(s.Codebase)
	}
	m.remember(s.ID, s.UserID, s.CodebaseDigest, s.CreatedAt)
	return s, nil
}

// Update replaces the messages and codebase of a session. The codebase is
// only rewritten when its digest changed.
func (m *Manager) Update(ctx context.Context, sessionID string, messages []types.ChatMessage, codebase []types.FileNode) error {
	current, err := m.lookup(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	digest := m.hasher.CodebaseDigest(codebase)
	withCodebase := digest != current.codebaseDigest

	next := &types.Session{
		ID:             current.id,
		UserID:         current.userID,
		Messages:       append([]types.ChatMessage(nil), messages...),
		Codebase:       append([]types.FileNode(nil), codebase...),
		CodebaseDigest: digest,
		CreatedAt:      current.createdAt,
		UpdatedAt:      time.Now(),
	}

	if err := m.store.UpdateSession(ctx, next, withCodebase); err != nil {
		return fmt.Errorf("failed to update session %s: %w", sessionID, err)
	}

	m.remember(next.ID, next.UserID, digest, next.CreatedAt)

	m.mu.Lock()
	m.stats.Writes++
	if !withCodebase {
		m.stats.SnapshotsSkip++
	}
	m.mu.Unlock()
	return nil
}

// Forget drops a session from the cache
func (m *Manager) Forget(sessionID string) {
	m.mu.Lock()
	delete(m.entries, sessionID)
	m.mu.Unlock()
}

// lookup returns the cached entry for sessionID, reading the store on a miss
func (m *Manager) lookup(ctx context.Context, sessionID string) (entry, error) {
	m.mu.Lock()
	if e, ok := m.entries[sessionID]; ok {
		e.lastSeen = m.now()
		cp := *e
		m.mu.Unlock()
		return cp, nil
	}
	m.mu.Unlock()

	s, err := m.Get(ctx, sessionID)
	if err != nil {
		return entry{}, err
	}
	return entry{
		id:             s.ID,
		userID:         s.UserID,
		codebaseDigest: s.CodebaseDigest,
		createdAt:      s.CreatedAt,
	}, nil
}

func (m *Manager) remember(sessionID, userID, digest string, createdAt time.Time) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Drop idle sessions at most once per TTL
	if now.Sub(m.lastSweep) > m.opts.IdleTTL {
		for k, e := range m.entries {
			if now.Sub(e.lastSeen) > m.opts.IdleTTL {
				delete(m.entries, k)
				m.stats.Evicted++
			}
		}
		m.lastSweep = now
	}

	if e, ok := m.entries[sessionID]; ok {
		e.userID = userID
		e.codebaseDigest = digest
		e.createdAt = createdAt
		e.lastSeen = now
		return
	}

	for len(m.entries) >= m.opts.MaxEntries {
		m.evictOldest()
	}
	m.entries[sessionID] = &entry{
		id:             sessionID,
		userID:         userID,
		codebaseDigest: digest,
		createdAt:      createdAt,
		lastSeen:       now,
	}
}

// evictOldest removes the least recently used entry; m.mu must be held
func (m *Manager) evictOldest() {
	var (
		oldest string
		seen   time.Time
	)
	for k, e := range m.entries {
		if oldest == "" || e.lastSeen.Before(seen) {
			oldest, seen = k, e.lastSeen
		}
	}
	delete(m.entries, oldest)
	m.stats.Evicted++
}

// Stats returns session statistics
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.Cached = len(m.entries)
	return s
}
