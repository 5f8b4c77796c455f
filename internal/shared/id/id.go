// Package id provides centralized ID generation for the backend.
//
// Sessions, requests and ingestion jobs use prefixed ULIDs so that ids sort by
// creation time and read clearly in logs (sess_*, req_*, job_*). User ids are
// UUIDv4 strings because callers may supply their own through X-User-ID.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// SessionID identifies a conversation session
type SessionID string

// RequestID identifies an API request or trace span
type RequestID string

// JobID identifies an ingestion job
type JobID string

// UserID identifies the owner of a component namespace
type UserID string

const (
	SessionPrefix = "sess"
	RequestPrefix = "req"
	JobPrefix     = "job"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewSessionID generates a new session ID
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewJobID generates a new ingestion job ID
func NewJobID() JobID {
	return JobID(Default().GenerateWithPrefix(JobPrefix))
}

// NewUserID generates a random user ID
func NewUserID() UserID {
	return UserID(uuid.New().String())
}

func (id SessionID) String() string { return string(id) }
func (id RequestID) String() string { return string(id) }
func (id JobID) String() string     { return string(id) }
func (id UserID) String() string    { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// HasPrefix checks that id is "<prefix>_<ulid>".
func HasPrefix(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix+"_")
	return ok && IsValid(rest)
}

// IsValidUserID accepts any UUID form understood by google/uuid.
func IsValidUserID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Timestamp extracts the timestamp from a (possibly prefixed) ULID
func Timestamp(id string) (time.Time, error) {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
