package generation

import (
	"errors"
	"fmt"
)

// Kind classifies a generation failure
type Kind string

const (
	KindInvalidRequest        Kind = "InvalidRequest"
	KindRetrievalFailure      Kind = "RetrievalFailure"
	KindGenerationFailure     Kind = "GenerationFailure"
	KindGenerationTimeout     Kind = "GenerationTimeout"
	KindParseFailure          Kind = "ParseFailure"
	KindReconciliationFailure Kind = "ReconciliationFailure"
	KindPersistenceFailure    Kind = "PersistenceFailure"
)

// Fatal reports whether a failure of this kind aborts the request.
// The other kinds are logged and counted.
func (k Kind) Fatal() bool {
	switch k {
	case KindInvalidRequest, KindRetrievalFailure, KindGenerationFailure, KindGenerationTimeout:
		return true
	}
	return false
}

// Error is a classified generation failure
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of err, or GenerationFailure when err carries none
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindGenerationFailure
}
