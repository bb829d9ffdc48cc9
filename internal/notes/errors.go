package notes

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can tell local precondition
// violations from backend failures.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindBackend
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBackend:
		return "backend"
	default:
		return "unknown"
	}
}

var (
	// ErrIDRequired is returned when an update or delete has no note id.
	ErrIDRequired = errors.New("id required")
	// ErrUnknownNote is returned when an edit targets a note that is not loaded.
	ErrUnknownNote = errors.New("note not found in session")
)

// Error is a tagged failure from the store or the session.
type Error struct {
	Kind Kind
	Op   string // list, create, update, delete, load, save
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation wraps err as a KindValidation error for op.
func Validation(op string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

// Backend wraps err as a KindBackend error for op.
func Backend(op string, err error) *Error {
	return &Error{Kind: KindBackend, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }

func IsBackend(err error) bool { return KindOf(err) == KindBackend }
