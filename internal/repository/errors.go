package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// Kind classifies store failures the way callers branch on them.
type Kind string

const (
	KindPermissionDenied   Kind = "permission-denied"
	KindPreconditionFailed Kind = "failed-precondition"
	KindNotFound           Kind = "not-found"
	KindConflict           Kind = "conflict"
	KindWriteFailed        Kind = "write-failed"
	KindReadFailed         Kind = "read-failed"
)

// Error carries the classified kind alongside the store error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the classified kind, defaulting to write-failed.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindWriteFailed
}

var ErrConflict = errors.New("status changed concurrently")

// classify maps raw store errors onto the failure taxonomy. MySQL privilege
// errors become permission-denied; missing tables or keys surface as
// failed-precondition (schema or index not ready yet).
func classify(err error, fallback Kind) Kind {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return KindNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1044, 1045, 1142, 1143, 1227:
			return KindPermissionDenied
		case 1146, 1176:
			return KindPreconditionFailed
		}
	}
	return fallback
}

func writeErr(op string, err error) error {
	return &Error{Kind: classify(err, KindWriteFailed), Op: op, Err: err}
}

func readErr(op string, err error) error {
	return &Error{Kind: classify(err, KindReadFailed), Op: op, Err: err}
}

// streamMessage renders the human-readable classification handed to
// subscription error callbacks.
func streamMessage(err error) string {
	kind := classify(err, KindReadFailed)
	var re *Error
	if errors.As(err, &re) {
		kind = re.Kind
	}
	switch kind {
	case KindPreconditionFailed:
		return "Database indexes are being created. Please wait a moment and refresh."
	case KindPermissionDenied:
		return "Permission denied. Please check access rules."
	default:
		return "Failed to load live updates."
	}
}
