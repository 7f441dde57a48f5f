// Package errors defines the pipeline's error taxonomy. Every constructor
// attaches a stack trace via cockroachdb/errors so log lines can carry it.
package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	// ErrObjectNotFound matches a missing bucket or key.
	ErrObjectNotFound = errors.New("object not found")
	// ErrTransport matches network, auth and other object-store client failures.
	ErrTransport = errors.New("object store transport failure")
	// ErrInvalidArgument matches a rejected object-store call argument.
	ErrInvalidArgument = errors.New("invalid argument")

	ErrEmptyData       = errors.New("empty data")
	ErrLengthMismatch  = errors.New("length mismatch")
	ErrTableNotEnsured = errors.New("destination table not ensured")
	// ErrIncompleteLoad is reported when some prediction batches were not written.
	ErrIncompleteLoad = errors.New("load incomplete")
)

// StoreErrorKind classifies object-store failures.
type StoreErrorKind int

const (
	NotFound StoreErrorKind = iota
	Transport
	InvalidArgument
)

func (k StoreErrorKind) String() string {
	switch k {
	case NotFound:
		return "NotFound"
	case Transport:
		return "TransportError"
	case InvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

// ObjectStoreError is returned by object-store gateways.
type ObjectStoreError struct {
	Kind   StoreErrorKind
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *ObjectStoreError) Error() string {
	return fmt.Sprintf("objectstore: %s %s/%s: %s: %v", e.Op, e.Bucket, e.Key, e.Kind, e.Err)
}

func (e *ObjectStoreError) Unwrap() error { return e.Err }

// Is lets errors.Is match the kind sentinels.
func (e *ObjectStoreError) Is(target error) bool {
	switch target {
	case ErrObjectNotFound:
		return e.Kind == NotFound
	case ErrTransport:
		return e.Kind == Transport
	case ErrInvalidArgument:
		return e.Kind == InvalidArgument
	}
	return false
}

func NewObjectStoreError(kind StoreErrorKind, op, bucket, key string, err error) error {
	return errors.WithStack(&ObjectStoreError{Kind: kind, Op: op, Bucket: bucket, Key: key, Err: err})
}

// ExtractionError aborts a run during the Extract stage.
type ExtractionError struct {
	Op  string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract: %s: %v", e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func NewExtractionError(op string, err error) error {
	return errors.WithStack(&ExtractionError{Op: op, Err: err})
}

// TrainingError reports malformed training input or a failed transform step.
type TrainingError struct {
	Op  string
	Err error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("transform: %s: %v", e.Op, e.Err)
}

func (e *TrainingError) Unwrap() error { return e.Err }

func NewTrainingError(op string, err error) error {
	return errors.WithStack(&TrainingError{Op: op, Err: err})
}

// PersistenceError describes a failed write. Batch is -1 when the failure is
// not tied to a batch (table creation).
type PersistenceError struct {
	Op       string
	Batch    int
	FirstRow int
	LastRow  int
	Err      error
}

func (e *PersistenceError) Error() string {
	if e.Batch < 0 {
		return fmt.Sprintf("load: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("load: %s: batch %d (rows %d-%d): %v", e.Op, e.Batch+1, e.FirstRow, e.LastRow, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func NewPersistenceError(op string, batch, firstRow, lastRow int, err error) error {
	return errors.WithStack(&PersistenceError{Op: op, Batch: batch, FirstRow: firstRow, LastRow: lastRow, Err: err})
}

// ConfigurationError lists every required setting that was missing or
// malformed at startup.
type ConfigurationError struct {
	Missing []string
	Invalid map[string]string
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required settings: "+strings.Join(e.Missing, ", "))
	}
	for k, reason := range e.Invalid {
		parts = append(parts, fmt.Sprintf("%s: %s", k, reason))
	}
	return "config: " + strings.Join(parts, "; ")
}

func NewConfigurationError(missing []string, invalid map[string]string) error {
	return errors.WithStack(&ConfigurationError{Missing: missing, Invalid: invalid})
}

// ValidationError rejects a single parameter or data value.
type ValidationError struct {
	Field  string
	Reason string
	Value  interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s (got: %v)", e.Field, e.Reason, e.Value)
}

func NewValidationError(field, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{Field: field, Reason: reason, Value: value})
}

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// Stacktrace returns the first safe detail recorded by WithStack, if any.
func Stacktrace(err error) string {
	details := errors.GetSafeDetails(err).SafeDetails
	if len(details) > 0 {
		return details[0]
	}
	return ""
}
