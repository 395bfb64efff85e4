package baf

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies every failure a build can produce. The set is closed: all
// errors returned from Build and the loaders are a *Error with one of these
// kinds.
type Kind int

const (
	// ParseError reports a malformed source file in a loader.
	ParseError Kind = iota
	// MissingField reports a required field with no input, setter, or default.
	MissingField
	// TypeMismatch reports a value whose variant or numeric range is
	// incompatible with the target codec.
	TypeMismatch
	// ValidationError reports a rejection from a field's Preprocess hook, a
	// BytesN payload of the wrong length, or an absent array element.
	ValidationError
	// ArrayLengthMismatch reports a fixed-count array that received the
	// wrong number of elements.
	ArrayLengthMismatch
	// CyclicDependency reports a scheduler pass that made no progress while
	// work remained.
	CyclicDependency
	// FileNotFound reports a File field whose path does not exist.
	FileNotFound
	// IOError reports any other I/O failure while reading input.
	IOError
	// SetterError wraps an error raised by a user setter.
	SetterError
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "ParseError"
	case MissingField:
		return "MissingField"
	case TypeMismatch:
		return "TypeMismatch"
	case ValidationError:
		return "ValidationError"
	case ArrayLengthMismatch:
		return "ArrayLengthMismatch"
	case CyclicDependency:
		return "CyclicDependency"
	case FileNotFound:
		return "FileNotFound"
	case IOError:
		return "IOError"
	case SetterError:
		return "SetterError"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the failure type for the whole build pipeline. Trail is the
// breadcrumb through the datum tree, outermost block first; each entry is of
// the form "BlockName -> field: TypeName" or "Array[Elem] -> (element k)".
type Error struct {
	Kind    Kind
	Message string
	Trail   []string
	Cause   error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	for _, seg := range e.Trail {
		sb.WriteString("\n  at ")
		sb.WriteString(seg)
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// trace prepends a breadcrumb segment to err on its way up the datum tree.
// Pending signals pass through untouched; they are control flow, not failures.
func trace(err error, segment string) error {
	if err == nil || isPending(err) {
		return err
	}
	var be *Error
	if !errors.As(err, &be) {
		be = &Error{Kind: SetterError, Message: err.Error(), Cause: err}
	}
	be.Trail = append([]string{segment}, be.Trail...)
	return be
}

// pendingError signals that a datum cannot resolve yet because the target's
// size or offset is still unknown. The scheduler retries the datum on the
// next pass. agg marks a container that is merely waiting on its own
// children, so it is not recorded as a stalled leaf.
type pendingError struct {
	target string
	agg    bool
}

func (e *pendingError) Error() string { return "pending on " + e.target }

func pendingOn(target string) error { return &pendingError{target: target} }

func childrenPending(path string) error { return &pendingError{target: path, agg: true} }

// IsPending reports whether err is the scheduler's deferral signal. Setters
// that wrap errors from Ref lookups can use it to tell deferrals from real
// failures.
func IsPending(err error) bool { return isPending(err) }

func isPending(err error) bool {
	var p *pendingError
	return errors.As(err, &p)
}

func isChildrenPending(err error) bool {
	var p *pendingError
	return errors.As(err, &p) && p.agg
}

func pendingTarget(err error) string {
	var p *pendingError
	if errors.As(err, &p) {
		return p.target
	}
	return "unknown"
}
