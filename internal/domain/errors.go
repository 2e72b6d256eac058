package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for retry and flow-control decisions.
// Kinds are assigned where the failure originates (the broker adapter
// for broker calls); downstream code branches on the kind and never
// inspects message text.
type ErrorKind int

const (
	// KindUnknown is the zero kind; treated as retryable.
	KindUnknown ErrorKind = iota
	// KindDataUnavailable marks missing or insufficient market data.
	// The affected instrument is skipped, the run continues.
	KindDataUnavailable
	// KindRetryable marks transient failures (network, timeouts,
	// temporary broker errors) worth resubmitting.
	KindRetryable
	// KindTerminal marks failures that retrying cannot fix:
	// insufficient balance, invalid quantity, market closed or halted.
	KindTerminal
	// KindAlreadyExecuted marks the monthly idempotency guard firing.
	KindAlreadyExecuted
	// KindPersistence marks best-effort storage failures that must not
	// block trading.
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindDataUnavailable:
		return "data_unavailable"
	case KindRetryable:
		return "retryable"
	case KindTerminal:
		return "terminal"
	case KindAlreadyExecuted:
		return "already_executed"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error is a kind-tagged error. It wraps the underlying cause so
// errors.Is / errors.As keep working through it.
type Error struct {
	Kind ErrorKind
	Op   string // Operation that failed, e.g. "kis.PlaceLimitBuy"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a kind-tagged error around cause.
func NewError(kind ErrorKind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Errorf builds a kind-tagged error from a format string.
func Errorf(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the kind from err, walking the wrap chain.
// Untagged errors report KindUnknown.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether err is worth resubmitting. Untagged
// errors count as retryable so unexpected transport failures still get
// their attempts.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindRetryable, KindUnknown:
		return err != nil
	default:
		return false
	}
}

// IsTerminal reports whether retrying err is pointless.
func IsTerminal(err error) bool { return KindOf(err) == KindTerminal }

// IsDataUnavailable reports whether err marks missing market data.
func IsDataUnavailable(err error) bool { return KindOf(err) == KindDataUnavailable }

// IsAlreadyExecuted reports whether err is the monthly guard firing.
func IsAlreadyExecuted(err error) bool { return KindOf(err) == KindAlreadyExecuted }
