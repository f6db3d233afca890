// Package errs classifies the failures of a resource invocation so that callers
// can tell fatal configuration problems apart from per-item failures that are
// logged and absorbed.
package errs

import (
	"errors"
	"fmt"
)

// Kind is the class of a failure.
type Kind int

const (
	// KindConfiguration is a missing or invalid source/params field or build
	// identity value. It aborts the invocation before any transfer begins.
	KindConfiguration Kind = iota + 1
	// KindEnumeration is a single glob entry that could not be resolved.
	KindEnumeration
	// KindTransfer is a failed list/get/put call or a local file I/O failure.
	KindTransfer
	// KindJoin is a task that could not be driven to completion.
	KindJoin
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindEnumeration:
		return "enumeration"
	case KindTransfer:
		return "transfer"
	case KindJoin:
		return "join"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Item identifies the file or object the
// failure relates to, if any.
type Error struct {
	Kind Kind
	Op   string
	Item string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Item != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Kind, e.Op, e.Item, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error.
func New(kind Kind, op, item string, err error) *Error {
	return &Error{Kind: kind, Op: op, Item: item, Err: err}
}

// Configuration creates a configuration error from a message.
func Configuration(op, format string, args ...any) *Error {
	return New(KindConfiguration, op, "", fmt.Errorf(format, args...))
}

// Transfer creates a transfer error for item.
func Transfer(op, item string, err error) *Error {
	return New(KindTransfer, op, item, err)
}

// Join creates a join error for item.
func Join(op, item string, err error) *Error {
	return New(KindJoin, op, item, err)
}

// KindOf returns the kind of the first classified error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err's chain holds a classified error of kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsFatal reports whether err must abort the invocation.
func IsFatal(err error) bool {
	return IsKind(err, KindConfiguration)
}
