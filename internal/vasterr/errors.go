// Package vasterr defines the transport-independent error taxonomy shared by
// every core component (data model, indices, meta-index, segment store,
// importer). Call sites wrap underlying causes with github.com/pkg/errors in
// the same style the teacher's pamutil package wraps filesystem failures.
package vasterr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error so callers can branch on intent rather than on
// string matching, mirroring grailbio/base/errors' kind tagging.
type Kind int

const (
	// InvalidArgument marks malformed input: a bad expression or a reference
	// to a non-existent column.
	InvalidArgument Kind = iota
	// TypeClash marks a value-index lookup against an incompatible value type.
	TypeClash
	// UnsupportedOperator marks a relational operator that a given index or
	// value variant does not support (e.g. "<" on an address).
	UnsupportedOperator
	// FilesystemError marks an mmap/open/unlink failure.
	FilesystemError
	// FormatError marks a truncated or corrupt chunk encountered on load.
	FormatError
	// MissingComponent marks an importer spawned without a required
	// collaborator (e.g. no consensus handle).
	MissingComponent
	// ParseError marks a malformed persisted available_ids file.
	ParseError
	// Overflow marks an ID range wrapping past the representable range; this
	// is always fatal.
	Overflow
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case TypeClash:
		return "type_clash"
	case UnsupportedOperator:
		return "unsupported_operator"
	case FilesystemError:
		return "filesystem_error"
	case FormatError:
		return "format_error"
	case MissingComponent:
		return "missing_component"
	case ParseError:
		return "parse_error"
	case Overflow:
		return "overflow"
	default:
		return "unknown"
	}
}

// Error is a typed error carrying a Kind and an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// E constructs a new typed error. When cause is non-nil it is wrapped with
// github.com/pkg/errors.Wrap, the same way pamutil wraps filesystem causes
// at its I/O boundaries, so the original stack frame survives underneath the
// Kind classification.
func E(kind Kind, msg string, cause error) *Error {
	if cause != nil {
		cause = errors.Wrap(cause, msg)
	}
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// Is reports whether err is a *Error of the given kind, unwrapping as
// needed.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind == kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
