package fallible

import (
	"errors"
	"fmt"
)

// Kind classifies an allocation failure.
type Kind int

const (
	// LayoutError means the requested size/alignment combination is invalid:
	// the array size overflowed, the alignment is not a power of two, or the
	// element type cannot live in manually managed memory.
	LayoutError Kind = iota
	// FailedAllocation means the allocator returned nil: out of memory or an
	// allocator-imposed limit.
	FailedAllocation
)

// String returns the fixed text used when rendering an AllocError.
func (k Kind) String() string {
	switch k {
	case LayoutError:
		return "layouts error"
	case FailedAllocation:
		return "failed allocation"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// AllocError is the error returned by every fallible operation in this
// package. It is immutable once constructed.
type AllocError struct {
	kind    Kind
	message string
}

// Sentinels for errors.Is. Matching is by kind only.
var (
	ErrLayout           = &AllocError{kind: LayoutError, message: "invalid layout"}
	ErrFailedAllocation = &AllocError{kind: FailedAllocation, message: "allocator returned nil"}
)

// NewError creates an AllocError of the given kind.
func NewError(message string, kind Kind) *AllocError {
	return &AllocError{kind: kind, message: message}
}

// Kind returns the error kind.
func (e *AllocError) Kind() Kind { return e.kind }

// Message returns the reason text.
func (e *AllocError) Message() string { return e.message }

// Error renders the kind and the message.
func (e *AllocError) Error() string {
	return fmt.Sprintf("error caused by %s, reason: %s", e.kind, e.message)
}

// Is reports whether target is an *AllocError of the same kind.
func (e *AllocError) Is(target error) bool {
	t, ok := target.(*AllocError)
	return ok && t.kind == e.kind
}

// IsLayoutError reports whether err (or anything it wraps) is a LayoutError.
func IsLayoutError(err error) bool {
	return hasKind(err, LayoutError)
}

// IsFailedAllocation reports whether err (or anything it wraps) is a
// FailedAllocation.
func IsFailedAllocation(err error) bool {
	return hasKind(err, FailedAllocation)
}

func hasKind(err error, kind Kind) bool {
	var ae *AllocError
	return errors.As(err, &ae) && ae.kind == kind
}

func newLayoutError(format string, args ...any) *AllocError {
	return NewError("invalid parameters to layout: "+fmt.Sprintf(format, args...), LayoutError)
}

func newValueAllocError() *AllocError {
	return NewError("Failed to allocate a value", FailedAllocation)
}

func newArrayAllocError(count int) *AllocError {
	return NewError(fmt.Sprintf("Failed to allocate an array with size = %d", count), FailedAllocation)
}
