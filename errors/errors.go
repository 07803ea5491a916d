package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseEncode   Phase = "encode"   // Value to WitValue
	PhaseDecode   Phase = "decode"   // WitValue to Value
	PhaseBuild    Phase = "build"    // builder contract
	PhaseValidate Phase = "validate" // structural checks
	PhaseLower    Phase = "lower"    // WitValue to linear memory
	PhaseLift     Phase = "lift"     // linear memory to WitValue
	PhaseParse    Phase = "parse"    // value notation
)

// Kind categorizes the error
type Kind string

const (
	KindEmpty          Kind = "empty"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindInvalidData    Kind = "invalid_data"
	KindInvalidUTF8    Kind = "invalid_utf8"
	KindLimitExceeded  Kind = "limit_exceeded"
	KindContract       Kind = "contract"
	KindAllocation     Kind = "allocation"
	KindInvalidVariant Kind = "invalid_variant"
	KindTypeMismatch   Kind = "type_mismatch"
	KindOverflow       Kind = "overflow"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the node path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// NodePath renders node positions as path segments, e.g. node[0].node[3].
func NodePath(positions ...int32) []string {
	path := make([]string, len(positions))
	for i, p := range positions {
		path[i] = "node[" + strconv.FormatInt(int64(p), 10) + "]"
	}
	return path
}

// Convenience constructors for common error patterns

// Empty creates an error for an empty node sequence
func Empty(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindEmpty,
		Detail: "node sequence is empty",
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// BackwardReference creates an error for a child index that does not point forward
func BackwardReference(phase Phase, path []string, parent, child int32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: fmt.Sprintf("node %d references node %d: forward reference violated", parent, child),
		Value:  child,
	}
}

// LimitExceeded creates an error for a depth or size cap being crossed
func LimitExceeded(phase Phase, path []string, what string, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindLimitExceeded,
		Path:   path,
		Detail: fmt.Sprintf("%s exceeds limit %d", what, limit),
		Value:  limit,
	}
}

// Contract creates a builder contract violation error
func Contract(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseBuild,
		Kind:   KindContract,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// InvalidDiscriminant creates an invalid discriminant error for variants
func InvalidDiscriminant(phase Phase, path []string, disc uint32, maxValid uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidVariant,
		Path:   path,
		Detail: fmt.Sprintf("discriminant %d out of range (max %d)", disc, maxValid),
		Value:  disc,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, align uint32, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
		Cause:  cause,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
