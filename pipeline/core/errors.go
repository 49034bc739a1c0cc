package core

import (
	"errors"
	"fmt"
)

var (
	// ErrVariantNotFound is returned when a variant name was never registered.
	ErrVariantNotFound = errors.New("variant not found")
	// ErrBuildAborted marks builds skipped because the batch was cancelled.
	ErrBuildAborted = errors.New("build aborted")
)

// SourceError reports malformed or uncompilable shader source. It aborts only
// the artifact it belongs to, never the batch.
type SourceError struct {
	// Logical name of the shader source.
	Name string
	// 1-based position inside the source, 0 when the compiler gave none.
	Line   int
	Column int
	Detail string
}

func (e *SourceError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("shader '%s' %d:%d: %s", e.Name, e.Line, e.Column, e.Detail)
	}
	if e.Line > 0 {
		return fmt.Sprintf("shader '%s' line %d: %s", e.Name, e.Line, e.Detail)
	}
	return fmt.Sprintf("shader '%s': %s", e.Name, e.Detail)
}

// ContractViolationError reports a descriptor binding disagreement between the
// two halves of a variant pair. A failed registration is a no-op against the
// catalog; the prior pair under that name stays in force.
type ContractViolationError struct {
	Variant string
	Set     uint32
	Binding uint32
	Detail  string
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("variant '%s' (set=%d, binding=%d): %s", e.Variant, e.Set, e.Binding, e.Detail)
}

// ExternalToolError wraps failures of the underlying compiler process itself:
// missing binary, crash or timeout. Fatal for the single artifact, not the batch.
type ExternalToolError struct {
	Tool   string
	Detail string
	Err    error
}

func (e *ExternalToolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Tool, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Tool, e.Detail)
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}
