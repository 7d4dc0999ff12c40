package run

import "fmt"

// RunNotFoundError means the referenced run directory does not exist.
type RunNotFoundError struct {
	RunID string
}

func (e *RunNotFoundError) Error() string {
	return fmt.Sprintf("run not found: %s", e.RunID)
}

// InvalidRunIDError reports a run id that fails the shape rules.
type InvalidRunIDError struct {
	RunID  string
	Reason string
}

func (e *InvalidRunIDError) Error() string {
	return fmt.Sprintf("invalid run id %q: %s", e.RunID, e.Reason)
}

// ContextNotSetError means no current-run context is active.
type ContextNotSetError struct{}

func (e *ContextNotSetError) Error() string {
	return "no current run context is set"
}

// ContextAlreadySetError means a different run already holds the context.
// The caller must release it explicitly; it is never auto-overridden.
type ContextAlreadySetError struct {
	Existing string
}

func (e *ContextAlreadySetError) Error() string {
	return fmt.Sprintf("current run context already set to %s; release it first", e.Existing)
}

// FileSystemError wraps run-layer filesystem failures.
type FileSystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("filesystem error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error { return e.Err }
