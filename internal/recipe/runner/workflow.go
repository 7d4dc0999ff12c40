package runner

import "github.com/google/uuid"

// WorkflowContext carries shared environment between the steps of a
// workflow run. Shared values sit above the project and user env files
// but below explicit CLI overrides.
type WorkflowContext struct {
	ID     string
	Shared map[string]string
}

// NewWorkflowContext starts an empty context with a fresh id.
func NewWorkflowContext() *WorkflowContext {
	return &WorkflowContext{
		ID:     uuid.NewString(),
		Shared: map[string]string{},
	}
}

// Set records a shared variable for subsequent steps.
func (w *WorkflowContext) Set(key, value string) {
	if w.Shared == nil {
		w.Shared = map[string]string{}
	}
	w.Shared[key] = value
}
