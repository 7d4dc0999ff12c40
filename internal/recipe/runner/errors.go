package runner

import "fmt"

// messageStreamLimit caps stdout/stderr excerpts in error text.
const messageStreamLimit = 200

// ExecutionError reports a recipe that started but did not produce a
// usable result. ExitCode is -1 when no exit status applies (output cap,
// evaluation failure).
type ExecutionError struct {
	Recipe   string
	ExitCode int
	Stdout   string
	Stderr   string
	Reason   string
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("recipe %s failed (exit %d): %s", e.Recipe, e.ExitCode, e.Reason)
	if out := truncate(e.Stdout); out != "" {
		msg += "; stdout: " + out
	}
	if errOut := truncate(e.Stderr); errOut != "" {
		msg += "; stderr: " + errOut
	}
	return msg
}

func truncate(s string) string {
	if len(s) > messageStreamLimit {
		return s[:messageStreamLimit] + "..."
	}
	return s
}

// InvalidOutputTargetError means the caller asked for a sink the handler
// does not know.
type InvalidOutputTargetError struct {
	Target string
}

func (e *InvalidOutputTargetError) Error() string {
	return fmt.Sprintf("invalid output target %q (want stdout, file, or clipboard)", e.Target)
}
