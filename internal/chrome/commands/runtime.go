package commands

import (
	"context"

	"github.com/frago-dev/frago/internal/chrome/cdp"
)

// Runtime wraps Runtime.evaluate.
type Runtime struct {
	C Caller
}

// EvaluateOptions control result unwrapping. The zero value matches the
// common case: return the value by JSON, awaiting promises.
type EvaluateOptions struct {
	ReturnByValue bool
	AwaitPromise  bool
}

// Evaluate runs expr in the page. With ReturnByValue the unwrapped
// result.result.value is returned; otherwise the raw remote-object envelope.
func (r Runtime) Evaluate(ctx context.Context, expr string, opts EvaluateOptions) (any, error) {
	resp, err := r.C.Call(ctx, "Runtime.evaluate", map[string]any{
		"expression":    expr,
		"returnByValue": opts.ReturnByValue,
		"awaitPromise":  opts.AwaitPromise,
	})
	if err != nil {
		return nil, err
	}
	res := result(resp)
	if exc, ok := res["exceptionDetails"].(map[string]any); ok {
		msg, _ := exc["text"].(string)
		if excObj, ok := exc["exception"].(map[string]any); ok {
			if desc, ok := excObj["description"].(string); ok && desc != "" {
				msg = desc
			}
		}
		return nil, &cdp.CDPError{Method: "Runtime.evaluate", Message: msg}
	}
	remote, _ := res["result"].(map[string]any)
	if !opts.ReturnByValue {
		return remote, nil
	}
	return remote["value"], nil
}

// EvaluateValue is Evaluate with returnByValue and awaitPromise on.
func (r Runtime) EvaluateValue(ctx context.Context, expr string) (any, error) {
	return r.Evaluate(ctx, expr, EvaluateOptions{ReturnByValue: true, AwaitPromise: true})
}
