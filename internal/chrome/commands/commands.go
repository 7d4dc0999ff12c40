// Package commands is a small typed vocabulary over the CDP session: each
// group wraps specific protocol calls and performs thin normalization only.
// All groups surface only the cdp error family (Timeout, Connection, CDP).
package commands

import (
	"context"
	"fmt"
)

// Caller issues one CDP command and returns the full decoded response.
// Satisfied by *cdp.Session.
type Caller interface {
	Call(ctx context.Context, method string, params map[string]any) (map[string]any, error)
}

// result pulls the "result" object out of a response envelope.
func result(resp map[string]any) map[string]any {
	r, _ := resp["result"].(map[string]any)
	return r
}

func resultString(resp map[string]any, key string) string {
	s, _ := result(resp)[key].(string)
	return s
}

func resultFloat(resp map[string]any, key string) (float64, error) {
	v, ok := result(resp)[key].(float64)
	if !ok {
		return 0, fmt.Errorf("response missing numeric %q", key)
	}
	return v, nil
}
