// Package runner executes a registered recipe in its declared runtime:
// chrome-js inside the connected page, python and shell as subprocesses
// speaking JSON over stdout.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/frago-dev/frago/internal/envfile"
	"github.com/frago-dev/frago/internal/recipe"
)

// maxStdoutBytes caps what a recipe may print before it is killed off as
// misbehaving.
const maxStdoutBytes = 10 << 20

// paramsGlobal is the page-side name chrome-js recipes read their params
// from.
const paramsGlobal = "window.__FRAGO_PARAMS__"

// PageEvaluator runs an expression in the connected page and returns its
// JSON value. commands.Runtime satisfies it.
type PageEvaluator interface {
	EvaluateValue(ctx context.Context, expr string) (any, error)
}

// Request is one recipe invocation.
type Request struct {
	Name          string
	Source        recipe.Source
	Params        map[string]any
	OutputTarget  string
	OutputOptions OutputOptions
	EnvOverrides  map[string]string
	Workflow      *WorkflowContext
}

// Result is the uniform envelope every runtime produces.
type Result struct {
	Success       bool    `json:"success"`
	Data          any     `json:"data"`
	Error         string  `json:"error,omitempty"`
	ExecutionTime float64 `json:"execution_time"`
	RecipeName    string  `json:"recipe_name"`
	Runtime       string  `json:"runtime"`
	ExecutionID   string  `json:"execution_id"`
}

// Runner executes recipes. Each Run call is independent; concurrent runs
// are fine, though chrome-js calls serialize at the CDP session.
type Runner struct {
	Registry  *recipe.Registry
	Evaluator PageEvaluator
	Output    *OutputHandler
	// Env supplies the base layers (project/user files, process env);
	// per-request overrides and workflow state overlay it.
	Env envfile.Layers
	Log zerolog.Logger
}

// Run validates, resolves environment, dispatches by runtime, and routes
// the result to the requested output target. The runner imposes no
// wall-clock timeout; cancel ctx to stop a stuck recipe.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	rec, err := r.Registry.Find(req.Name, req.Source)
	if err != nil {
		return nil, err
	}
	if err := validateParams(rec, req.Params); err != nil {
		return nil, err
	}

	layers := r.Env
	layers.Overrides = req.EnvOverrides
	if req.Workflow != nil {
		layers.Workflow = req.Workflow.Shared
	}
	env, err := layers.Resolve(rec.Name, envDecls(rec))
	if err != nil {
		return nil, err
	}

	execID := ulid.Make().String()
	log := r.Log.With().Str("recipe", rec.Name).Str("runtime", rec.Runtime).Str("execution_id", execID).Logger()
	log.Debug().Msg("recipe starting")

	start := time.Now()
	var data any
	switch rec.Runtime {
	case recipe.RuntimeChromeJS:
		data, err = r.runChromeJS(ctx, rec, req.Params)
	case recipe.RuntimePython:
		data, err = r.runSubprocess(ctx, rec, req.Params, env, pythonArgv(rec), rec.SystemPackages)
	case recipe.RuntimeShell:
		data, err = r.runShell(ctx, rec, req.Params, env)
	default:
		err = fmt.Errorf("unknown runtime %q", rec.Runtime)
	}
	elapsed := time.Since(start)
	if err != nil {
		log.Warn().Err(err).Dur("elapsed", elapsed).Msg("recipe failed")
		return nil, err
	}

	res := &Result{
		Success:       true,
		Data:          data,
		ExecutionTime: elapsed.Seconds(),
		RecipeName:    rec.Name,
		Runtime:       rec.Runtime,
		ExecutionID:   execID,
	}
	if req.OutputTarget != "" {
		handler := r.Output
		if handler == nil {
			handler = &OutputHandler{}
		}
		if err := handler.Dispatch(req.OutputTarget, res, req.OutputOptions); err != nil {
			return nil, err
		}
	}
	log.Debug().Dur("elapsed", elapsed).Msg("recipe finished")
	return res, nil
}

func envDecls(rec *recipe.Recipe) []envfile.Decl {
	var decls []envfile.Decl
	for name, v := range rec.Env {
		decls = append(decls, envfile.Decl{Name: name, Required: v.Required, Default: v.Default})
	}
	sort.Slice(decls, func(i, j int) bool { return decls[i].Name < decls[j].Name })
	return decls
}

// runChromeJS injects params into the page global, evaluates the script,
// and normalizes the returned value.
func (r *Runner) runChromeJS(ctx context.Context, rec *recipe.Recipe, params map[string]any) (any, error) {
	if r.Evaluator == nil {
		return nil, &ExecutionError{Recipe: rec.Name, ExitCode: -1, Reason: "no page connection for chrome-js recipe"}
	}
	if len(params) > 0 {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encode params: %w", err)
		}
		if _, err := r.Evaluator.EvaluateValue(ctx, paramsGlobal+" = "+string(raw)); err != nil {
			return nil, &ExecutionError{Recipe: rec.Name, ExitCode: -1, Reason: "param injection failed: " + err.Error()}
		}
	}

	script, err := os.ReadFile(rec.ScriptPath)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	value, err := r.Evaluator.EvaluateValue(ctx, string(script))
	if err != nil {
		return nil, &ExecutionError{Recipe: rec.Name, ExitCode: -1, Reason: "script evaluation failed: " + err.Error()}
	}

	// Scripts returning JSON text get decoded; anything else is wrapped.
	if s, ok := value.(string); ok {
		var decoded any
		if json.Unmarshal([]byte(s), &decoded) == nil {
			return decoded, nil
		}
		return map[string]any{"result": strings.TrimSpace(s)}, nil
	}
	return value, nil
}

// pythonArgv picks the interpreter: uv-managed by default, the system
// python when the recipe asked for system packages.
func pythonArgv(rec *recipe.Recipe) []string {
	if rec.SystemPackages {
		return []string{"/usr/bin/python3", rec.ScriptPath}
	}
	return []string{"uv", "run", rec.ScriptPath}
}

func (r *Runner) runShell(ctx context.Context, rec *recipe.Recipe, params map[string]any, env map[string]string) (any, error) {
	fi, err := os.Stat(rec.ScriptPath)
	if err != nil {
		return nil, fmt.Errorf("stat script: %w", err)
	}
	if fi.Mode()&0o100 == 0 {
		return nil, &ExecutionError{Recipe: rec.Name, ExitCode: -1, Reason: fmt.Sprintf("script %s is not executable", rec.ScriptPath)}
	}
	return r.runSubprocess(ctx, rec, params, env, []string{rec.ScriptPath}, false)
}

func (r *Runner) runSubprocess(ctx context.Context, rec *recipe.Recipe, params map[string]any, env map[string]string, argv []string, scrubVenv bool) (any, error) {
	paramsJSON := "{}"
	if len(params) > 0 {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encode params: %w", err)
		}
		paramsJSON = string(raw)
	}

	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], paramsJSON)...)
	cmd.Env = flattenEnv(env, scrubVenv)
	stdout := &cappedWriter{limit: maxStdoutBytes}
	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if stdout.overflowed {
		return nil, &ExecutionError{
			Recipe:   rec.Name,
			ExitCode: -1,
			Stderr:   fmt.Sprintf("stdout exceeded %d bytes", maxStdoutBytes),
			Reason:   "output cap exceeded",
		}
	}
	if runErr != nil {
		exitCode := -1
		if ee, ok := runErr.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		}
		return nil, &ExecutionError{
			Recipe:   rec.Name,
			ExitCode: exitCode,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Reason:   runErr.Error(),
		}
	}

	var data any
	if err := json.Unmarshal(stdout.Bytes(), &data); err != nil {
		return nil, &ExecutionError{
			Recipe:   rec.Name,
			ExitCode: 0,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Reason:   "stdout is not valid JSON: " + err.Error(),
		}
	}
	return data, nil
}

// flattenEnv turns the resolved map into the subprocess environment.
// scrubVenv drops virtualenv markers so /usr/bin/python3 sees the system
// site-packages.
func flattenEnv(env map[string]string, scrubVenv bool) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		if scrubVenv && (k == "VIRTUAL_ENV" || k == "PYTHONHOME") {
			continue
		}
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// cappedWriter buffers subprocess stdout up to a byte limit.
type cappedWriter struct {
	buf        bytes.Buffer
	limit      int
	overflowed bool
}

func (w *cappedWriter) Write(p []byte) (int, error) {
	if w.overflowed {
		return len(p), nil
	}
	if w.buf.Len()+len(p) > w.limit {
		w.overflowed = true
		return len(p), nil
	}
	return w.buf.Write(p)
}

func (w *cappedWriter) String() string { return w.buf.String() }
func (w *cappedWriter) Bytes() []byte  { return w.buf.Bytes() }
