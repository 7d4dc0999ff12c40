package runner

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
)

// Output sink names a recipe may declare and a caller may request.
const (
	TargetStdout    = "stdout"
	TargetFile      = "file"
	TargetClipboard = "clipboard"
)

// OutputOptions carry per-target settings; today only the file path.
type OutputOptions struct {
	Path string
}

// Clipboard abstracts the system clipboard so tests need no display
// server.
type Clipboard interface {
	WriteAll(text string) error
	Unsupported() bool
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }
func (systemClipboard) Unsupported() bool          { return clipboard.Unsupported }

// OutputHandler routes a recipe's JSON result to its sink.
type OutputHandler struct {
	// Stdout defaults to os.Stdout.
	Stdout io.Writer
	// Clip defaults to the system clipboard.
	Clip Clipboard
}

// Dispatch sends data to the named target. Unknown targets fail with
// InvalidOutputTargetError before any encoding happens.
func (h *OutputHandler) Dispatch(target string, data any, opts OutputOptions) error {
	switch target {
	case TargetStdout:
		return h.toStdout(data)
	case TargetFile:
		return h.toFile(data, opts)
	case TargetClipboard:
		return h.toClipboard(data)
	default:
		return &InvalidOutputTargetError{Target: target}
	}
}

func (h *OutputHandler) toStdout(data any) error {
	w := h.Stdout
	if w == nil {
		w = os.Stdout
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func (h *OutputHandler) toFile(data any, opts OutputOptions) error {
	if opts.Path == "" {
		return fmt.Errorf("file output requires a path")
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(opts.Path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}

func (h *OutputHandler) toClipboard(data any) error {
	clip := h.Clip
	if clip == nil {
		clip = systemClipboard{}
	}
	if clip.Unsupported() {
		return fmt.Errorf("clipboard unavailable on this system (install xclip or xsel on Linux)")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := clip.WriteAll(string(b)); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}
