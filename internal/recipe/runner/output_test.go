package runner

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeClipboard struct {
	text        string
	unsupported bool
}

func (f *fakeClipboard) WriteAll(text string) error { f.text = text; return nil }
func (f *fakeClipboard) Unsupported() bool          { return f.unsupported }

func TestDispatch_Stdout(t *testing.T) {
	var buf bytes.Buffer
	h := &OutputHandler{Stdout: &buf}
	if err := h.Dispatch(TargetStdout, map[string]any{"k": "v"}, OutputOptions{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"k\": \"v\"\n") {
		t.Fatalf("not pretty-printed: %q", buf.String())
	}
}

func TestDispatch_File(t *testing.T) {
	h := &OutputHandler{}
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	if err := h.Dispatch(TargetFile, map[string]any{"n": float64(1)}, OutputOptions{Path: path}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil || got["n"] != float64(1) {
		t.Fatalf("content: %q, %v", b, err)
	}

	if err := h.Dispatch(TargetFile, nil, OutputOptions{}); err == nil {
		t.Fatal("file target without path should fail")
	}
}

func TestDispatch_Clipboard(t *testing.T) {
	clip := &fakeClipboard{}
	h := &OutputHandler{Clip: clip}
	if err := h.Dispatch(TargetClipboard, map[string]any{"a": float64(1)}, OutputOptions{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	// Clipboard payloads are compact.
	if clip.text != `{"a":1}` {
		t.Fatalf("clipboard text: %q", clip.text)
	}

	h.Clip = &fakeClipboard{unsupported: true}
	err := h.Dispatch(TargetClipboard, "x", OutputOptions{})
	if err == nil || !strings.Contains(err.Error(), "install") {
		t.Fatalf("expected install hint, got %v", err)
	}
}

func TestDispatch_UnknownTarget(t *testing.T) {
	h := &OutputHandler{}
	err := h.Dispatch("printer", nil, OutputOptions{})
	var invalid *InvalidOutputTargetError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidOutputTargetError, got %v", err)
	}
	if invalid.Target != "printer" {
		t.Fatalf("target: %q", invalid.Target)
	}
}
