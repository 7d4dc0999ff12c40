package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
)

// Screenshot decodes Page.captureScreenshot output and optionally persists
// it with the temp-rename pattern so readers never see partial files.
type Screenshot struct {
	C Caller
}

// CaptureOptions for a screenshot. FullPage maps to captureBeyondViewport.
type CaptureOptions struct {
	FullPage bool
	Format   string
	Quality  int
}

// Capture returns the decoded image bytes.
func (s Screenshot) Capture(ctx context.Context, opts CaptureOptions) ([]byte, error) {
	data, err := Page{C: s.C}.CaptureScreenshot(ctx, ScreenshotParams{
		Format:         opts.Format,
		Quality:        opts.Quality,
		BeyondViewport: opts.FullPage,
	})
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode screenshot base64: %w", err)
	}
	return raw, nil
}

// CaptureToFile captures and writes atomically to path, creating parents.
func (s Screenshot) CaptureToFile(ctx context.Context, path string, opts CaptureOptions) error {
	raw, err := s.Capture(ctx, opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
