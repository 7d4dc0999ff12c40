// Package screenshot numbers and stores page captures inside a run's
// screenshots directory. Files are named NNN_slug.png with a
// monotonically increasing zero-padded sequence.
package screenshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/zeebo/blake3"

	"github.com/frago-dev/frago/internal/chrome/commands"
	"github.com/frago-dev/frago/internal/run"
)

// MaxNumber is the last sequence slot; captures beyond it fail rather
// than wrap.
const MaxNumber = 999

// ErrSequenceExhausted means the run already holds screenshot 999.
var ErrSequenceExhausted = errors.New("screenshot sequence exhausted")

const numberedPattern = "[0-9][0-9][0-9]_*.png"

// Capturer produces PNG bytes; commands.Screenshot satisfies it.
type Capturer interface {
	Capture(ctx context.Context, opts commands.CaptureOptions) ([]byte, error)
}

// Result describes a stored screenshot.
type Result struct {
	Path      string    `json:"path"`
	Number    int       `json:"number"`
	Size      int64     `json:"size_bytes"`
	Digest    string    `json:"digest"`
	Timestamp time.Time `json:"timestamp"`
}

// Pipeline captures pages and files them under a run's screenshot dir.
type Pipeline struct {
	Store    *run.Store
	Capturer Capturer
	Log      zerolog.Logger
}

// NextNumber scans dir for NNN_*.png files and returns max+1 (1 when the
// dir is empty or absent). Gaps are never reused.
func NextNumber(dir string) (int, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, numberedPattern))
	if err != nil {
		return 0, fmt.Errorf("scan screenshots: %w", err)
	}
	max := 0
	for _, m := range matches {
		n, err := strconv.Atoi(filepath.Base(m)[:3])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	if max >= MaxNumber {
		return 0, ErrSequenceExhausted
	}
	return max + 1, nil
}

// Save writes png bytes into the run's screenshots dir as NNN_slug.png.
// The write goes through a temp file in the same directory so a numbered
// name never exists half-written.
func (p *Pipeline) Save(runID, name string, png []byte) (*Result, error) {
	dir := p.Store.ScreenshotsDir(runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &run.FileSystemError{Op: "create screenshots dir", Path: dir, Err: err}
	}
	num, err := NextNumber(dir)
	if err != nil {
		return nil, err
	}

	slug := run.Slugify(name, 40)
	if slug == "" {
		slug = "capture"
	}
	base := fmt.Sprintf("%03d_%s.png", num, slug)
	final := filepath.Join(dir, base)

	tmp := filepath.Join(dir, ".tmp_"+base)
	if err := os.WriteFile(tmp, png, 0o644); err != nil {
		return nil, &run.FileSystemError{Op: "write screenshot", Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return nil, &run.FileSystemError{Op: "finalize screenshot", Path: final, Err: err}
	}

	digest := blake3.Sum256(png)
	res := &Result{
		Path:      final,
		Number:    num,
		Size:      int64(len(png)),
		Digest:    fmt.Sprintf("%x", digest[:]),
		Timestamp: time.Now().UTC(),
	}
	p.Log.Debug().Str("path", final).Int("number", num).Int("bytes", len(png)).Msg("screenshot saved")
	_ = p.Store.Touch(runID)
	return res, nil
}

// Capture grabs the current page and files it under the run.
func (p *Pipeline) Capture(ctx context.Context, runID, name string, opts commands.CaptureOptions) (*Result, error) {
	start := time.Now()
	png, err := p.Capturer.Capture(ctx, opts)
	if err != nil {
		return nil, err
	}
	res, err := p.Save(runID, name, png)
	if err != nil {
		return nil, err
	}
	p.Log.Debug().Dur("elapsed", time.Since(start)).Str("run_id", runID).Msg("screenshot captured")
	return res, nil
}

// List returns the numbered screenshots in sequence order.
func (p *Pipeline) List(runID string) ([]string, error) {
	dir := p.Store.ScreenshotsDir(runID)
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, numberedPattern))
	if err != nil {
		return nil, fmt.Errorf("scan screenshots: %w", err)
	}
	// Glob output is lexically sorted, which matches numeric order for
	// zero-padded names.
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.HasPrefix(filepath.Base(m), ".") {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
