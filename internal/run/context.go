package run

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EnvCurrentRun, when set, overrides the context file for reads.
const EnvCurrentRun = "FRAGO_CURRENT_RUN"

// Context is the persisted current-run declaration.
type Context struct {
	RunID            string    `json:"run_id"`
	LastAccessed     time.Time `json:"last_accessed"`
	ThemeDescription string    `json:"theme_description"`
	ProjectsDir      string    `json:"projects_dir,omitempty"`
}

// ContextFile manages <home>/.frago/current_run. At most one run holds the
// context; Set never overrides a different holder.
type ContextFile struct {
	Path  string
	Store *Store
	Log   zerolog.Logger
}

// DefaultContextPath returns <home>/.frago/current_run.
func DefaultContextPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".frago", "current_run"), nil
}

// Set declares runID as the current run. It fails with
// ContextAlreadySetError when a different run holds the context.
func (c *ContextFile) Set(runID string) error {
	meta, err := c.Store.FindRun(runID)
	if err != nil {
		return err
	}

	existing, err := c.readFile()
	if err == nil && existing.RunID != "" && existing.RunID != runID {
		return &ContextAlreadySetError{Existing: existing.RunID}
	}

	doc := Context{
		RunID:            runID,
		LastAccessed:     time.Now().UTC(),
		ThemeDescription: meta.ThemeDescription,
		ProjectsDir:      c.Store.Root,
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return &FileSystemError{Op: "create context dir", Path: c.Path, Err: err}
	}
	if err := os.WriteFile(c.Path, b, 0o644); err != nil {
		return &FileSystemError{Op: "write context", Path: c.Path, Err: err}
	}
	_ = c.Store.Touch(runID)
	return nil
}

// Get returns the active context. The FRAGO_CURRENT_RUN environment
// variable wins over the file. A context pointing at a missing run clears
// the file and reports RunNotFound.
func (c *ContextFile) Get() (*Context, error) {
	if env := strings.TrimSpace(os.Getenv(EnvCurrentRun)); env != "" {
		meta, err := c.Store.FindRun(env)
		if err != nil {
			return nil, err
		}
		return &Context{
			RunID:            meta.RunID,
			LastAccessed:     meta.LastAccessed,
			ThemeDescription: meta.ThemeDescription,
			ProjectsDir:      c.Store.Root,
		}, nil
	}

	doc, err := c.readFile()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ContextNotSetError{}
		}
		return nil, err
	}
	if doc.RunID == "" {
		return nil, &ContextNotSetError{}
	}
	if _, err := c.Store.FindRun(doc.RunID); err != nil {
		var notFound *RunNotFoundError
		if errors.As(err, &notFound) {
			c.Log.Warn().Str("run_id", doc.RunID).Msg("current run vanished; clearing context")
			_ = os.Remove(c.Path)
		}
		return nil, err
	}
	return doc, nil
}

// Release clears the context. Releasing an unset context is not an error.
func (c *ContextFile) Release() error {
	err := os.Remove(c.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return &FileSystemError{Op: "remove context", Path: c.Path, Err: err}
	}
	return nil
}

func (c *ContextFile) readFile() (*Context, error) {
	b, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, err
	}
	var doc Context
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, &FileSystemError{Op: "decode context", Path: c.Path, Err: err}
	}
	return &doc, nil
}
