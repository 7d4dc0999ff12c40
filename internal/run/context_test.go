package run

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func testContext(t *testing.T) (*ContextFile, *Store) {
	t.Helper()
	s := testStore(t)
	return &ContextFile{
		Path:  filepath.Join(t.TempDir(), "current_run"),
		Store: s,
		Log:   zerolog.Nop(),
	}, s
}

func TestContext_MutualExclusion(t *testing.T) {
	c, s := testContext(t)
	rA, err := s.CreateRun("task A", "")
	if err != nil {
		t.Fatalf("create A: %v", err)
	}
	rB, err := s.CreateRun("task B", "20260825-task-b")
	if err != nil {
		t.Fatalf("create B: %v", err)
	}

	if err := c.Set(rA.RunID); err != nil {
		t.Fatalf("set A: %v", err)
	}
	// Re-setting the same run is fine.
	if err := c.Set(rA.RunID); err != nil {
		t.Fatalf("re-set A: %v", err)
	}

	err = c.Set(rB.RunID)
	var conflict *ContextAlreadySetError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ContextAlreadySetError, got %v", err)
	}
	if conflict.Existing != rA.RunID {
		t.Fatalf("conflict names wrong holder: %s", conflict.Existing)
	}

	if err := c.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := c.Set(rB.RunID); err != nil {
		t.Fatalf("set B after release: %v", err)
	}
}

func TestContext_GetRoundTrip(t *testing.T) {
	c, s := testContext(t)
	r, _ := s.CreateRun("round trip", "")
	if err := c.Set(r.RunID); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := c.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RunID != r.RunID || got.ThemeDescription != "round trip" {
		t.Fatalf("unexpected context: %+v", got)
	}
}

func TestContext_GetUnset(t *testing.T) {
	c, _ := testContext(t)
	_, err := c.Get()
	var unset *ContextNotSetError
	if !errors.As(err, &unset) {
		t.Fatalf("expected ContextNotSetError, got %v", err)
	}
}

func TestContext_EnvOverrideWins(t *testing.T) {
	c, s := testContext(t)
	rFile, _ := s.CreateRun("file run", "")
	rEnv, _ := s.CreateRun("env run", "20260825-env-run")
	if err := c.Set(rFile.RunID); err != nil {
		t.Fatalf("set: %v", err)
	}

	t.Setenv(EnvCurrentRun, rEnv.RunID)
	got, err := c.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RunID != rEnv.RunID {
		t.Fatalf("env override ignored: %s", got.RunID)
	}
}

func TestContext_MissingRunClearsFile(t *testing.T) {
	c, s := testContext(t)
	r, _ := s.CreateRun("doomed", "")
	if err := c.Set(r.RunID); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := os.RemoveAll(s.RunDir(r.RunID)); err != nil {
		t.Fatalf("remove run: %v", err)
	}

	_, err := c.Get()
	var notFound *RunNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected RunNotFoundError, got %v", err)
	}
	if _, err := os.Stat(c.Path); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("stale context file should have been cleared")
	}
}

func TestContext_ReleaseUnsetIsNoop(t *testing.T) {
	c, _ := testContext(t)
	if err := c.Release(); err != nil {
		t.Fatalf("release unset: %v", err)
	}
}
