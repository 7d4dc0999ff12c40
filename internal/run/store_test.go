package run

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), zerolog.Nop())
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Upwork Python Jobs!", "upwork-python-jobs"},
		{"  already-slugged  ", "already-slugged"},
		{"---", ""},
		{"Ünïcödé thémé", "n-c-d-th-m"},
		{"a b", "a-b"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in, 40); got != tc.want {
			t.Fatalf("Slugify(%q) = %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlugify_Idempotent(t *testing.T) {
	s := Slugify("Scrape the Hacker News front page for AI stories", 40)
	if s == "" {
		t.Fatal("expected non-empty slug")
	}
	if got := Slugify(s, 40); got != s {
		t.Fatalf("Slugify(Slugify(x)) = %q want %q", got, s)
	}
	if len(s) > 40 {
		t.Fatalf("slug exceeds max length: %d", len(s))
	}
	if !regexp.MustCompile(`^[a-z0-9-]+$`).MatchString(s) {
		t.Fatalf("slug has invalid characters: %q", s)
	}
}

func TestCreateRun_ShapeAndTree(t *testing.T) {
	s := testStore(t)
	meta, err := s.CreateRun("Upwork Python Jobs", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !regexp.MustCompile(`^[a-z0-9-]{1,59}$`).MatchString(meta.RunID) {
		t.Fatalf("run id shape: %q", meta.RunID)
	}
	if !regexp.MustCompile(`^\d{8}-`).MatchString(meta.RunID) {
		t.Fatalf("run id missing date prefix: %q", meta.RunID)
	}
	if meta.Status != StatusActive {
		t.Fatalf("status: %q", meta.Status)
	}
	for _, sub := range []string{"logs", "screenshots", "scripts", "outputs"} {
		if fi, err := os.Stat(filepath.Join(s.Root, meta.RunID, sub)); err != nil || !fi.IsDir() {
			t.Fatalf("missing subdir %s: %v", sub, err)
		}
	}
}

func TestCreateRun_EmptySlugFallsBackToTask(t *testing.T) {
	s := testStore(t)
	meta, err := s.CreateRun("!!!", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !regexp.MustCompile(`^\d{8}-task-\d+$`).MatchString(meta.RunID) {
		t.Fatalf("expected task-<epoch> fallback, got %q", meta.RunID)
	}
}

func TestCreateRun_ExplicitIDKeptAndValidated(t *testing.T) {
	s := testStore(t)
	meta, err := s.CreateRun("theme", "20260825-custom-id")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if meta.RunID != "20260825-custom-id" {
		t.Fatalf("explicit id changed: %q", meta.RunID)
	}

	if _, err := s.CreateRun("theme", "Bad_ID"); err == nil {
		t.Fatal("expected invalid id to be rejected")
	}
}

func TestFindRun_Missing(t *testing.T) {
	s := testStore(t)
	_, err := s.FindRun("20260101-nope")
	var notFound *RunNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected RunNotFoundError, got %v", err)
	}
}

func TestArchiveRun_FlipsStatusOnly(t *testing.T) {
	s := testStore(t)
	meta, err := s.CreateRun("archive me", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	logPath := s.LogPath(meta.RunID)
	if err := os.WriteFile(logPath, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}

	if err := s.ArchiveRun(meta.RunID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	got, err := s.FindRun(meta.RunID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Status != StatusArchived {
		t.Fatalf("status: %q", got.Status)
	}
	if _, err := os.Stat(logPath); err != nil {
		t.Fatal("archive must not delete artifacts")
	}
}

func TestListRuns_SortsAndFilters(t *testing.T) {
	s := testStore(t)
	a, _ := s.CreateRun("run a", "20260801-run-a")
	b, _ := s.CreateRun("run b", "20260802-run-b")
	if a == nil || b == nil {
		t.Fatal("setup failed")
	}
	// Make b older than a.
	metaB, _ := s.FindRun(b.RunID)
	metaB.LastAccessed = time.Now().Add(-time.Hour)
	_ = s.writeMetadata(s.RunDir(b.RunID), metaB)
	_ = s.ArchiveRun(b.RunID)

	all, err := s.ListRuns("")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].RunID != a.RunID {
		t.Fatalf("sort by last_accessed desc broken: %+v", all)
	}

	active, err := s.ListRuns(StatusActive)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].RunID != a.RunID {
		t.Fatalf("status filter broken: %+v", active)
	}
}

func TestListRuns_Statistics(t *testing.T) {
	s := testStore(t)
	meta, _ := s.CreateRun("stats", "")
	_ = os.WriteFile(s.LogPath(meta.RunID), []byte("{\"a\":1}\n{\"b\":2}\n"), 0o644)
	_ = os.WriteFile(filepath.Join(s.ScreenshotsDir(meta.RunID), "001_x.png"), []byte("png"), 0o644)

	infos, err := s.ListRuns("")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if infos[0].LogCount != 2 || infos[0].ScreenshotCount != 1 {
		t.Fatalf("stats wrong: %+v", infos[0])
	}
}
