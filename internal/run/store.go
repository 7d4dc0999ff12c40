// Package run owns the persistent task containers: run directories with
// their metadata, the mutually exclusive current-run context, and the
// run-id shape rules.
package run

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// StatusActive and StatusArchived are the only run states. Archival
	// flips the status; it never deletes artifacts.
	StatusActive   = "active"
	StatusArchived = "archived"

	metadataFile = ".metadata.json"
	maxThemeLen  = 500
)

var (
	runIDBodyPattern = regexp.MustCompile(`^[a-z0-9-]{1,50}$`)
	datePrefix       = regexp.MustCompile(`^\d{8}-`)
)

// subdirs every run directory carries.
var runSubdirs = []string{"logs", "screenshots", "scripts", "outputs"}

// Metadata is the persisted RunInstance record.
type Metadata struct {
	RunID            string    `json:"run_id"`
	ThemeDescription string    `json:"theme_description"`
	CreatedAt        time.Time `json:"created_at"`
	LastAccessed     time.Time `json:"last_accessed"`
	Status           string    `json:"status"`
}

// Info augments metadata with cheap per-run statistics for listings.
type Info struct {
	Metadata
	Path            string
	LogCount        int
	ScreenshotCount int
}

// Store creates and finds run directories under Root.
type Store struct {
	Root string
	log  zerolog.Logger
	now  func() time.Time
}

// NewStore returns a store rooted at root (typically
// <home>/.frago/projects).
func NewStore(root string, log zerolog.Logger) *Store {
	return &Store{Root: root, log: log, now: time.Now}
}

// DefaultRoot returns <home>/.frago/projects.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".frago", "projects"), nil
}

// CreateRun slugifies theme into a date-prefixed run id (or validates the
// explicit id), creates the directory tree, and writes the metadata file.
func (s *Store) CreateRun(theme, explicitID string) (*Metadata, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" || len(theme) > maxThemeLen {
		return nil, &InvalidRunIDError{RunID: explicitID, Reason: fmt.Sprintf("theme description must be 1-%d characters", maxThemeLen)}
	}

	body := explicitID
	if body == "" {
		body = Slugify(theme, 50)
		if body == "" {
			body = fmt.Sprintf("task-%d", s.now().Unix())
		}
	}
	runID := body
	if !datePrefix.MatchString(runID) {
		runID = s.now().UTC().Format("20060102") + "-" + runID
	}
	if err := ValidateRunID(runID); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.Root, runID)
	if _, err := os.Stat(dir); err == nil {
		return nil, &InvalidRunIDError{RunID: runID, Reason: "run already exists"}
	}
	for _, sub := range runSubdirs {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, &FileSystemError{Op: "create run dir", Path: dir, Err: err}
		}
	}

	now := s.now().UTC()
	meta := &Metadata{
		RunID:            runID,
		ThemeDescription: theme,
		CreatedAt:        now,
		LastAccessed:     now,
		Status:           StatusActive,
	}
	if err := s.writeMetadata(dir, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// ValidateRunID checks the date prefix plus the body shape.
func ValidateRunID(runID string) error {
	if !datePrefix.MatchString(runID) {
		return &InvalidRunIDError{RunID: runID, Reason: "missing YYYYMMDD- prefix"}
	}
	body := runID[len("20060102-"):]
	if !runIDBodyPattern.MatchString(body) {
		return &InvalidRunIDError{RunID: runID, Reason: "body must match [a-z0-9-]{1,50}"}
	}
	return nil
}

// FindRun loads a run's metadata. A missing directory is RunNotFound;
// a directory without readable metadata is a filesystem failure.
func (s *Store) FindRun(runID string) (*Metadata, error) {
	dir := filepath.Join(s.Root, runID)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &RunNotFoundError{RunID: runID}
		}
		return nil, &FileSystemError{Op: "stat", Path: dir, Err: err}
	}
	return s.readMetadata(dir, runID)
}

// RunDir returns the directory of a run id under this store.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.Root, runID)
}

// LogPath returns the run's JSONL activity log path.
func (s *Store) LogPath(runID string) string {
	return filepath.Join(s.Root, runID, "logs", "execution.jsonl")
}

// ScreenshotsDir returns the run's screenshot directory.
func (s *Store) ScreenshotsDir(runID string) string {
	return filepath.Join(s.Root, runID, "screenshots")
}

// ListRuns parses every run's metadata, attaches statistics, and sorts by
// last_accessed descending. statusFilter "" lists everything.
func (s *Store) ListRuns(statusFilter string) ([]Info, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &FileSystemError{Op: "read runs dir", Path: s.Root, Err: err}
	}

	var out []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(s.Root, entry.Name())
		meta, err := s.readMetadata(dir, entry.Name())
		if err != nil {
			s.log.Debug().Err(err).Str("run_id", entry.Name()).Msg("skipping run with unreadable metadata")
			continue
		}
		if statusFilter != "" && meta.Status != statusFilter {
			continue
		}
		out = append(out, Info{
			Metadata:        *meta,
			Path:            dir,
			LogCount:        countLines(filepath.Join(dir, "logs", "execution.jsonl")),
			ScreenshotCount: countPNGs(filepath.Join(dir, "screenshots")),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastAccessed.After(out[j].LastAccessed)
	})
	return out, nil
}

// ArchiveRun flips the run's status to archived.
func (s *Store) ArchiveRun(runID string) error {
	meta, err := s.FindRun(runID)
	if err != nil {
		return err
	}
	meta.Status = StatusArchived
	return s.writeMetadata(filepath.Join(s.Root, runID), meta)
}

// Touch refreshes a run's last_accessed stamp.
func (s *Store) Touch(runID string) error {
	meta, err := s.FindRun(runID)
	if err != nil {
		return err
	}
	meta.LastAccessed = s.now().UTC()
	return s.writeMetadata(filepath.Join(s.Root, runID), meta)
}

func (s *Store) readMetadata(dir, runID string) (*Metadata, error) {
	path := filepath.Join(dir, metadataFile)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileSystemError{Op: "read metadata", Path: path, Err: err}
	}
	var meta Metadata
	if err := json.Unmarshal(b, &meta); err != nil {
		return nil, &FileSystemError{Op: "decode metadata", Path: path, Err: err}
	}
	if meta.RunID == "" {
		meta.RunID = runID
	}
	return &meta, nil
}

func (s *Store) writeMetadata(dir string, meta *Metadata) error {
	path := filepath.Join(dir, metadataFile)
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return &FileSystemError{Op: "write metadata", Path: path, Err: err}
	}
	return nil
}

func countLines(path string) int {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	n := 0
	for _, line := range strings.Split(string(b), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

func countPNGs(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".png") {
			n++
		}
	}
	return n
}
