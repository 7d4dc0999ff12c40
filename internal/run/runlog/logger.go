// Package runlog is the append-only JSONL activity log attached to a run.
// Records are never rewritten; corrupt lines are surfaced on read but do
// not block the remaining entries.
package runlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/frago-dev/frago/internal/run"
)

// scanner limits match the largest single record we expect to replay.
const (
	scanInitialBuf = 64 * 1024
	scanMaxBuf     = 2 * 1024 * 1024
)

// CorruptedLogError reports a line that could not be decoded. Read keeps
// going past these; callers decide whether the corruption matters.
type CorruptedLogError struct {
	Path   string
	Line   int
	Reason string
}

func (e *CorruptedLogError) Error() string {
	return fmt.Sprintf("corrupted log line %d in %s: %s", e.Line, e.Path, e.Reason)
}

// Logger appends to and replays a single run's execution.jsonl.
type Logger struct {
	Path string
	Log  zerolog.Logger

	now func() time.Time
}

// NewLogger returns a logger for the JSONL file at path.
func NewLogger(path string, log zerolog.Logger) *Logger {
	return &Logger{Path: path, Log: log, now: time.Now}
}

// Write validates the entry, stamps it, and appends one line. The file is
// synced before returning so a crash cannot lose an acknowledged record.
func (l *Logger) Write(entry Entry) error {
	if err := entry.validate(); err != nil {
		return err
	}
	entry.SchemaVersion = SchemaVersion
	if entry.Timestamp == "" {
		now := l.now
		if now == nil {
			now = time.Now
		}
		entry.Timestamp = now().UTC().Format("2006-01-02T15:04:05Z")
	}
	entry.Step = strings.TrimSpace(entry.Step)
	if entry.Data == nil {
		entry.Data = map[string]any{}
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode log entry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return &run.FileSystemError{Op: "create log dir", Path: l.Path, Err: err}
	}
	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return &run.FileSystemError{Op: "open log", Path: l.Path, Err: err}
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		return &run.FileSystemError{Op: "append log entry", Path: l.Path, Err: err}
	}
	if err := f.Sync(); err != nil {
		return &run.FileSystemError{Op: "sync log", Path: l.Path, Err: err}
	}
	return nil
}

// Read replays every decodable entry in file order. Undecodable lines are
// reported in the second return value and logged at warn; they never hide
// the entries that follow them.
func (l *Logger) Read() ([]Entry, []*CorruptedLogError, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	var (
		entries []Entry
		corrupt []*CorruptedLogError
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, scanInitialBuf), scanMaxBuf)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			ce := &CorruptedLogError{Path: l.Path, Line: lineNo, Reason: err.Error()}
			corrupt = append(corrupt, ce)
			l.Log.Warn().Str("path", l.Path).Int("line", lineNo).Msg("skipping corrupt log line")
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return entries, corrupt, fmt.Errorf("scan log: %w", err)
	}
	return entries, corrupt, nil
}

// Tail returns the last n decodable entries.
func (l *Logger) Tail(n int) ([]Entry, error) {
	entries, _, err := l.Read()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// Count reports the number of non-blank lines without decoding them.
func (l *Logger) Count() (int, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, scanInitialBuf), scanMaxBuf)
	n := 0
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("scan log: %w", err)
	}
	return n, nil
}
