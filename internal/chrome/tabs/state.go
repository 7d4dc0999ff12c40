package tabs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const stateSchemaVersion = "1"

// Entry is one tracked tab.
type Entry struct {
	TabID        string    `json:"tab_id"`
	Origin       string    `json:"origin"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
}

type stateFile struct {
	SchemaVersion string           `json:"schema_version"`
	Port          int              `json:"port"`
	Tabs          map[string]Entry `json:"tabs"`
}

// loadState reads the per-port tab state. State written for a different
// debugging port is discarded wholesale.
func loadState(path string, port int) (map[string]Entry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]Entry{}, nil
		}
		return nil, fmt.Errorf("read tab state: %w", err)
	}
	var doc stateFile
	if err := json.Unmarshal(b, &doc); err != nil {
		// A corrupt state file is treated as empty; routing rebuilds it.
		return map[string]Entry{}, nil
	}
	if doc.Port != port || doc.Tabs == nil {
		return map[string]Entry{}, nil
	}
	return doc.Tabs, nil
}

// saveState persists the tab map with a whole-file replacement.
func saveState(path string, port int, tabs map[string]Entry) error {
	doc := stateFile{
		SchemaVersion: stateSchemaVersion,
		Port:          port,
		Tabs:          tabs,
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create tab state dir: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write tab state: %w", err)
	}
	return nil
}
