package envfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Update rewrites the dotenv file at path, setting or replacing the given
// keys in place. Comments, blank lines, and unrelated assignments keep
// their positions; a nil value deletes the key. New keys append at the
// end. The file is created when absent.
func Update(path string, changes map[string]*string) error {
	var lines []string
	if b, err := os.ReadFile(path); err == nil {
		lines = strings.Split(string(b), "\n")
		// Drop the trailing empty element from a final newline.
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read env file: %w", err)
	}

	pending := map[string]*string{}
	for k, v := range changes {
		pending[k] = v
	}

	var out []string
	for _, line := range lines {
		key := assignmentKey(line)
		if key == "" {
			out = append(out, line)
			continue
		}
		v, touched := pending[key]
		if !touched {
			out = append(out, line)
			continue
		}
		delete(pending, key)
		if v == nil {
			continue
		}
		out = append(out, key+"="+quoteIfNeeded(*v))
	}

	// Append new keys in stable order.
	var added []string
	for k, v := range pending {
		if v != nil {
			added = append(added, k+"="+quoteIfNeeded(*v))
		}
	}
	sort.Strings(added)
	out = append(out, added...)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create env dir: %w", err)
	}
	content := strings.Join(out, "\n")
	if content != "" {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write env file: %w", err)
	}
	return nil
}

// assignmentKey returns the key of a KEY=VALUE line, or "" for comments,
// blanks, and anything else.
func assignmentKey(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	trimmed = strings.TrimPrefix(trimmed, "export ")
	key, _, ok := strings.Cut(trimmed, "=")
	if !ok {
		return ""
	}
	return strings.TrimSpace(key)
}

func quoteIfNeeded(v string) string {
	if strings.ContainsAny(v, " \t#") {
		return `"` + v + `"`
	}
	return v
}
