// Package envfile reads and writes dotenv-style files and resolves the
// environment a recipe runs with. Precedence, highest first: CLI
// overrides, workflow context, project .frago/.env, user ~/.frago/.env,
// process environment.
package envfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MissingVarsError lists required variables a recipe declared that no
// layer provided.
type MissingVarsError struct {
	Recipe  string
	Missing []string
}

func (e *MissingVarsError) Error() string {
	return fmt.Sprintf("recipe %s missing required env vars: %s", e.Recipe, strings.Join(e.Missing, ", "))
}

// Decl is one env declaration from a recipe's metadata.
type Decl struct {
	Name     string
	Required bool
	Default  string
}

// Parse decodes dotenv content. Blank lines and #-comments are skipped,
// a leading "export " is tolerated, and matched single or double quotes
// around the value are stripped.
func Parse(content string) map[string]string {
	out := map[string]string{}
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		out[key] = value
	}
	return out
}

// Load parses the file at path. A missing file is an empty map.
func Load(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return Parse(string(b)), nil
}

// Layers holds every source that can contribute variables.
type Layers struct {
	// Overrides come from CLI flags and always win.
	Overrides map[string]string
	// Workflow is shared state from an in-flight workflow run.
	Workflow map[string]string
	// ProjectFile and UserFile are dotenv paths; missing files are fine.
	ProjectFile string
	UserFile    string
	// Process supplies the base layer; defaults to os.Environ.
	Process func() []string
}

// UserFilePath returns ~/.frago/.env.
func UserFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".frago", ".env"), nil
}

// Merge flattens the layers into a single map, higher layers winning.
func (l Layers) Merge() (map[string]string, error) {
	out := map[string]string{}

	environ := os.Environ
	if l.Process != nil {
		environ = l.Process
	}
	for _, kv := range environ() {
		if key, value, ok := strings.Cut(kv, "="); ok {
			out[key] = value
		}
	}

	if l.UserFile != "" {
		user, err := Load(l.UserFile)
		if err != nil {
			return nil, err
		}
		for k, v := range user {
			out[k] = v
		}
	}
	if l.ProjectFile != "" {
		project, err := Load(l.ProjectFile)
		if err != nil {
			return nil, err
		}
		for k, v := range project {
			out[k] = v
		}
	}
	for k, v := range l.Workflow {
		out[k] = v
	}
	for k, v := range l.Overrides {
		out[k] = v
	}
	return out, nil
}

// Resolve merges the layers and applies a recipe's declarations: defaults
// fill absent optional vars, then every required var must be present.
func (l Layers) Resolve(recipeName string, decls []Decl) (map[string]string, error) {
	merged, err := l.Merge()
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, d := range decls {
		if _, ok := merged[d.Name]; ok {
			continue
		}
		if d.Default != "" {
			merged[d.Name] = d.Default
			continue
		}
		if d.Required {
			missing = append(missing, d.Name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingVarsError{Recipe: recipeName, Missing: missing}
	}
	return merged, nil
}
