// Package recipe discovers, validates, and indexes reusable automation
// units. A recipe is a directory holding recipe.md (YAML frontmatter +
// prose) and one script whose suffix matches the declared runtime.
package recipe

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source says which search tier a recipe was discovered in.
type Source string

const (
	SourceProject Source = "Project"
	SourceUser    Source = "User"
	SourceExample Source = "Example"
)

// sourcePriority orders FindAllSources results.
var sourcePriority = []Source{SourceProject, SourceUser, SourceExample}

const (
	TypeAtomic   = "atomic"
	TypeWorkflow = "workflow"

	RuntimeChromeJS = "chrome-js"
	RuntimePython   = "python"
	RuntimeShell    = "shell"
)

// runtimeScripts maps a runtime to the script file it executes.
var runtimeScripts = map[string]string{
	RuntimeChromeJS: "recipe.js",
	RuntimePython:   "recipe.py",
	RuntimeShell:    "recipe.sh",
}

var validOutputTargets = map[string]bool{
	"stdout":    true,
	"file":      true,
	"clipboard": true,
}

var (
	namePattern    = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	versionPattern = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)
	envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

const maxDescriptionLen = 200

// Input declares one runner parameter.
type Input struct {
	Type        string `yaml:"type"`
	Required    bool   `yaml:"required"`
	Description string `yaml:"description"`
}

// EnvVar declares one environment variable the recipe reads.
type EnvVar struct {
	Required    bool   `yaml:"required"`
	Default     string `yaml:"default"`
	Description string `yaml:"description"`
}

// Recipe is the validated metadata plus discovery-derived fields.
type Recipe struct {
	Name           string            `yaml:"name"`
	Type           string            `yaml:"type"`
	Runtime        string            `yaml:"runtime"`
	Version        string            `yaml:"version"`
	Description    string            `yaml:"description"`
	UseCases       []string          `yaml:"use_cases"`
	OutputTargets  []string          `yaml:"output_targets"`
	Inputs         map[string]Input  `yaml:"inputs"`
	Outputs        map[string]string `yaml:"outputs"`
	Dependencies   []string          `yaml:"dependencies"`
	Tags           []string          `yaml:"tags"`
	Env            map[string]EnvVar `yaml:"env"`
	SystemPackages bool              `yaml:"system_packages"`

	Source     Source `yaml:"-"`
	Dir        string `yaml:"-"`
	ScriptPath string `yaml:"-"`
}

// ParseMetadata decodes the YAML frontmatter of a recipe.md. The file
// must open with "---\n"; the block runs to the next line that is
// exactly "---".
func ParseMetadata(path string) (*Recipe, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &MetadataParseError{Path: path, Err: err}
	}
	content := strings.ReplaceAll(string(b), "\r\n", "\n")
	if !strings.HasPrefix(content, "---\n") {
		return nil, &MetadataParseError{Path: path, Err: fmt.Errorf("missing frontmatter delimiter")}
	}
	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---\n")
	if end < 0 {
		// Frontmatter may also close at end of file.
		if strings.HasSuffix(rest, "\n---") {
			end = len(rest) - len("\n---")
		} else {
			return nil, &MetadataParseError{Path: path, Err: fmt.Errorf("unterminated frontmatter")}
		}
	}

	var r Recipe
	if err := yaml.Unmarshal([]byte(rest[:end]), &r); err != nil {
		return nil, &MetadataParseError{Path: path, Err: err}
	}
	return &r, nil
}

// Validate checks every metadata rule and returns a ValidationError
// listing all violations at once.
func (r *Recipe) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if !namePattern.MatchString(r.Name) {
		add("name must match [a-zA-Z0-9_-]+, got %q", r.Name)
	}
	if r.Type != TypeAtomic && r.Type != TypeWorkflow {
		add("type must be atomic or workflow, got %q", r.Type)
	}
	if _, ok := runtimeScripts[r.Runtime]; !ok {
		add("runtime must be chrome-js, python, or shell, got %q", r.Runtime)
	}
	if !versionPattern.MatchString(r.Version) {
		add("version must match N.N or N.N.N, got %q", r.Version)
	}
	if strings.TrimSpace(r.Description) == "" || len(r.Description) > maxDescriptionLen {
		add("description must be 1-%d characters", maxDescriptionLen)
	}
	if len(r.UseCases) == 0 {
		add("use_cases must be non-empty")
	}
	if len(r.OutputTargets) == 0 {
		add("output_targets must be non-empty")
	}
	for _, target := range r.OutputTargets {
		if !validOutputTargets[target] {
			add("invalid output target %q", target)
		}
	}
	for name, in := range r.Inputs {
		if in.Type == "" {
			add("input %s missing type", name)
		}
	}
	for name := range r.Env {
		if !envNamePattern.MatchString(name) {
			add("invalid env var name %q", name)
		}
	}
	if r.Type == TypeAtomic && len(r.Dependencies) > 0 {
		add("dependencies are only valid on workflows")
	}

	if len(problems) > 0 {
		return &ValidationError{Recipe: r.Name, Problems: problems}
	}
	return nil
}

// ScriptName returns the script filename the recipe's runtime expects.
func (r *Recipe) ScriptName() string {
	return runtimeScripts[r.Runtime]
}
