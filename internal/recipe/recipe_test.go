package recipe

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validFrontmatter = `---
name: extract_links
type: atomic
runtime: chrome-js
version: "1.0"
description: Collect every anchor href on the current page
use_cases:
  - link auditing
output_targets:
  - stdout
inputs:
  selector:
    type: string
    required: false
    description: scope the extraction
env:
  MAX_LINKS:
    required: false
    default: "100"
---

# extract_links

Prose documentation.
`

func writeRecipeMD(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "recipe.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write recipe.md: %v", err)
	}
	return path
}

func TestParseMetadata_Valid(t *testing.T) {
	path := writeRecipeMD(t, t.TempDir(), validFrontmatter)
	rec, err := ParseMetadata(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.Name != "extract_links" || rec.Runtime != RuntimeChromeJS {
		t.Fatalf("fields: %+v", rec)
	}
	if rec.Inputs["selector"].Type != "string" {
		t.Fatalf("inputs: %+v", rec.Inputs)
	}
	if rec.Env["MAX_LINKS"].Default != "100" {
		t.Fatalf("env: %+v", rec.Env)
	}
	if err := rec.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestParseMetadata_Failures(t *testing.T) {
	cases := map[string]string{
		"no frontmatter":   "# just prose\n",
		"unterminated":     "---\nname: x\n",
		"yaml syntax":      "---\nname: [unclosed\n---\n",
		"leading content":  "intro\n---\nname: x\n---\n",
	}
	for label, content := range cases {
		path := writeRecipeMD(t, t.TempDir(), content)
		_, err := ParseMetadata(path)
		var parseErr *MetadataParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("%s: expected MetadataParseError, got %v", label, err)
		}
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	rec := &Recipe{
		Name:          "bad name!",
		Type:          "hybrid",
		Runtime:       "ruby",
		Version:       "one",
		Description:   strings.Repeat("d", 201),
		OutputTargets: []string{"stdout", "printer"},
		Inputs:        map[string]Input{"x": {}},
		Env:           map[string]EnvVar{"1BAD": {}},
	}
	err := rec.Validate()
	var v *ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, needle := range []string{"name", "type", "runtime", "version", "description", "use_cases", "printer", "input x", "1BAD"} {
		if !strings.Contains(err.Error(), needle) {
			t.Fatalf("missing problem %q in %v", needle, err)
		}
	}
}

func TestValidate_AtomicWithDependenciesRejected(t *testing.T) {
	rec := &Recipe{
		Name:          "atom",
		Type:          TypeAtomic,
		Runtime:       RuntimePython,
		Version:       "1.0.0",
		Description:   "d",
		UseCases:      []string{"u"},
		OutputTargets: []string{"stdout"},
		Dependencies:  []string{"other"},
	}
	if rec.Validate() == nil {
		t.Fatal("atomic recipe with dependencies should fail validation")
	}
}
