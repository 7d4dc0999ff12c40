package recipe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

// seedRecipe creates <root>/<subtree>/<name>/recipe.md plus the script
// file the runtime expects (unless script is false).
func seedRecipe(t *testing.T, root, subtree, name, typ, runtime string, deps []string, script bool) {
	t.Helper()
	dir := filepath.Join(root, subtree, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	md := fmt.Sprintf(`---
name: %s
type: %s
runtime: %s
version: "1.0"
description: test recipe
use_cases:
  - testing
output_targets:
  - stdout
`, name, typ, runtime)
	if len(deps) > 0 {
		md += "dependencies:\n"
		for _, d := range deps {
			md += "  - " + d + "\n"
		}
	}
	md += "---\nprose\n"
	if err := os.WriteFile(filepath.Join(dir, "recipe.md"), []byte(md), 0o644); err != nil {
		t.Fatalf("write recipe.md: %v", err)
	}
	if script {
		scripts := map[string]string{"chrome-js": "recipe.js", "python": "recipe.py", "shell": "recipe.sh"}
		if err := os.WriteFile(filepath.Join(dir, scripts[runtime]), []byte("// script\n"), 0o755); err != nil {
			t.Fatalf("write script: %v", err)
		}
	}
}

func TestRegistry_ScanAndFind(t *testing.T) {
	root := t.TempDir()
	seedRecipe(t, root, "atomic/chrome", "grab_title", "atomic", "chrome-js", nil, true)
	seedRecipe(t, root, "atomic/system", "disk_usage", "atomic", "shell", nil, true)

	r := NewRegistry([]Root{{Path: root, Source: SourceUser}}, zerolog.Nop())

	rec, err := r.Find("grab_title", "")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if rec.Source != SourceUser || rec.ScriptPath == "" {
		t.Fatalf("recipe fields: %+v", rec)
	}
	if filepath.Base(rec.ScriptPath) != "recipe.js" {
		t.Fatalf("script path: %q", rec.ScriptPath)
	}

	_, err = r.Find("absent", "")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if len(notFound.SearchPaths) != 1 || notFound.SearchPaths[0] != root {
		t.Fatalf("search paths: %v", notFound.SearchPaths)
	}
}

func TestRegistry_MissingScriptSilentlySkipped(t *testing.T) {
	root := t.TempDir()
	seedRecipe(t, root, "atomic/system", "no_script", "atomic", "python", nil, false)

	r := NewRegistry([]Root{{Path: root, Source: SourceUser}}, zerolog.Nop())
	if _, err := r.Find("no_script", ""); err == nil {
		t.Fatal("script-less recipe should not register")
	}
}

func TestRegistry_WrongSuffixSkipped(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "atomic/system", "mismatched")
	seedRecipe(t, root, "atomic/system", "mismatched", "atomic", "python", nil, false)
	// A shell script next to a python declaration does not count.
	if err := os.WriteFile(filepath.Join(dir, "recipe.sh"), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewRegistry([]Root{{Path: root, Source: SourceUser}}, zerolog.Nop())
	if _, err := r.Find("mismatched", ""); err == nil {
		t.Fatal("runtime/script mismatch should not register")
	}
}

func TestRegistry_CorruptCandidateDoesNotBlockOthers(t *testing.T) {
	root := t.TempDir()
	seedRecipe(t, root, "atomic/chrome", "good", "atomic", "chrome-js", nil, true)
	badDir := filepath.Join(root, "atomic/chrome", "bad")
	if err := os.MkdirAll(badDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(badDir, "recipe.md"), []byte("---\n: [broken\n---\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewRegistry([]Root{{Path: root, Source: SourceUser}}, zerolog.Nop())
	if _, err := r.Find("good", ""); err != nil {
		t.Fatalf("good recipe lost: %v", err)
	}
}

func TestRegistry_WorkflowDependencyPruning(t *testing.T) {
	root := t.TempDir()
	seedRecipe(t, root, "atomic/chrome", "step_one", "atomic", "chrome-js", nil, true)
	seedRecipe(t, root, "workflows", "resolved_flow", "workflow", "python", []string{"step_one"}, true)
	seedRecipe(t, root, "workflows", "broken_flow", "workflow", "python", []string{"step_one", "vanished"}, true)

	r := NewRegistry([]Root{{Path: root, Source: SourceUser}}, zerolog.Nop())

	if _, err := r.Find("resolved_flow", ""); err != nil {
		t.Fatalf("resolved workflow lost: %v", err)
	}
	if _, err := r.Find("broken_flow", ""); err == nil {
		t.Fatal("workflow with unresolved dependency should be unregistered")
	}
	// Its atomic dependency stays.
	if _, err := r.Find("step_one", ""); err != nil {
		t.Fatalf("atomic dependency lost: %v", err)
	}
	for _, rec := range r.ListAll() {
		if rec.Name == "broken_flow" {
			t.Fatal("broken workflow surfaced in ListAll")
		}
	}
}

func TestRegistry_WorkflowPruningCascades(t *testing.T) {
	root := t.TempDir()
	seedRecipe(t, root, "atomic/chrome", "leaf", "atomic", "chrome-js", nil, true)
	// inner depends on a missing recipe; outer depends on inner. Both
	// must go, whatever order the scan visits them in.
	seedRecipe(t, root, "workflows", "inner", "workflow", "python", []string{"leaf", "vanished"}, true)
	seedRecipe(t, root, "workflows", "outer", "workflow", "python", []string{"inner"}, true)

	r := NewRegistry([]Root{{Path: root, Source: SourceUser}}, zerolog.Nop())

	if _, err := r.Find("inner", ""); err == nil {
		t.Fatal("inner workflow should be unregistered")
	}
	if _, err := r.Find("outer", ""); err == nil {
		t.Fatal("workflow depending on a pruned workflow should be unregistered")
	}
	if _, err := r.Find("leaf", ""); err != nil {
		t.Fatalf("atomic recipe lost: %v", err)
	}
}

func TestRegistry_FindAllSourcesOrdered(t *testing.T) {
	userRoot := t.TempDir()
	projectRoot := t.TempDir()
	seedRecipe(t, userRoot, "atomic/system", "shared", "atomic", "shell", nil, true)
	seedRecipe(t, projectRoot, "atomic/system", "shared", "atomic", "shell", nil, true)

	r := NewRegistry([]Root{
		{Path: userRoot, Source: SourceUser},
		{Path: projectRoot, Source: SourceProject},
	}, zerolog.Nop())

	all := r.FindAllSources("shared")
	if len(all) != 2 {
		t.Fatalf("got %d sources want 2", len(all))
	}
	if all[0].Source != SourceProject || all[1].Source != SourceUser {
		t.Fatalf("priority order broken: %v %v", all[0].Source, all[1].Source)
	}

	// Explicit source targets one tier.
	rec, err := r.Find("shared", SourceProject)
	if err != nil || rec.Source != SourceProject {
		t.Fatalf("explicit source lookup: %+v, %v", rec, err)
	}
}
