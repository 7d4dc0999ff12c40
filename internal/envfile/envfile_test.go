package envfile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	content := `
# comment
API_KEY=abc123
export TOKEN="quoted value"
SINGLE='single quoted'
EMPTY=
SPACED = padded
NOEQUALS
MIXED="half'
`
	got := Parse(content)
	want := map[string]string{
		"API_KEY": "abc123",
		"TOKEN":   "quoted value",
		"SINGLE":  "single quoted",
		"EMPTY":   "",
		"SPACED":  "padded",
		"MIXED":   `"half'`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Parse mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty map: %v", got)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestMerge_Precedence(t *testing.T) {
	dir := t.TempDir()
	user := writeFile(t, dir, "user.env", "SHARED=user\nUSER_ONLY=u\n")
	project := writeFile(t, dir, "project.env", "SHARED=project\nPROJ_ONLY=p\n")

	l := Layers{
		Overrides:   map[string]string{"SHARED": "cli"},
		Workflow:    map[string]string{"WF_ONLY": "w", "PROJ_ONLY": "wf-wins"},
		ProjectFile: project,
		UserFile:    user,
		Process:     func() []string { return []string{"SHARED=process", "PROC_ONLY=pr"} },
	}
	got, err := l.Merge()
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	want := map[string]string{
		"SHARED":    "cli",
		"USER_ONLY": "u",
		"PROJ_ONLY": "wf-wins",
		"WF_ONLY":   "w",
		"PROC_ONLY": "pr",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("merge mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestMerge_EachLayerBeatsTheOneBelow(t *testing.T) {
	dir := t.TempDir()
	user := writeFile(t, dir, "user.env", "K=user\n")
	project := writeFile(t, dir, "project.env", "K=project\n")
	base := Layers{
		UserFile: user,
		Process:  func() []string { return []string{"K=process"} },
	}

	steps := []struct {
		name string
		mut  func(*Layers)
		want string
	}{
		{"process", func(l *Layers) { l.UserFile = "" }, "process"},
		{"user beats process", func(l *Layers) {}, "user"},
		{"project beats user", func(l *Layers) { l.ProjectFile = project }, "project"},
		{"workflow beats project", func(l *Layers) {
			l.ProjectFile = project
			l.Workflow = map[string]string{"K": "workflow"}
		}, "workflow"},
		{"cli beats workflow", func(l *Layers) {
			l.ProjectFile = project
			l.Workflow = map[string]string{"K": "workflow"}
			l.Overrides = map[string]string{"K": "cli"}
		}, "cli"},
	}
	for _, step := range steps {
		l := base
		step.mut(&l)
		got, err := l.Merge()
		if err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		if got["K"] != step.want {
			t.Fatalf("%s: K=%q want %q", step.name, got["K"], step.want)
		}
	}
}

func TestResolve_DefaultsAndRequired(t *testing.T) {
	l := Layers{Process: func() []string { return []string{"PRESENT=yes"} }}
	decls := []Decl{
		{Name: "PRESENT", Required: true},
		{Name: "WITH_DEFAULT", Default: "fallback"},
		{Name: "OPTIONAL_ABSENT"},
	}
	got, err := l.Resolve("my-recipe", decls)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got["PRESENT"] != "yes" || got["WITH_DEFAULT"] != "fallback" {
		t.Fatalf("resolve values: %v", got)
	}
	if _, ok := got["OPTIONAL_ABSENT"]; ok {
		t.Fatal("optional absent var should stay absent")
	}
}

func TestResolve_MissingRequiredEnumerated(t *testing.T) {
	l := Layers{Process: func() []string { return nil }}
	decls := []Decl{
		{Name: "B_KEY", Required: true},
		{Name: "A_KEY", Required: true},
		{Name: "FINE", Default: "d", Required: true},
	}
	_, err := l.Resolve("scraper", decls)
	var missing *MissingVarsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingVarsError, got %v", err)
	}
	if !reflect.DeepEqual(missing.Missing, []string{"A_KEY", "B_KEY"}) {
		t.Fatalf("missing list: %v", missing.Missing)
	}
	if missing.Recipe != "scraper" || !strings.Contains(missing.Error(), "A_KEY") {
		t.Fatalf("error text: %v", missing)
	}
}

func TestUpdate_InPlacePreservesComments(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "# credentials\nAPI_KEY=old\n\nKEEP=1\nDOOMED=x\n")

	newVal := "new"
	added := "fresh"
	if err := Update(path, map[string]*string{
		"API_KEY": &newVal,
		"DOOMED":  nil,
		"ADDED":   &added,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := "# credentials\nAPI_KEY=new\n\nKEEP=1\nADDED=fresh\n"
	if string(b) != want {
		t.Fatalf("content:\n got %q\nwant %q", b, want)
	}
}

func TestUpdate_CreatesFileAndQuotes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", ".env")
	v := "has spaces"
	if err := Update(path, map[string]*string{"MSG": &v}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got["MSG"] != "has spaces" {
		t.Fatalf("round trip: %v", got)
	}
}
