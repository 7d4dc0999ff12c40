package recipe

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
)

// subtrees scanned under each search root.
var scanSubtrees = []string{
	filepath.Join("atomic", "chrome"),
	filepath.Join("atomic", "system"),
	"workflows",
}

// Root pairs a search directory with the source tier its recipes get.
type Root struct {
	Path   string
	Source Source
}

// DefaultRoot returns the core search root, ~/.frago/recipes, tiered as
// User.
func DefaultRoot() (Root, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Root{}, fmt.Errorf("resolve home dir: %w", err)
	}
	return Root{Path: filepath.Join(home, ".frago", "recipes"), Source: SourceUser}, nil
}

// Registry holds every validated recipe, indexed name → source.
type Registry struct {
	roots   []Root
	log     zerolog.Logger
	recipes map[string]map[Source]*Recipe
}

// NewRegistry scans the given roots immediately. Scanning is
// best-effort: candidates that fail to parse or validate are logged and
// skipped, never fatal.
func NewRegistry(roots []Root, log zerolog.Logger) *Registry {
	r := &Registry{
		roots:   roots,
		log:     log,
		recipes: map[string]map[Source]*Recipe{},
	}
	r.scan()
	r.pruneWorkflows()
	return r
}

func (r *Registry) scan() {
	for _, root := range r.roots {
		for _, subtree := range scanSubtrees {
			pattern := filepath.Join(root.Path, subtree, "*", "recipe.md")
			matches, err := doublestar.FilepathGlob(pattern)
			if err != nil {
				r.log.Warn().Err(err).Str("pattern", pattern).Msg("recipe scan failed")
				continue
			}
			for _, md := range matches {
				r.register(md, root.Source)
			}
		}
	}
}

func (r *Registry) register(metadataPath string, source Source) {
	rec, err := ParseMetadata(metadataPath)
	if err != nil {
		r.log.Debug().Err(err).Str("path", metadataPath).Msg("skipping unparsable recipe")
		return
	}
	if err := rec.Validate(); err != nil {
		r.log.Debug().Err(err).Str("path", metadataPath).Msg("skipping invalid recipe")
		return
	}

	dir := filepath.Dir(metadataPath)
	script := filepath.Join(dir, rec.ScriptName())
	if _, err := os.Stat(script); err != nil {
		// Declared runtime has no matching script; not registered.
		r.log.Debug().Str("path", metadataPath).Str("script", rec.ScriptName()).Msg("skipping recipe without script")
		return
	}

	rec.Source = source
	rec.Dir = dir
	rec.ScriptPath = script
	if r.recipes[rec.Name] == nil {
		r.recipes[rec.Name] = map[Source]*Recipe{}
	}
	r.recipes[rec.Name][source] = rec
}

// pruneWorkflows unregisters workflows whose dependencies do not resolve
// to any registered recipe. Their atomic dependencies stay. Removing a
// workflow can orphan workflows depending on it, so the pass repeats
// until nothing changes.
func (r *Registry) pruneWorkflows() {
	for {
		removed := false
		for name, bySource := range r.recipes {
			for source, rec := range bySource {
				if rec.Type != TypeWorkflow {
					continue
				}
				for _, dep := range rec.Dependencies {
					if len(r.recipes[dep]) == 0 {
						r.log.Warn().Str("workflow", name).Str("dependency", dep).Msg("unregistering workflow with unresolved dependency")
						delete(bySource, source)
						removed = true
						break
					}
				}
			}
			if len(bySource) == 0 {
				delete(r.recipes, name)
			}
		}
		if !removed {
			return
		}
	}
}

// SearchPaths reports where this registry looks, for error messages.
func (r *Registry) SearchPaths() []string {
	var paths []string
	for _, root := range r.roots {
		paths = append(paths, root.Path)
	}
	return paths
}

// Find returns the recipe by name. Without an explicit source the User
// tier answers; with one, only that tier is consulted.
func (r *Registry) Find(name string, source Source) (*Recipe, error) {
	bySource := r.recipes[name]
	if source == "" {
		source = SourceUser
	}
	if rec, ok := bySource[source]; ok {
		return rec, nil
	}
	return nil, &NotFoundError{Name: name, SearchPaths: r.SearchPaths()}
}

// FindAllSources returns every tier's copy of name, ordered Project,
// User, Example.
func (r *Registry) FindAllSources(name string) []*Recipe {
	bySource := r.recipes[name]
	var out []*Recipe
	for _, source := range sourcePriority {
		if rec, ok := bySource[source]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// ListAll returns every registered recipe sorted by name then source
// priority.
func (r *Registry) ListAll() []*Recipe {
	names := make([]string, 0, len(r.recipes))
	for name := range r.recipes {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []*Recipe
	for _, name := range names {
		out = append(out, r.FindAllSources(name)...)
	}
	return out
}
