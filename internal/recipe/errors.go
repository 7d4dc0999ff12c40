package recipe

import (
	"fmt"
	"strings"
)

// MetadataParseError means recipe.md existed but its frontmatter could
// not be decoded. The candidate is skipped, not fatal to the scan.
type MetadataParseError struct {
	Path string
	Err  error
}

func (e *MetadataParseError) Error() string {
	return fmt.Sprintf("parse recipe metadata %s: %v", e.Path, e.Err)
}

func (e *MetadataParseError) Unwrap() error { return e.Err }

// ValidationError collects every rule a recipe's metadata or a runner
// call's parameters violated.
type ValidationError struct {
	Recipe   string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("recipe %s invalid: %s", e.Recipe, strings.Join(e.Problems, "; "))
}

// NotFoundError reports a lookup miss together with where we looked.
type NotFoundError struct {
	Name        string
	SearchPaths []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("recipe %q not found (searched %s)", e.Name, strings.Join(e.SearchPaths, ", "))
}
