package config

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher evaluates Include/Exclude glob patterns against paths relative
// to a project root, using doublestar for full glob syntax including
// "**".
type Matcher struct {
	root    string
	include []string
	exclude []string
}

func NewMatcher(cfg *Config) *Matcher {
	return &Matcher{
		root:    cfg.Project.Root,
		include: cfg.Include,
		exclude: cfg.Exclude,
	}
}

// Allowed reports whether path should be considered for ingestion: not
// matched by any Exclude pattern, and matched by an Include pattern if
// any are configured.
func (m *Matcher) Allowed(path string) bool {
	rel, err := filepath.Rel(m.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range m.exclude {
		if matchGlob(pattern, rel) {
			return false
		}
	}
	if len(m.include) == 0 {
		return true
	}
	for _, pattern := range m.include {
		if matchGlob(pattern, rel) {
			return true
		}
	}
	return false
}

func matchGlob(pattern, path string) bool {
	ok, err := doublestar.Match(pattern, path)
	if err != nil {
		return false
	}
	if ok {
		return true
	}
	// Also match bare basename patterns like "*.log" against the full
	// relative path's trailing segment, matching .gitignore semantics.
	if !strings.Contains(pattern, "/") {
		ok, _ = doublestar.Match(pattern, filepath.Base(path))
		return ok
	}
	return false
}
