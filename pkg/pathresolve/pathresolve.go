// SPDX-License-Identifier: MPL-2.0

package pathresolve

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ErrPathNotFound is the sentinel error wrapped by PathNotFoundError.
	ErrPathNotFound = errors.New("path not found")
	// ErrInvalidPattern is the sentinel error wrapped by InvalidPatternError.
	ErrInvalidPattern = errors.New("invalid glob pattern")
)

type (
	// PathNotFoundError is returned by Exclude when the target path is not a
	// member of the resolved set.
	PathNotFoundError struct {
		Path string
	}

	// InvalidPatternError is returned when a glob pattern cannot be parsed.
	InvalidPatternError struct {
		Pattern string
		Err     error
	}
)

// Error implements the error interface.
func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("path %q is not part of the resolved file set", e.Path)
}

// Unwrap returns ErrPathNotFound for errors.Is compatibility.
func (e *PathNotFoundError) Unwrap() error { return ErrPathNotFound }

// Error implements the error interface.
func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid glob pattern %q: %v", e.Pattern, e.Err)
}

// Unwrap returns ErrInvalidPattern for errors.Is compatibility.
func (e *InvalidPatternError) Unwrap() error { return ErrInvalidPattern }

// Resolve expands patterns relative to baseDir and returns absolute, cleaned
// file paths. Directories are never returned. A pattern that matches nothing
// contributes nothing; it is not an error.
func Resolve(baseDir string, patterns []string) ([]string, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory %q: %w", baseDir, err)
	}

	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range patterns {
		matches, err := expand(absBase, pattern)
		if err != nil {
			return nil, err
		}
		slices.Sort(matches)
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out, nil
}

// expand globs a single pattern. Absolute patterns, and relative ones whose
// static prefix leaves baseDir through "..", are split into a static base and
// a relative remainder so they can be matched against an fs.FS.
func expand(absBase, pattern string) ([]string, error) {
	root := absBase
	rel := filepath.ToSlash(pattern)
	if !filepath.IsAbs(pattern) && climbsOut(rel) {
		rel = filepath.ToSlash(filepath.Join(absBase, filepath.FromSlash(rel)))
	}
	if filepath.IsAbs(filepath.FromSlash(rel)) {
		base, rest := doublestar.SplitPattern(rel)
		root = filepath.FromSlash(base)
		rel = rest
	}
	if !doublestar.ValidatePattern(rel) {
		return nil, &InvalidPatternError{Pattern: pattern, Err: doublestar.ErrBadPattern}
	}

	matches, err := doublestar.Glob(os.DirFS(root), rel, doublestar.WithFilesOnly())
	if err != nil {
		return nil, &InvalidPatternError{Pattern: pattern, Err: err}
	}
	for i, m := range matches {
		matches[i] = filepath.Join(root, filepath.FromSlash(m))
	}
	return matches, nil
}

// climbsOut reports whether the static prefix of a slash-separated relative
// pattern has a ".." segment. fs.FS paths cannot express such a prefix.
func climbsOut(pattern string) bool {
	base, _ := doublestar.SplitPattern(pattern)
	return slices.Contains(strings.Split(base, "/"), "..")
}

// Normalize returns path as an absolute, cleaned path. Relative paths are
// interpreted against baseDir.
func Normalize(baseDir, path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, filepath.FromSlash(path))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("normalize %q: %w", path, err)
	}
	return abs, nil
}

// Exclude returns a copy of paths without target. The comparison is exact on
// cleaned absolute paths; a target that is not present fails with
// PathNotFoundError rather than being ignored.
func Exclude(paths []string, target string) ([]string, error) {
	target = filepath.Clean(target)
	idx := slices.Index(paths, target)
	if idx < 0 {
		return nil, &PathNotFoundError{Path: target}
	}
	out := make([]string, 0, len(paths)-1)
	out = append(out, paths[:idx]...)
	out = append(out, paths[idx+1:]...)
	return out, nil
}
