// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalFetcher serves packages that already exist on disk.
type LocalFetcher struct {
	// Base resolves relative sources; normally the workspace root.
	Base string
}

// Locate returns the absolute package root for source.
func (f *LocalFetcher) Locate(_ context.Context, source string) (string, error) {
	path := strings.TrimPrefix(source, "file://")
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.Base, filepath.FromSlash(path))
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("local package: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("local package %s is not a directory", path)
	}
	return path, nil
}

// IsLocalSource reports whether source names a path rather than a remote
// repository.
func IsLocalSource(source string) bool {
	if strings.HasPrefix(source, "file://") {
		return true
	}
	for _, prefix := range []string{"https://", "http://", "ssh://", "git://", "git@", "git+"} {
		if strings.HasPrefix(source, prefix) {
			return false
		}
	}
	return !strings.HasSuffix(source, ".git")
}
