// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"golang.org/x/mod/semver"
)

var (
	// ErrInvalidVersion is returned for a version that is not a semver tag.
	ErrInvalidVersion = errors.New("invalid package version")
	// ErrTagNotFound is returned when a repository has no tag for the version.
	ErrTagNotFound = errors.New("version tag not found")
)

// GitFetcher clones package repositories into a cache directory and checks
// out the requested semver tag.
type GitFetcher struct {
	// CacheDir is the base directory of the clone cache.
	CacheDir string

	sshAuth  transport.AuthMethod
	httpAuth transport.AuthMethod
}

// NewGitFetcher creates a fetcher caching under cacheDir, picking up SSH
// keys or token environment variables for authentication.
func NewGitFetcher(cacheDir string) *GitFetcher {
	return &GitFetcher{CacheDir: cacheDir, sshAuth: sshAuth(), httpAuth: tokenAuth()}
}

// Locate clones or updates url and checks out version. An empty version
// selects the highest semver tag, or the default branch when the repository
// has none. It returns the checkout directory.
func (f *GitFetcher) Locate(ctx context.Context, url, version string) (string, error) {
	if version != "" && !semver.IsValid(version) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	url = strings.TrimPrefix(url, "git+")
	dest := f.cachePath(url, version)

	repo, err := git.PlainOpen(dest)
	switch {
	case err != nil:
		if repo, err = f.clone(ctx, url, dest); err != nil {
			return "", fmt.Errorf("clone %s: %w", url, err)
		}
	case version == "" || !hasTag(repo, version):
		// A stale cache may still satisfy the request when offline.
		_ = f.fetch(ctx, repo, url) //nolint:errcheck // checkout reports a missing tag
	}

	if version == "" {
		if version, err = latestTag(repo); err != nil {
			return "", err
		}
		if version == "" {
			return dest, nil
		}
	}
	if err := checkout(repo, version); err != nil {
		return "", fmt.Errorf("checkout %s@%s: %w", url, version, err)
	}
	return dest, nil
}

func (f *GitFetcher) clone(ctx context.Context, url, dest string) (*git.Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, err
	}
	repo, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:  url,
		Auth: f.authFor(url),
		Tags: git.AllTags,
	})
	if err != nil {
		_ = os.RemoveAll(dest)
		return nil, err
	}
	return repo, nil
}

func (f *GitFetcher) fetch(ctx context.Context, repo *git.Repository, url string) error {
	err := repo.FetchContext(ctx, &git.FetchOptions{
		Auth:  f.authFor(url),
		Tags:  git.AllTags,
		Force: true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return err
	}
	return nil
}

// latestTag returns the highest semver tag, or "" when there is none.
func latestTag(repo *git.Repository) (string, error) {
	iter, err := repo.Tags()
	if err != nil {
		return "", err
	}
	best := ""
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if semver.IsValid(name) && (best == "" || semver.Compare(name, best) > 0) {
			best = name
		}
		return nil
	})
	return best, err
}

func hasTag(repo *git.Repository, version string) bool {
	_, err := repo.Reference(plumbing.NewTagReferenceName(version), true)
	return err == nil
}

func checkout(repo *git.Repository, version string) error {
	ref, err := repo.Reference(plumbing.NewTagReferenceName(version), true)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrTagNotFound, version)
	}
	hash := ref.Hash()
	// Annotated tags point at a tag object rather than the commit.
	if tag, err := repo.TagObject(hash); err == nil {
		hash = tag.Target
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	return wt.Checkout(&git.CheckoutOptions{Hash: hash, Force: true})
}

// cachePath maps a repository URL and version to a cache directory, e.g.
// "https://github.com/user/zlib.git" at v1.3.1 becomes
// <cache>/sources/github.com/user/zlib@v1.3.1.
func (f *GitFetcher) cachePath(url, version string) string {
	path := url
	for _, prefix := range []string{"https://", "http://", "ssh://", "git://", "file://", "git@"} {
		path = strings.TrimPrefix(path, prefix)
	}
	path = strings.TrimSuffix(path, ".git")
	path = strings.ReplaceAll(path, ":", "/")
	path = strings.TrimLeft(path, "/")
	if version == "" {
		version = "latest"
	}
	return filepath.Join(f.CacheDir, "sources", filepath.FromSlash(path)+"@"+version)
}

// authFor picks credentials matching the URL's transport.
func (f *GitFetcher) authFor(url string) transport.AuthMethod {
	switch {
	case strings.HasPrefix(url, "https://"), strings.HasPrefix(url, "http://"):
		return f.httpAuth
	case strings.HasPrefix(url, "ssh://"), strings.HasPrefix(url, "git@"):
		return f.sshAuth
	default:
		return nil
	}
}

func sshAuth() transport.AuthMethod {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		keyPath := filepath.Join(home, ".ssh", name)
		if _, err := os.Stat(keyPath); err != nil {
			continue
		}
		if auth, err := ssh.NewPublicKeysFromFile("git", keyPath, ""); err == nil {
			return auth
		}
	}
	return nil
}

func tokenAuth() transport.AuthMethod {
	for _, env := range []struct{ name, user string }{
		{"GITHUB_TOKEN", "x-access-token"},
		{"GITLAB_TOKEN", "gitlab-ci-token"},
		{"GIT_TOKEN", "git"},
	} {
		if token := os.Getenv(env.name); token != "" {
			return &http.BasicAuth{Username: env.user, Password: token}
		}
	}
	return nil
}
