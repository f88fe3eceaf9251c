// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type countingFetcher struct {
	calls   int
	results map[string]*FetchResult
	err     error
}

func (f *countingFetcher) Fetch(_ context.Context, req FetchRequest) (*FetchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	res, ok := f.results[req.Identifier]
	if !ok {
		return nil, errors.New("no such package")
	}
	return res, nil
}

func TestResolveBuiltin(t *testing.T) {
	t.Parallel()

	r := NewDependencyResolver(nil)
	req, err := r.Resolve(t.Context(), Builtin("vulkan"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(req.LinkTargets, []string{"vulkan"}) {
		t.Errorf("LinkTargets = %v", req.LinkTargets)
	}
}

func TestResolveUnknownBuiltin(t *testing.T) {
	t.Parallel()

	_, err := NewDependencyResolver(nil).Resolve(t.Context(), Builtin("directx"))
	var ube *UnknownBuiltinError
	if !errors.As(err, &ube) || ube.Identifier != "directx" {
		t.Fatalf("Resolve() = %v, want UnknownBuiltinError", err)
	}
}

func TestResolvePackageRecordsOnce(t *testing.T) {
	t.Parallel()

	f := &countingFetcher{results: map[string]*FetchResult{
		"zlib": {Root: "/cache/zlib", Requirements: Requirements{
			IncludePaths: []string{"/cache/zlib/include"},
			Defines:      Defines{"ZLIB_CONST": "1"},
			LinkTargets:  []string{"z"},
		}},
	}}
	r := NewDependencyResolver(f)
	dep := Package("zlib", "https://example.com/zlib.git", "v1.3.0")

	for range 3 {
		if _, err := r.Resolve(t.Context(), dep); err != nil {
			t.Fatal(err)
		}
	}
	if f.calls != 1 {
		t.Errorf("fetcher called %d times, want 1", f.calls)
	}
	if dep.Root() != "/cache/zlib" || !dep.Resolved() {
		t.Errorf("dep root = %q resolved = %v", dep.Root(), dep.Resolved())
	}

	req, _ := dep.Requirements()
	req.LinkTargets[0] = "mutated"
	again, _ := dep.Requirements()
	if again.LinkTargets[0] != "z" {
		t.Error("Requirements() exposes internal state")
	}
}

func TestResolvePackageFetchError(t *testing.T) {
	t.Parallel()

	cause := errors.New("network unreachable")
	r := NewDependencyResolver(&countingFetcher{err: cause})
	dep := Package("zlib", "https://example.com/zlib.git", "")

	_, err := r.Resolve(t.Context(), dep)
	var dfe *DependencyFetchError
	if !errors.As(err, &dfe) || dfe.Identifier != "zlib" {
		t.Fatalf("Resolve() = %v, want DependencyFetchError", err)
	}
	if !errors.Is(err, ErrDependencyFetch) || !errors.Is(err, cause) {
		t.Errorf("error chain missing sentinel or cause: %v", err)
	}
	if dep.Resolved() {
		t.Error("failed fetch must not record requirements")
	}
}

func TestResolvePackageNilResult(t *testing.T) {
	t.Parallel()

	r := NewDependencyResolver(&countingFetcher{results: map[string]*FetchResult{"zlib": nil}})
	dep := Package("zlib", "./zlib", "")

	_, err := r.Resolve(t.Context(), dep)
	if !errors.Is(err, ErrDependencyFetch) || !errors.Is(err, ErrEmptyFetchResult) {
		t.Fatalf("Resolve() = %v, want DependencyFetchError wrapping ErrEmptyFetchResult", err)
	}
	if dep.Resolved() {
		t.Error("empty fetch result must not record requirements")
	}
}

func TestResolvePackageWithoutFetcher(t *testing.T) {
	t.Parallel()

	_, err := NewDependencyResolver(nil).Resolve(t.Context(), Package("zlib", "./zlib", ""))
	if !errors.Is(err, ErrNoFetcher) {
		t.Errorf("Resolve() = %v, want ErrNoFetcher", err)
	}
}

func TestMergeDedupesAndDetectsConflicts(t *testing.T) {
	t.Parallel()

	r := &DependencyResolver{Builtins: BuiltinRegistry{
		"a": {IncludePaths: []string{"/inc"}, Defines: Defines{"X": "1"}, LinkTargets: []string{"m", "dl"}},
		"b": {IncludePaths: []string{"/inc", "/b"}, Defines: Defines{"X": "1"}, LinkTargets: []string{"dl"}},
		"c": {Defines: Defines{"X": "2"}},
	}}

	cfg := Config{IncludePaths: []string{"/own"}}
	links, err := r.Merge(t.Context(), &cfg, []*DependencySpec{Builtin("a"), Builtin("b")})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg.IncludePaths, []string{"/own", "/inc", "/b"}) {
		t.Errorf("IncludePaths = %v", cfg.IncludePaths)
	}
	if !reflect.DeepEqual(links, []string{"m", "dl"}) {
		t.Errorf("links = %v", links)
	}

	_, err = r.Merge(t.Context(), &Config{}, []*DependencySpec{Builtin("a"), Builtin("c")})
	var dce *DefineConflictError
	if !errors.As(err, &dce) || dce.Name != "X" || dce.Origin != "builtin c" {
		t.Errorf("Merge() = %v, want DefineConflictError from builtin c", err)
	}
}

func TestBuiltinNames(t *testing.T) {
	t.Parallel()

	want := []string{"dl", "math", "opengl", "threads", "vulkan", "win32"}
	if got := DefaultBuiltins().Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}
