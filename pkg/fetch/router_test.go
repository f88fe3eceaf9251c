// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jmake/jmake/internal/testutil"
	"github.com/jmake/jmake/pkg/workspace"
)

func packageTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"third_party/zlib/jmakepkg.cue": `
name: "zlib"
version: "v1.3.1"
include: ["include"]
defines: {ZLIB_CONST: 1}
link: ["z"]
`,
		"third_party/png/jmakepkg.cue": `
name: "png"
include: ["include", "include"]
defines: {PNG_STATIC: true}
link: ["png"]
requires: [{package: "zlib", source: "../zlib", version: "v1.3.1"}]
`,
		"third_party/a/jmakepkg.cue": `
name: "a"
requires: [{package: "b", source: "../b"}]
`,
		"third_party/b/jmakepkg.cue": `
name: "b"
requires: [{package: "a", source: "../a"}]
`,
		"third_party/clash/jmakepkg.cue": `
name: "clash"
defines: {ZLIB_CONST: 0}
requires: [{package: "zlib", source: "../zlib"}]
`,
		"third_party/empty/README": "no manifest\n",
	})
	return root
}

func TestRouterLocalPackage(t *testing.T) {
	t.Parallel()
	root := packageTree(t)
	r := NewRouter(root, t.TempDir(), nil)

	res, err := r.Fetch(t.Context(), workspace.FetchRequest{Identifier: "zlib", Source: "third_party/zlib", Version: "v1.3.1"})
	if err != nil {
		t.Fatalf("Fetch() = %v", err)
	}
	zlib := filepath.Join(root, "third_party", "zlib")
	if res.Root != zlib {
		t.Errorf("Root = %q, want %q", res.Root, zlib)
	}
	want := workspace.Requirements{
		IncludePaths: []string{filepath.Join(zlib, "include")},
		Defines:      workspace.Defines{"ZLIB_CONST": "1"},
		LinkTargets:  []string{"z"},
	}
	if !reflect.DeepEqual(res.Requirements, want) {
		t.Errorf("Requirements = %+v, want %+v", res.Requirements, want)
	}
}

func TestRouterFlattensRequires(t *testing.T) {
	t.Parallel()
	root := packageTree(t)
	r := NewRouter(root, t.TempDir(), nil)

	res, err := r.Fetch(t.Context(), workspace.FetchRequest{Identifier: "png", Source: "file://" + filepath.Join(root, "third_party", "png")})
	if err != nil {
		t.Fatalf("Fetch() = %v", err)
	}
	want := workspace.Requirements{
		IncludePaths: testutil.Abs(root, "third_party/png/include", "third_party/zlib/include"),
		Defines:      workspace.Defines{"PNG_STATIC": "1", "ZLIB_CONST": "1"},
		LinkTargets:  []string{"png", "z"},
	}
	if !reflect.DeepEqual(res.Requirements, want) {
		t.Errorf("Requirements = %+v, want %+v", res.Requirements, want)
	}
}

func TestRouterErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  workspace.FetchRequest
		want error
	}{
		{"require cycle", workspace.FetchRequest{Identifier: "a", Source: "third_party/a"}, ErrRequireCycle},
		{"missing manifest", workspace.FetchRequest{Identifier: "empty", Source: "third_party/empty"}, ErrManifestNotFound},
		{"version mismatch", workspace.FetchRequest{Identifier: "zlib", Source: "third_party/zlib", Version: "v2.0.0"}, ErrVersionMismatch},
		{"transitive define conflict", workspace.FetchRequest{Identifier: "clash", Source: "third_party/clash"}, workspace.ErrDefineConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewRouter(packageTree(t), t.TempDir(), nil)
			if _, err := r.Fetch(t.Context(), tt.req); !errors.Is(err, tt.want) {
				t.Errorf("Fetch() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRouterMissingDirectory(t *testing.T) {
	t.Parallel()
	r := NewRouter(t.TempDir(), t.TempDir(), nil)
	if _, err := r.Fetch(t.Context(), workspace.FetchRequest{Identifier: "x", Source: "nowhere"}); err == nil {
		t.Error("Fetch() should fail for a missing directory")
	}
}

func TestRouterAsWorkspaceFetcher(t *testing.T) {
	t.Parallel()
	root := packageTree(t)
	testutil.WriteTree(t, root, map[string]string{"src/main.cpp": "int main() {}\n"})

	ws := workspace.New("app", root)
	app := workspace.NewProject("app", workspace.Executable).
		AddSources("src/*.cpp").
		Depend(workspace.Package("png", "third_party/png", ""), workspace.Builtin("math"))
	if err := ws.Add(app); err != nil {
		t.Fatal(err)
	}

	g := workspace.NewGenerator(NewRouter(root, t.TempDir(), nil), nil, nil)
	graph, err := g.Generate(t.Context(), ws, workspace.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := graph.Project("app").LinkTargets; !reflect.DeepEqual(got, []string{"png", "z", "m"}) {
		t.Errorf("LinkTargets = %v", got)
	}
}

func TestIsLocalSource(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"third_party/zlib":                   true,
		"/abs/zlib":                          true,
		"file:///abs/zlib":                   true,
		"https://github.com/madler/zlib.git": false,
		"git@github.com:madler/zlib.git":     false,
		"ssh://git@host/zlib":                false,
		"git+file:///srv/zlib":               false,
		"../zlib.git":                        false,
	}
	for source, want := range tests {
		if got := IsLocalSource(source); got != want {
			t.Errorf("IsLocalSource(%q) = %v, want %v", source, got, want)
		}
	}
}
