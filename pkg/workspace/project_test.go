// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"errors"
	"reflect"
	"testing"
)

func newEngine(t *testing.T) *Project {
	t.Helper()
	p := NewProject("engine", Executable).AddSources("src/**/*.cpp").Include("include")
	if err := p.Define("ENGINE", 1); err != nil {
		t.Fatal(err)
	}
	if err := p.Set("optimize", false); err != nil {
		t.Fatal(err)
	}
	if err := p.Set("debug", false); err != nil {
		t.Fatal(err)
	}
	p.Filter("debug").Set("debug", true)
	p.Filter("release").Set("optimize", true).ReplaceDefines(Defines{"NDEBUG": "1"}).ReplaceIncludePaths()
	return p
}

func TestEffectiveAppliesOverrides(t *testing.T) {
	t.Parallel()
	p := newEngine(t)

	debug, err := p.Effective("debug")
	if err != nil {
		t.Fatal(err)
	}
	if debug.Settings["debug"] != true || debug.Settings["optimize"] != false {
		t.Errorf("debug settings = %v", debug.Settings)
	}
	if !reflect.DeepEqual(debug.Defines, Defines{"ENGINE": "1"}) {
		t.Errorf("debug defines = %v, want base defines", debug.Defines)
	}
	if !reflect.DeepEqual(debug.IncludePaths, []string{"include"}) {
		t.Errorf("debug includes = %v", debug.IncludePaths)
	}

	release, err := p.Effective("release")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(release.Defines, Defines{"NDEBUG": "1"}) {
		t.Errorf("release defines = %v, want whole replacement", release.Defines)
	}
	if release.IncludePaths == nil || len(release.IncludePaths) != 0 {
		t.Errorf("release includes = %#v, want empty replacement", release.IncludePaths)
	}
}

func TestEffectiveIsolatesVariants(t *testing.T) {
	t.Parallel()
	p := newEngine(t)
	before := p.Base()

	first, err := p.Effective("debug")
	if err != nil {
		t.Fatal(err)
	}
	first.Settings["debug"] = "mutated"
	first.Defines["EXTRA"] = "1"

	if _, err := p.Effective("release"); err != nil {
		t.Fatal(err)
	}
	again, err := p.Effective("debug")
	if err != nil {
		t.Fatal(err)
	}
	if again.Settings["debug"] != true {
		t.Errorf("Effective is not idempotent: %v", again.Settings)
	}
	if _, ok := again.Defines["EXTRA"]; ok {
		t.Error("mutating an effective config leaked into the project")
	}
	if !reflect.DeepEqual(p.Base(), before) {
		t.Errorf("base changed: %+v -> %+v", before, p.Base())
	}
}

func TestEffectiveEmptyVariantIsBase(t *testing.T) {
	t.Parallel()
	p := newEngine(t)

	got, err := p.Effective("")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, p.Base()) {
		t.Errorf("Effective(\"\") = %+v, want base %+v", got, p.Base())
	}
}

func TestEffectiveUnknownVariant(t *testing.T) {
	t.Parallel()
	p := newEngine(t)

	_, err := p.Effective("profile")
	var ufe *UnknownFilterError
	if !errors.As(err, &ufe) {
		t.Fatalf("Effective(profile) = %v, want UnknownFilterError", err)
	}
	if ufe.Project != "engine" || ufe.Variant != "profile" {
		t.Errorf("error = %+v", ufe)
	}
	if !errors.Is(err, ErrUnknownFilter) {
		t.Error("errors.Is(err, ErrUnknownFilter) = false")
	}
}

func TestProjectVariants(t *testing.T) {
	t.Parallel()
	if got := newEngine(t).Variants(); !reflect.DeepEqual(got, []string{"debug", "release"}) {
		t.Errorf("Variants() = %v", got)
	}
}

func TestProjectValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		project *Project
		wantErr bool
	}{
		{"valid", NewProject("engine", StaticLib), false},
		{"empty name", NewProject("", Executable), true},
		{"bad characters", NewProject("my engine", Executable), true},
		{"reserved", NewProject("con", Executable), true},
		{"bad kind", NewProject("engine", TargetKind("dll")), true},
		{"package without source", NewProject("engine", Executable).Depend(Package("zlib", "", "")), true},
		{"builtin", NewProject("engine", Executable).Depend(Builtin("vulkan")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.project.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidProject) {
				t.Errorf("Validate() = %v, want ErrInvalidProject", err)
			}
		})
	}
}

func TestSetRejectsNonScalar(t *testing.T) {
	t.Parallel()
	if err := NewProject("engine", Executable).Set("flags", []string{"-O2"}); !errors.Is(err, ErrInvalidProject) {
		t.Errorf("Set(slice) = %v, want ErrInvalidProject", err)
	}
}

func TestWorkspaceAddDuplicate(t *testing.T) {
	t.Parallel()

	ws := New("game", t.TempDir())
	if err := ws.Add(NewProject("engine", Executable), NewProject("tools", StaticLib)); err != nil {
		t.Fatal(err)
	}
	err := ws.Add(NewProject("engine", SharedLib))
	var dup *DuplicateProjectError
	if !errors.As(err, &dup) || dup.Name != "engine" {
		t.Fatalf("Add(duplicate) = %v, want DuplicateProjectError", err)
	}
	if len(ws.Projects()) != 2 {
		t.Errorf("projects = %d, want 2", len(ws.Projects()))
	}
	if ws.Project("tools") == nil || ws.Project("missing") != nil {
		t.Error("Project lookup mismatch")
	}
}
