// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"

	"cuelang.org/go/cue"
)

const testSchema = `
#Target: {
	name:         string & =~"^[a-z]+$"
	count:        int
	enabled:      bool
	description?: string
	settings?: [string]: string | number | bool
}
`

type testTarget struct {
	Name        string `json:"name"`
	Count       int    `json:"count"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description,omitempty"`
}

func TestDecode(t *testing.T) {
	t.Parallel()
	schema := MustCompileSchema([]byte(testSchema), "#Target")

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		res, err := Decode[testTarget](schema, []byte(`
name: "engine"
count: 42
enabled: true
description: "renderer"
`))
		if err != nil {
			t.Fatalf("Decode() = %v", err)
		}
		want := testTarget{Name: "engine", Count: 42, Enabled: true, Description: "renderer"}
		if *res.Value != want {
			t.Errorf("Decode() = %+v, want %+v", *res.Value, want)
		}
	})

	t.Run("optional field omitted", func(t *testing.T) {
		t.Parallel()
		res, err := Decode[testTarget](schema, []byte(`name: "tools", count: 1, enabled: false`))
		if err != nil {
			t.Fatalf("Decode() = %v", err)
		}
		if res.Value.Description != "" {
			t.Errorf("Description = %q", res.Value.Description)
		}
	})

	t.Run("type mismatch names the path", func(t *testing.T) {
		t.Parallel()
		_, err := Decode[testTarget](schema, []byte(`name: "x", count: "many", enabled: true`), WithFilename("jmake.cue"))
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Decode() = %v, want ValidationError", err)
		}
		if ve.FilePath != "jmake.cue" || !strings.Contains(err.Error(), "count") {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("constraint violation", func(t *testing.T) {
		t.Parallel()
		if _, err := Decode[testTarget](schema, []byte(`name: "Bad Name", count: 1, enabled: true`)); err == nil {
			t.Error("Decode() should reject name not matching the pattern")
		}
	})

	t.Run("syntax error", func(t *testing.T) {
		t.Parallel()
		if _, err := Decode[testTarget](schema, []byte(`name: "x" count:`)); err == nil {
			t.Error("Decode() should reject malformed CUE")
		}
	})

	t.Run("incomplete when concrete", func(t *testing.T) {
		t.Parallel()
		if _, err := Decode[testTarget](schema, []byte(`name: "x", enabled: true`)); err == nil {
			t.Error("Decode() should require count")
		}
	})

	t.Run("size limit", func(t *testing.T) {
		t.Parallel()
		_, err := Decode[testTarget](schema, []byte(`name: "x", count: 1, enabled: true`), WithMaxFileSize(4))
		if !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("Decode() = %v, want ErrFileTooLarge", err)
		}
	})
}

func TestCompileSchemaMissingDefinition(t *testing.T) {
	t.Parallel()
	if _, err := CompileSchema([]byte(testSchema), "#Missing"); err == nil {
		t.Error("CompileSchema() should fail for a missing definition")
	}
}

func TestScalars(t *testing.T) {
	t.Parallel()
	schema := MustCompileSchema([]byte(testSchema), "#Target")

	res, err := Decode[testTarget](schema, []byte(`
name: "x"
count: 1
enabled: true
settings: {
	debug: true
	level: 3
	ratio: 0.5
	std: "c++20"
}
`))
	if err != nil {
		t.Fatal(err)
	}
	got, err := Scalars(res.Unified, cue.ParsePath("settings"))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"debug": true, "level": int64(3), "ratio": 0.5, "std": "c++20"}
	if len(got) != len(want) {
		t.Fatalf("Scalars() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Scalars()[%s] = %#v, want %#v", k, got[k], v)
		}
	}

	missing, err := Scalars(res.Unified, cue.ParsePath("nothing"))
	if err != nil || missing != nil {
		t.Errorf("Scalars(missing) = %v, %v", missing, err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"name"}, "name"},
		{[]string{"projects", "kind"}, "projects.kind"},
		{[]string{"projects", "0", "kind"}, "projects[0].kind"},
		{[]string{"projects", "0", "filters", "debug", "1"}, "projects[0].filters.debug[1]"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestFormatErrorNonCUE(t *testing.T) {
	t.Parallel()

	if FormatError(nil, "x.cue") != nil {
		t.Error("FormatError(nil) != nil")
	}
	cause := errors.New("boom")
	err := FormatError(cause, "x.cue")
	if !errors.Is(err, cause) || !strings.HasPrefix(err.Error(), "x.cue: ") {
		t.Errorf("FormatError() = %v", err)
	}
}
