// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

type (
	// Schema is a compiled schema definition. CUE values can only be unified
	// within the context that built them, so a Schema owns its context and
	// serializes use of it.
	Schema struct {
		mu         sync.Mutex
		ctx        *cue.Context
		definition string
		root       cue.Value
	}

	// Result is a successful Decode.
	Result[T any] struct {
		// Value is the decoded Go struct.
		Value *T
		// Unified is the validated CUE value, for fields that do not map
		// onto a fixed Go type.
		Unified cue.Value
	}
)

// CompileSchema compiles source and looks up definition (e.g. "#Workspace").
func CompileSchema(source []byte, definition string) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(source)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	root := v.LookupPath(cue.ParsePath(definition))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("schema definition %s not found: %w", definition, err)
	}
	return &Schema{ctx: ctx, definition: definition, root: root}, nil
}

// MustCompileSchema is CompileSchema for embedded schemas; it panics on error.
func MustCompileSchema(source []byte, definition string) *Schema {
	s, err := CompileSchema(source, definition)
	if err != nil {
		panic(err)
	}
	return s
}

// Definition returns the schema definition path.
func (s *Schema) Definition() string { return s.definition }

// Decode unifies data with the schema, validates it and decodes it into T.
func Decode[T any](s *Schema, data []byte, opts ...Option) (*Result[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := CheckFileSize(data, o.maxFileSize, o.filename); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.ctx.CompileBytes(data, cue.Filename(o.filename))
	if err := user.Err(); err != nil {
		return nil, FormatError(err, o.filename)
	}

	unified := s.root.Unify(user)
	var validateOpts []cue.Option
	if o.concrete {
		validateOpts = append(validateOpts, cue.Concrete(true))
	}
	if err := unified.Validate(validateOpts...); err != nil {
		return nil, FormatError(err, o.filename)
	}

	var out T
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, o.filename)
	}
	return &Result[T]{Value: &out, Unified: unified}, nil
}
