// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
)

// Scalar converts a concrete CUE scalar into string, bool, int64 or float64.
func Scalar(v cue.Value) (any, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return v.String()
	case cue.BoolKind:
		return v.Bool()
	case cue.IntKind:
		return v.Int64()
	case cue.FloatKind, cue.NumberKind:
		return v.Float64()
	default:
		return nil, fmt.Errorf("%s: expected a scalar, got %s", v.Path(), v.IncompleteKind())
	}
}

// Scalars reads the struct at path as a map of scalars. A missing field
// yields a nil map; a present but empty struct yields an empty map.
func Scalars(v cue.Value, path cue.Path) (map[string]any, error) {
	field := v.LookupPath(path)
	if !field.Exists() {
		return nil, nil
	}
	iter, err := field.Fields()
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	for iter.Next() {
		val, err := Scalar(iter.Value())
		if err != nil {
			return nil, err
		}
		out[iter.Selector().Unquoted()] = val
	}
	return out, nil
}
