// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
)

type (
	// Defines maps preprocessor macro names to their values.
	Defines map[string]string

	// Define is one macro in a sorted listing.
	Define struct {
		Name  string
		Value string
	}

	// Config is a project's base or effective configuration.
	Config struct {
		Settings     map[string]any
		Defines      Defines
		IncludePaths []string
	}
)

// DefineValue normalizes a scalar define value to its textual form.
// Booleans become "1" or "0".
func DefineValue(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		if x {
			return "1", nil
		}
		return "0", nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("define value %v has unsupported type %T", v, v)
	}
}

// IsScalar reports whether v is an accepted setting value.
func IsScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int64, float64:
		return true
	default:
		return false
	}
}

// Clone returns an independent copy of d; a nil d yields an empty map.
func (d Defines) Clone() Defines {
	out := make(Defines, len(d))
	maps.Copy(out, d)
	return out
}

// Sorted lists the defines ordered by name.
func (d Defines) Sorted() []Define {
	out := make([]Define, 0, len(d))
	for _, name := range slices.Sorted(maps.Keys(d)) {
		out = append(out, Define{Name: name, Value: d[name]})
	}
	return out
}

// Merge adds incoming into d. A name already present with the same value is
// left alone; a different value fails with DefineConflictError and leaves d
// unchanged.
func (d Defines) Merge(incoming Defines, origin string) error {
	for _, name := range slices.Sorted(maps.Keys(incoming)) {
		if existing, ok := d[name]; ok && existing != incoming[name] {
			return &DefineConflictError{Name: name, Existing: existing, Incoming: incoming[name], Origin: origin}
		}
	}
	maps.Copy(d, incoming)
	return nil
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	settings := make(map[string]any, len(c.Settings))
	maps.Copy(settings, c.Settings)
	return Config{
		Settings:     settings,
		Defines:      c.Defines.Clone(),
		IncludePaths: slices.Clone(c.IncludePaths),
	}
}

// appendUnique appends items not already present in dst, preserving order.
func appendUnique(dst []string, items ...string) []string {
	for _, item := range items {
		if !slices.Contains(dst, item) {
			dst = append(dst, item)
		}
	}
	return dst
}
