// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"maps"
	"slices"
)

// FilterSet holds the overrides of one named variant. Settings override
// per key. Defines and IncludePaths, when non-nil, replace the base
// collections whole; nil keeps the base.
type FilterSet struct {
	Variant      string
	Settings     map[string]any
	Defines      Defines
	IncludePaths []string
}

// NewFilterSet returns an empty FilterSet for variant.
func NewFilterSet(variant string) *FilterSet {
	return &FilterSet{Variant: variant, Settings: map[string]any{}}
}

// Set records a setting override.
func (f *FilterSet) Set(key string, value any) *FilterSet {
	if f.Settings == nil {
		f.Settings = map[string]any{}
	}
	f.Settings[key] = value
	return f
}

// ReplaceDefines makes the variant replace the base defines with d.
func (f *FilterSet) ReplaceDefines(d Defines) *FilterSet {
	f.Defines = d.Clone()
	return f
}

// ReplaceIncludePaths makes the variant replace the base include paths.
func (f *FilterSet) ReplaceIncludePaths(paths ...string) *FilterSet {
	f.IncludePaths = append([]string{}, paths...)
	return f
}

// apply returns base with the overrides applied. base is not modified.
func (f *FilterSet) apply(base Config) Config {
	out := base.Clone()
	maps.Copy(out.Settings, f.Settings)
	if f.Defines != nil {
		out.Defines = f.Defines.Clone()
	}
	if f.IncludePaths != nil {
		out.IncludePaths = slices.Clone(f.IncludePaths)
	}
	return out
}
