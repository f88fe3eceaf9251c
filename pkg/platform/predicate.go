// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"slices"
	"strings"
)

type (
	// Predicate decides whether a host Context is selected.
	Predicate interface {
		Match(Context) bool
		String() string
	}

	osIn      []OS
	osNotIn   []OS
	archIn    []string
	allOf     []Predicate
	always    struct{}
	predicate struct {
		desc string
		fn   func(Context) bool
	}
)

// OSIn matches hosts whose OS is one of oses.
func OSIn(oses ...OS) Predicate { return osIn(slices.Clone(oses)) }

// OSNotIn matches hosts whose OS is none of oses.
func OSNotIn(oses ...OS) Predicate { return osNotIn(slices.Clone(oses)) }

// ArchIn matches hosts whose architecture is one of arches.
func ArchIn(arches ...string) Predicate { return archIn(slices.Clone(arches)) }

// All matches when every predicate matches. All() matches every host.
func All(preds ...Predicate) Predicate {
	if len(preds) == 0 {
		return always{}
	}
	if len(preds) == 1 {
		return preds[0]
	}
	return allOf(slices.Clone(preds))
}

func (p osIn) Match(c Context) bool { return slices.Contains(p, c.OS) }
func (p osIn) String() string       { return "os in [" + joinOS(p) + "]" }

func (p osNotIn) Match(c Context) bool { return !slices.Contains(p, c.OS) }
func (p osNotIn) String() string       { return "os not in [" + joinOS(p) + "]" }

func (p archIn) Match(c Context) bool { return slices.Contains(p, c.Arch) }
func (p archIn) String() string       { return "arch in [" + strings.Join(p, ", ") + "]" }

func (p allOf) Match(c Context) bool {
	for _, q := range p {
		if !q.Match(c) {
			return false
		}
	}
	return true
}

func (p allOf) String() string {
	parts := make([]string, len(p))
	for i, q := range p {
		parts[i] = q.String()
	}
	return strings.Join(parts, " and ")
}

func (always) Match(Context) bool { return true }
func (always) String() string     { return "always" }

func joinOS(oses []OS) string {
	parts := make([]string, len(oses))
	for i, o := range oses {
		parts[i] = string(o)
	}
	return strings.Join(parts, ", ")
}
