// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"github.com/jmake/jmake/pkg/platform"
)

type (
	// Rule adds Defines when Predicate matches the host.
	Rule struct {
		Name      string
		Predicate platform.Predicate
		Defines   Defines
	}

	// Conditioner applies an ordered list of platform rules.
	Conditioner struct {
		rules []Rule
	}
)

// NewConditioner orders workspace rules before project rules.
func NewConditioner(workspaceRules, projectRules []Rule) *Conditioner {
	rules := make([]Rule, 0, len(workspaceRules)+len(projectRules))
	rules = append(rules, workspaceRules...)
	rules = append(rules, projectRules...)
	return &Conditioner{rules: rules}
}

// Apply returns defines extended with every matching rule's defines.
// defines is not modified. The result depends only on host and the rules.
func (c *Conditioner) Apply(host platform.Context, defines Defines) (Defines, error) {
	out := defines.Clone()
	for _, r := range c.rules {
		if r.Predicate != nil && !r.Predicate.Match(host) {
			continue
		}
		if err := out.Merge(r.Defines, "rule "+r.Name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Matching returns the names of the rules that match host, in application order.
func (c *Conditioner) Matching(host platform.Context) []string {
	var names []string
	for _, r := range c.rules {
		if r.Predicate == nil || r.Predicate.Match(host) {
			names = append(names, r.Name)
		}
	}
	return names
}
