// SPDX-License-Identifier: MPL-2.0

package modgraph

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	moduleDeclPattern = regexp.MustCompile(`^(?:export\s+)?module\s+([A-Za-z_][\w.]*(?::[A-Za-z_][\w.]*)?)$`)
	importDeclPattern = regexp.MustCompile(`^(?:export\s+)?import\s+([A-Za-z_][\w.]*)?(:[A-Za-z_][\w.]*)?$`)
	blockComment      = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment       = regexp.MustCompile(`//[^\n]*`)
)

// SourceScanner reads module declarations directly from C++ source text.
// Header-unit imports (`import <vector>;`, `import "x.h";`) are ignored; they
// do not name modules.
type SourceScanner struct{}

// Scan implements Scanner.
func (SourceScanner) Scan(path string) (string, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return ParseDeclarations(string(data))
}

// ParseDeclarations extracts the module name and imports from source text.
// Partition imports (`import :part;`) are qualified with the primary module
// name of the declaring unit.
func ParseDeclarations(src string) (string, []string, error) {
	src = blockComment.ReplaceAllString(src, " ")
	src = lineComment.ReplaceAllString(src, "")

	var kept []string
	for line := range strings.SplitSeq(src, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		kept = append(kept, line)
	}

	var (
		name      string
		imports   []string
		partition []string
	)
	for stmt := range strings.SplitSeq(strings.Join(kept, "\n"), ";") {
		stmt = strings.Join(strings.Fields(stmt), " ")
		if stmt == "" {
			continue
		}
		if m := moduleDeclPattern.FindStringSubmatch(stmt); m != nil {
			if name != "" {
				return "", nil, fmt.Errorf("multiple module declarations (%q and %q)", name, m[1])
			}
			name = m[1]
			continue
		}
		if m := importDeclPattern.FindStringSubmatch(stmt); m != nil {
			switch {
			case m[1] != "" && m[2] == "":
				imports = append(imports, m[1])
			case m[1] == "" && m[2] != "":
				partition = append(partition, m[2])
			}
		}
	}

	if name == "" {
		return "", nil, ErrNoModuleDeclaration
	}
	primary, _, _ := strings.Cut(name, ":")
	for _, p := range partition {
		imports = append(imports, primary+p)
	}
	return name, imports, nil
}
