// SPDX-License-Identifier: MPL-2.0

// Package modgraph orders the C++ module interface units of one project.
//
// Module names and imports are obtained through the Scanner capability; the
// package never interprets source text beyond what a Scanner returns. The
// default SourceScanner recognises the declaration forms needed for ordering
// (`export module a.b;`, `import a.b;`, partitions) and nothing else.
//
// Imports of names that are not declared by the project are treated as
// external, already compiled modules (for example `std`) and do not
// constrain the order.
package modgraph
