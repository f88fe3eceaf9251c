// SPDX-License-Identifier: MPL-2.0

// Package benchmark provides benchmarks for PGO profile generation.
// They cover the hot paths of a generation run:
//   - CUE parsing and schema validation of jmake.cue
//   - glob expansion of source patterns
//   - module declaration scanning and ordering
//   - ninja and TOML emission
//   - the end-to-end generate pipeline
//
// To generate a profile, run:
//
//	go test ./internal/benchmark -run '^$' -bench . -cpuprofile default.pgo
package benchmark
