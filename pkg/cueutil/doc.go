// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides the CUE decoding steps shared by the workspace
// description, package manifests and the tool configuration.
//
// Every CUE document jmake reads goes through the same flow:
//
//  1. Compile the embedded schema once (CompileSchema)
//  2. Compile user data and unify it with the schema definition
//  3. Validate and decode to a Go struct
//
// # Usage
//
//	//go:embed jmake_schema.cue
//	var schemaSource []byte
//
//	var schema = cueutil.MustCompileSchema(schemaSource, "#Workspace")
//
//	result, err := cueutil.Decode[File](schema, data, cueutil.WithFilename("jmake.cue"))
//	if err != nil {
//	    return nil, err // error carries the CUE path of every violation
//	}
//
// Free-form scalar maps (settings, defines) are read from Result.Unified
// with Scalars, which keeps CUE's int/float distinction.
package cueutil
