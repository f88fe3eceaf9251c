// SPDX-License-Identifier: MPL-2.0

// Package config loads jmake's tool configuration using Viper with CUE as the
// file format.
//
// The file lives at $XDG_CONFIG_HOME/jmake/config.cue on Linux,
// ~/Library/Application Support/jmake/config.cue on macOS and
// %APPDATA%\jmake\config.cue on Windows. It is validated against the embedded
// config_schema.cue, and every key can be overridden from the environment
// with the JMAKE_ prefix (JMAKE_SHADER_JOBS=4 sets shader.jobs).
package config
