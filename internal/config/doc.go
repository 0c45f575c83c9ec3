// SPDX-License-Identifier: MPL-2.0

// Package config handles user configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/fatpack/config.cue (or the XDG equivalent on
// Linux, ~/Library/Application Support/fatpack/config.cue on macOS, %APPDATA%\fatpack\config.cue
// on Windows). It carries the artifact repositories searched by the resolver, the
// default duplicate policy and archive classifier, the lock file name and logging
// preferences. FATPACK_* environment variables override file values.
//
// The file is validated against an embedded CUE schema (config_schema.cue) before
// its values are merged into Viper.
package config
