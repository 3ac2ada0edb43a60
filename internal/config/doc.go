// Package config loads and merges preflight configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (PREFLIGHT_FORMAT, PREFLIGHT_HISTORY_FILE, etc.)
//  3. Project file (.preflight.yaml, or the path in PREFLIGHT_CONFIG)
//  4. Built-in defaults
//
// The project file is YAML and is decoded on top of the defaults, so a key
// left out of the file keeps its default value. Use [Load] to obtain a merged
// [Config], [Save] to write one, and [SetField] to update a single dotted key.
//
// SKIP_AUDITOR is not a configuration key: it is read per invocation by
// [SkipRequested].
package config
