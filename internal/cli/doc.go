// Package cli wires together the Cobra command tree for the preflight binary.
//
// It defines the root command and all subcommands (audit, prompt, history,
// watch, hook, config, version), binds flags, reads configuration, runs the
// audits, appends to the audit log, and returns deterministic exit codes for
// git hooks and CI gating.
package cli
