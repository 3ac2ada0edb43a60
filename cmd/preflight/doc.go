// Preflight is a local pre-submission audit guardrail.
//
// It scans the added lines of a diff, single files, or every tracked file for
// leaked secrets, SQL-injection patterns, debug leftovers and linter
// suppressions, and pre-audits task prompts for near-duplicates and file
// conflicts with recent work. Exit codes are deterministic so the diff
// audits can gate git hooks and CI.
//
// Usage:
//
//	preflight audit staged                  # audit staged changes (pre-commit)
//	preflight audit unstaged                # audit working tree changes
//	preflight audit range origin/main..HEAD # audit a revision range
//	git diff | preflight audit diff -       # audit a diff from stdin
//	preflight audit file src/app.js         # audit one file
//	preflight audit tree                    # audit all tracked files
//	preflight prompt "Task: Add login form" # pre-audit a task prompt
//	preflight watch                         # audit files as they are saved
//
// Set SKIP_AUDITOR=true to bypass the diff audits.
package main
