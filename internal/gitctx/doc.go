// Package gitctx collects the text that diff and tree audits scan.
//
// Staged, unstaged and range diffs come from shelling out to git. Sections
// whose path matches an exclude glob are dropped before the diff is handed
// to the classifier. [Tree] reads every tracked, non-binary file for
// whole-repository audits, and [GetRepoMeta] supplies the root, branch and
// HEAD recorded in reports.
package gitctx
