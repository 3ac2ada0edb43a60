package gitctx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// DiffOptions controls how diffs and file lists are gathered.
type DiffOptions struct {
	// Dir is the working directory for git; empty means the process cwd.
	Dir     string
	Include []string
	Exclude []string
}

// DiffResult holds the collected diff and metadata.
type DiffResult struct {
	Diff  string
	Files []string
	Mode  string
	Range string
	Repo  RepoMeta
}

// Empty reports whether the diff has no content to audit.
func (r DiffResult) Empty() bool {
	return strings.TrimSpace(r.Diff) == ""
}

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
}

// GetRepoMeta collects repository metadata from git.
func GetRepoMeta(ctx context.Context, dir string) (RepoMeta, error) {
	root, err := gitOutput(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}
	head, err := gitOutput(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		head = "" // no commits yet
	}
	branch, err := gitOutput(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = ""
	}
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// Staged returns the diff of index vs HEAD.
func Staged(ctx context.Context, opts DiffOptions) (DiffResult, error) {
	diff, err := gitOutput(ctx, opts.Dir, "diff", "--staged")
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff --staged: %w", err)
	}
	return buildResult(ctx, diff, "staged", "", opts), nil
}

// Unstaged returns the diff of working tree vs index.
func Unstaged(ctx context.Context, opts DiffOptions) (DiffResult, error) {
	diff, err := gitOutput(ctx, opts.Dir, "diff")
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff: %w", err)
	}
	return buildResult(ctx, diff, "unstaged", "", opts), nil
}

// Range returns the combined diff for a revision range. With mergeBase,
// "a..b" is compared from the merge base ("a...b").
func Range(ctx context.Context, revRange string, mergeBase bool, opts DiffOptions) (DiffResult, error) {
	if strings.HasPrefix(revRange, "-") {
		return DiffResult{}, fmt.Errorf("invalid revision range %q", revRange)
	}
	diffRange := revRange
	if mergeBase && strings.Contains(revRange, "..") && !strings.Contains(revRange, "...") {
		diffRange = strings.Replace(revRange, "..", "...", 1)
	}
	diff, err := gitOutput(ctx, opts.Dir, "diff", diffRange, "--")
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff %s: %w", revRange, err)
	}
	return buildResult(ctx, diff, "range", revRange, opts), nil
}

// FromText wraps diff text obtained outside git, such as a patch file or
// stdin. Repository metadata is filled in when available.
func FromText(ctx context.Context, diff, source string, opts DiffOptions) DiffResult {
	return buildResult(ctx, diff, "diff", source, opts)
}

func buildResult(ctx context.Context, diff, mode, rangeStr string, opts DiffOptions) DiffResult {
	meta, err := GetRepoMeta(ctx, opts.Dir)
	if err != nil {
		meta = RepoMeta{}
	}

	files := extractFiles(diff)
	if len(opts.Exclude) > 0 {
		diff = filterExcluded(diff, opts.Exclude)
		files = filterFileList(files, opts.Exclude)
	}

	return DiffResult{
		Diff:  diff,
		Files: files,
		Mode:  mode,
		Range: rangeStr,
		Repo:  meta,
	}
}

func extractFiles(diff string) []string {
	var files []string
	seen := make(map[string]bool)
	for _, section := range splitDiffSections(diff) {
		f := extractPathFromSection(section)
		if f != "" && !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	return files
}

func filterExcluded(diff string, excludes []string) string {
	var kept []string
	for _, section := range splitDiffSections(diff) {
		path := extractPathFromSection(section)
		if path == "" || !MatchesAny(path, excludes) {
			kept = append(kept, section)
		}
	}
	return strings.Join(kept, "")
}

// splitDiffSections splits at "diff --git" lines. Plain unified diffs
// without git headers are split at "--- " lines that follow a non-header.
func splitDiffSections(diff string) []string {
	if diff == "" {
		return nil
	}
	var sections []string
	lines := strings.SplitAfter(diff, "\n")
	gitFormat := strings.Contains(diff, "diff --git ")
	var current strings.Builder
	inHeader := false
	for _, line := range lines {
		var start bool
		if gitFormat {
			start = strings.HasPrefix(line, "diff --git ")
		} else {
			start = strings.HasPrefix(line, "--- ") && !inHeader
		}
		if start && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		inHeader = strings.HasPrefix(line, "--- ")
		current.WriteString(line)
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

// extractPathFromSection returns the new path of a section, or the old
// path for a deletion.
func extractPathFromSection(section string) string {
	var oldPath string
	for _, line := range strings.Split(section, "\n") {
		switch {
		case strings.HasPrefix(line, "+++ b/"):
			return headerPath(strings.TrimPrefix(line, "+++ b/"))
		case strings.HasPrefix(line, "--- a/"):
			oldPath = headerPath(strings.TrimPrefix(line, "--- a/"))
		}
	}
	return oldPath
}

func headerPath(p string) string {
	if tab := strings.IndexByte(p, '\t'); tab >= 0 {
		p = p[:tab]
	}
	return strings.TrimSpace(p)
}

func filterFileList(files []string, excludes []string) []string {
	var result []string
	for _, f := range files {
		if !MatchesAny(f, excludes) {
			result = append(result, f)
		}
	}
	return result
}

// MatchesAny returns true if the path matches any of the given glob patterns.
// A "**/" prefix also matches the base name and any nested path, and a "/**"
// suffix matches everything below a directory.
func MatchesAny(path string, patterns []string) bool {
	path = filepath.ToSlash(path)
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok && !strings.Contains(dir, "*") {
			if strings.HasPrefix(path, dir+"/") {
				return true
			}
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
			if dir, ok := strings.CutSuffix(clean, "/**"); ok && !strings.Contains(dir, "*") {
				if strings.HasPrefix(path, dir+"/") || strings.Contains(path, "/"+dir+"/") {
					return true
				}
			}
		}
	}
	return false
}

// maxFileBytes is the per-file size limit for tree audits.
const maxFileBytes = 1 << 20 // 1MB

// WalkFiles returns all git-tracked, non-binary files matching the
// include/exclude filters. Uses `git ls-files` for the file list and
// detects binaries via `git diff --no-index --numstat /dev/null <file>`.
func WalkFiles(ctx context.Context, opts DiffOptions) ([]string, error) {
	out, err := gitOutput(ctx, opts.Dir, "ls-files")
	if err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var files []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(opts.Include) > 0 && !MatchesAny(line, opts.Include) {
			continue
		}
		if len(opts.Exclude) > 0 && MatchesAny(line, opts.Exclude) {
			continue
		}
		if isBinary(ctx, opts.Dir, line) {
			continue
		}
		files = append(files, line)
	}

	sort.Strings(files)
	return files, nil
}

// isBinary detects whether a file is binary using git diff --numstat.
// Binary files show "-\t-\t" for added/removed lines.
func isBinary(ctx context.Context, dir, path string) bool {
	out, _ := gitOutput(ctx, dir, "diff", "--no-index", "--numstat", "/dev/null", path)
	return strings.HasPrefix(strings.TrimSpace(out), "-\t-\t")
}

// SourceFile is one file read for a tree audit.
type SourceFile struct {
	Path    string
	Content string
}

// TreeResult holds the files of a tree audit.
type TreeResult struct {
	Files []SourceFile
	// Skipped lists tracked files that were unreadable or over the size limit.
	Skipped []string
	Repo    RepoMeta
}

// Tree reads every tracked source file that passes the filters.
func Tree(ctx context.Context, opts DiffOptions) (TreeResult, error) {
	meta, err := GetRepoMeta(ctx, opts.Dir)
	if err != nil {
		return TreeResult{}, err
	}
	paths, err := WalkFiles(ctx, opts)
	if err != nil {
		return TreeResult{}, err
	}

	res := TreeResult{Repo: meta}
	for _, p := range paths {
		full := p
		if opts.Dir != "" {
			full = filepath.Join(opts.Dir, p)
		}
		info, err := os.Stat(full)
		if err != nil || info.Size() > maxFileBytes {
			res.Skipped = append(res.Skipped, p)
			continue
		}
		data, err := os.ReadFile(full)
		if err != nil {
			res.Skipped = append(res.Skipped, p)
			continue
		}
		res.Files = append(res.Files, SourceFile{Path: p, Content: string(data)})
	}
	return res, nil
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
