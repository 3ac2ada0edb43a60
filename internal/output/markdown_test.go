package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dshills/preflight/internal/audit"
)

func renderMarkdown(t *testing.T, report *audit.Report) string {
	t.Helper()
	var buf bytes.Buffer
	if err := (&MarkdownWriter{}).Write(&buf, report); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	return buf.String()
}

func TestMarkdownWriter_Issues(t *testing.T) {
	out := renderMarkdown(t, sampleReport(audit.ModeDiff, sampleIssues()))

	for _, want := range []string{
		"## Preflight Audit: staged changes",
		"| Critical | 1    |",
		"| Warning  | 1    |",
		"| **Total** | **2** |",
		"**Verdict:** :x: fail",
		"<summary>:red_circle: CRITICAL (1)</summary>",
		"<summary>:orange_circle: WARNING (1)</summary>",
		"**`src/config.js:2`** Possible Password found `password`",
		"```javascript",
		`password = "[REDACTED]"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdownWriter_FallsBackToDiffPosition(t *testing.T) {
	issues := sampleIssues()
	issues[0].FileLine = 0
	out := renderMarkdown(t, sampleReport(audit.ModeDiff, issues))
	if !strings.Contains(out, "`src/config.js:7`") {
		t.Errorf("expected diff position when file line is unknown:\n%s", out)
	}
}

func TestMarkdownWriter_Clean(t *testing.T) {
	out := renderMarkdown(t, sampleReport(audit.ModeDiff, nil))
	if !strings.Contains(out, "No issues found") {
		t.Errorf("missing clean notice:\n%s", out)
	}
	if strings.Contains(out, "<details>") {
		t.Error("clean report should have no details blocks")
	}
}

func TestMarkdownWriter_Skip(t *testing.T) {
	report := sampleReport(audit.ModeDiff, nil)
	report.Skip = audit.SkipNoChanges
	out := renderMarkdown(t, report)
	if !strings.Contains(out, "No staged changes to audit.") {
		t.Errorf("missing skip notice:\n%s", out)
	}
	if strings.Contains(out, "| Severity |") {
		t.Error("skipped audit should have no table")
	}
}

func TestInferLang(t *testing.T) {
	tests := map[string]string{
		"main.go":     "go",
		"src/App.TSX": "tsx",
		"run.sh":      "bash",
		"Makefile":    "",
		"config.yml":  "yaml",
		"lib/util.py": "python",
	}
	for path, want := range tests {
		if got := inferLang(path); got != want {
			t.Errorf("inferLang(%q) = %q, want %q", path, got, want)
		}
	}
}
