package output

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/dshills/preflight/internal/audit"
	"github.com/dshills/preflight/internal/promptaudit"
)

func renderText(t *testing.T, report *audit.Report) string {
	t.Helper()
	var buf bytes.Buffer
	if err := (&TextWriter{}).Write(&buf, report); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	return buf.String()
}

func TestTextWriter_Clean(t *testing.T) {
	out := renderText(t, sampleReport(audit.ModeDiff, nil))

	for _, want := range []string{
		strings.Repeat("=", 60),
		"🔍 LOCAL AUDITOR (staged changes)",
		"Repository: /tmp/repo (branch: main)",
		"✅ AUDIT PASSED - No issues detected",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "CRITICAL") || strings.Contains(out, "WARNINGS") {
		t.Errorf("clean report should list no sections:\n%s", out)
	}
}

func TestTextWriter_Failed(t *testing.T) {
	report := sampleReport(audit.ModeDiff, sampleIssues())
	report.Timing = audit.Timing{GitMs: 3, ScanMs: 1, TotalMs: 5}
	out := renderText(t, report)

	for _, want := range []string{
		"❌ CRITICAL ISSUES (must fix):",
		"🔐 Possible Password found in src/config.js (line ~7)",
		"⚠️  WARNINGS (consider fixing):",
		"📝 Debug print statement found in src/app.js (line ~14)",
		"❌ AUDIT FAILED - Fix critical issues before committing",
		"Completed in 5ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "CRITICAL ISSUES") > strings.Index(out, "WARNINGS") {
		t.Error("critical section should precede warnings")
	}
}

func TestTextWriter_WarningsOnly(t *testing.T) {
	issues := sampleIssues()[1:]
	out := renderText(t, sampleReport(audit.ModeDiff, issues))
	if !strings.Contains(out, "⚠️  AUDIT PASSED with warnings") {
		t.Errorf("missing pass-with-warnings verdict:\n%s", out)
	}
}

func TestTextWriter_WarningCap(t *testing.T) {
	var issues []audit.Issue
	for i := 1; i <= 13; i++ {
		issues = append(issues, audit.Issue{
			RuleID:   "todo",
			Severity: audit.SeverityWarning,
			Category: audit.CategoryTodo,
			Message:  "TODO/FIXME found",
			File:     "a.go",
			Line:     i,
		})
	}
	report := sampleReport(audit.ModeDiff, issues)
	report.WarningCap = 10
	out := renderText(t, report)

	if got := strings.Count(out, "TODO/FIXME found"); got != 10 {
		t.Errorf("listed warnings = %d, want 10", got)
	}
	if !strings.Contains(out, "   ... and 3 more") {
		t.Errorf("missing overflow line:\n%s", out)
	}
	if strings.Contains(out, "(line ~11)") {
		t.Error("warning past the cap should not be listed")
	}
}

func TestTextWriter_Skip(t *testing.T) {
	tests := []struct {
		skip audit.SkipReason
		want string
	}{
		{audit.SkipDisabled, "⏭️  Auditor skipped (SKIP_AUDITOR=true)"},
		{audit.SkipNoChanges, "ℹ️  No staged changes to audit."},
	}
	for _, tt := range tests {
		t.Run(string(tt.skip), func(t *testing.T) {
			report := sampleReport(audit.ModeDiff, nil)
			report.Skip = tt.skip
			out := renderText(t, report)
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
			if strings.Contains(out, "AUDIT PASSED") {
				t.Errorf("skipped audit should print no verdict:\n%s", out)
			}
		})
	}
}

func TestTextWriter_TreeModeExactLines(t *testing.T) {
	report := sampleReport(audit.ModeTree, sampleIssues())
	out := renderText(t, report)
	if !strings.Contains(out, "(line 7)") || strings.Contains(out, "~") {
		t.Errorf("tree mode should print exact lines:\n%s", out)
	}
}

func TestTextWriter_FileMode(t *testing.T) {
	report := sampleReport(audit.ModeFile, sampleIssues())
	report.Target = "src/config.js"
	out := renderText(t, report)

	for _, want := range []string{
		"🔍 src/config.js",
		"🚨 CRITICAL (1)",
		"🔐 L7: Possible Password found",
		"⚠️  WARNINGS (1)",
		"📝 L14: Debug print statement found",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "LOCAL AUDITOR") {
		t.Error("file mode should use the compact layout")
	}
}

func TestTextWriter_FileModeCleanAndUnreadable(t *testing.T) {
	report := sampleReport(audit.ModeFile, nil)
	report.Target = "a.go"
	if out := renderText(t, report); !strings.Contains(out, "✅ No issues found") {
		t.Errorf("missing clean line:\n%s", out)
	}

	report.ReadError = "open a.go: no such file or directory"
	out := renderText(t, report)
	if !strings.Contains(out, "❌ Could not read file: open a.go") {
		t.Errorf("missing read error:\n%s", out)
	}
	if strings.Contains(out, "No issues found") {
		t.Error("unreadable file should not claim a clean result")
	}
}

func TestTextWriter_FileModeWarningCap(t *testing.T) {
	var issues []audit.Issue
	for i := 1; i <= 8; i++ {
		issues = append(issues, audit.Issue{
			Severity: audit.SeverityWarning,
			Category: audit.CategoryDebugger,
			Message:  "debugger statement",
			File:     "a.js",
			Line:     i,
		})
	}
	report := sampleReport(audit.ModeFile, issues)
	report.WarningCap = 5
	out := renderText(t, report)
	if !strings.Contains(out, "⚠️  WARNINGS (8)") {
		t.Errorf("header should carry the full count:\n%s", out)
	}
	if got := strings.Count(out, "debugger statement"); got != 5 {
		t.Errorf("listed warnings = %d, want 5", got)
	}
	if !strings.Contains(out, "... and 3 more") {
		t.Errorf("missing overflow line:\n%s", out)
	}
}

func TestTextWriter_NoColorOnBuffer(t *testing.T) {
	out := renderText(t, sampleReport(audit.ModeDiff, sampleIssues()))
	if strings.Contains(out, "\x1b[") {
		t.Errorf("non-terminal output contains escape codes:\n%q", out)
	}
}

func TestTextWriter_WritePrompt(t *testing.T) {
	tests := []struct {
		name   string
		report *promptaudit.Report
		want   []string
		absent []string
	}{
		{
			name: "clean",
			report: &promptaudit.Report{
				Status:   promptaudit.StatusPass,
				Enhanced: "Add login page",
			},
			want:   []string{"📋 Prompt Pre-Audit", "✅ Prompt passed pre-audit", "--- Enhanced Prompt ---\nAdd login page"},
			absent: []string{"⚠️"},
		},
		{
			name: "duplicate and conflicts",
			report: &promptaudit.Report{
				Status:    promptaudit.StatusWarn,
				Duplicate: &promptaudit.Duplicate{Title: "Add login page", Ratio: 0.9},
				Conflicts: []promptaudit.Conflict{{File: "src/a.js", Title: "Add login page"}},
				Enhanced:  "Add a login page",
			},
			want: []string{
				"⚠️  Similar task exists: 'Add login page'",
				"⚠️  File conflicts: src/a.js (from: Add login page)",
				"--- Enhanced Prompt ---",
			},
			absent: []string{"passed pre-audit"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&TextWriter{}).WritePrompt(&buf, tt.report); err != nil {
				t.Fatalf("WritePrompt error: %v", err)
			}
			out := buf.String()
			if !strings.HasPrefix(out, strings.Repeat("━", 58)+"\n") {
				t.Errorf("output should open with the rule:\n%s", out)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(out, a) {
					t.Errorf("output should not contain %q:\n%s", a, out)
				}
			}
		})
	}
}

type failWriter struct{ after int }

func (f *failWriter) Write(p []byte) (int, error) {
	if f.after <= 0 {
		return 0, fmt.Errorf("disk full")
	}
	f.after--
	return len(p), nil
}

func TestTextWriter_PropagatesWriteError(t *testing.T) {
	err := (&TextWriter{}).Write(&failWriter{after: 2}, sampleReport(audit.ModeDiff, sampleIssues()))
	if err == nil {
		t.Fatal("expected write error")
	}
}
