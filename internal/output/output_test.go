package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/preflight/internal/audit"
)

func sampleIssues() []audit.Issue {
	return []audit.Issue{
		{
			RuleID:   "password",
			Severity: audit.SeverityCritical,
			Category: audit.CategorySecret,
			Message:  "Possible Password found",
			File:     "src/config.js",
			Line:     7,
			FileLine: 2,
			Snippet:  `password = "[REDACTED]"`,
		},
		{
			RuleID:   "debug-print",
			Severity: audit.SeverityWarning,
			Category: audit.CategoryDebugStatement,
			Message:  "Debug print statement found",
			File:     "src/app.js",
			Line:     14,
			FileLine: 4,
			Snippet:  `console.log("debug")`,
		},
	}
}

func sampleReport(mode audit.Mode, issues []audit.Issue) *audit.Report {
	return &audit.Report{
		Tool:    "preflight",
		Version: "1.0",
		RunID:   "5f0c6c3e-2f1b-4d8e-9a51-1c2b3d4e5f60",
		Mode:    mode,
		Target:  "staged changes",
		Repo:    audit.RepoInfo{Root: "/tmp/repo", Head: "abc123", Branch: "main"},
		Summary: audit.ComputeSummary(audit.ScanResult{Issues: issues}),
		Issues:  issues,
	}
}

func TestGetWriter(t *testing.T) {
	for _, f := range Formats {
		if _, err := GetWriter(f); err != nil {
			t.Errorf("GetWriter(%q) error: %v", f, err)
		}
		if _, err := GetPromptWriter(f); err != nil {
			t.Errorf("GetPromptWriter(%q) error: %v", f, err)
		}
	}
	if _, err := GetWriter("xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
	if _, err := GetPromptWriter("xml"); err == nil {
		t.Error("expected error for unsupported prompt format")
	}
}

func TestGetPromptWriter_FallsBackToText(t *testing.T) {
	for _, f := range []string{"text", "markdown", "sarif"} {
		w, _ := GetPromptWriter(f)
		if _, ok := w.(*TextWriter); !ok {
			t.Errorf("GetPromptWriter(%q) = %T, want *TextWriter", f, w)
		}
	}
	w, _ := GetPromptWriter("json")
	if _, ok := w.(*JSONWriter); !ok {
		t.Errorf("GetPromptWriter(json) = %T, want *JSONWriter", w)
	}
}

func TestWriteReport_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	report := sampleReport(audit.ModeDiff, sampleIssues())
	if err := WriteReport(report, "json", path); err != nil {
		t.Fatalf("WriteReport error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), `"ruleId": "password"`) {
		t.Errorf("output file missing issue:\n%s", data)
	}
}

func TestWriteReport_BadFormat(t *testing.T) {
	if err := WriteReport(sampleReport(audit.ModeDiff, nil), "xml", ""); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestVisibleWarnings(t *testing.T) {
	warns := make([]audit.Issue, 7)
	tests := []struct {
		cap       int
		wantShown int
		wantMore  int
	}{
		{0, 7, 0},
		{10, 7, 0},
		{7, 7, 0},
		{5, 5, 2},
	}
	for _, tt := range tests {
		shown, more := visibleWarnings(&audit.Report{WarningCap: tt.cap}, warns)
		if len(shown) != tt.wantShown || more != tt.wantMore {
			t.Errorf("cap %d: shown=%d more=%d, want %d/%d", tt.cap, len(shown), more, tt.wantShown, tt.wantMore)
		}
	}
}
