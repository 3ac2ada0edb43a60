package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dshills/preflight/internal/audit"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *audit.Report) error {
	ew := &errWriter{w: w}
	counts := report.Summary.Counts

	ew.printf("## Preflight Audit: %s\n\n", report.Target)

	switch report.Skip {
	case audit.SkipDisabled:
		ew.println("Audit skipped (`SKIP_AUDITOR` is set).")
		return ew.err
	case audit.SkipNoChanges:
		ew.printf("No %s to audit.\n", report.Target)
		return ew.err
	}
	if report.ReadError != "" {
		ew.printf("Could not read file: `%s`\n", report.ReadError)
		return ew.err
	}

	ew.println("| Severity | Count |")
	ew.println("|----------|-------|")
	ew.printf("| Critical | %d    |\n", counts.Critical)
	ew.printf("| Warning  | %d    |\n", counts.Warning)
	ew.printf("| **Total** | **%d** |\n\n", counts.Critical+counts.Warning)
	ew.printf("**Verdict:** %s %s\n\n", mdVerdictIcon(report.Summary.Verdict), report.Summary.Verdict)

	if counts.Critical+counts.Warning == 0 {
		ew.println("No issues found. :white_check_mark:")
		return ew.err
	}

	res := audit.ScanResult{Issues: report.Issues}
	sections := []struct {
		sev    audit.Severity
		issues []audit.Issue
	}{
		{audit.SeverityCritical, res.Critical()},
		{audit.SeverityWarning, res.Warnings()},
	}
	for _, sec := range sections {
		if len(sec.issues) == 0 {
			continue
		}
		ew.printf("<details>\n<summary>%s %s (%d)</summary>\n\n",
			mdSeverityIcon(sec.sev), strings.ToUpper(string(sec.sev)), len(sec.issues))
		for _, is := range sec.issues {
			ew.printf("- **`%s`** %s `%s`\n", mdLocation(is), is.Message, is.RuleID)
			if is.Snippet != "" {
				ew.printf("\n  ```%s\n  %s\n  ```\n", inferLang(is.File), is.Snippet)
			}
		}
		ew.println("\n</details>\n")
	}

	ew.printf("*Audited in %dms (git: %dms, scan: %dms)*\n",
		report.Timing.TotalMs, report.Timing.GitMs, report.Timing.ScanMs)
	return ew.err
}

func mdLocation(is audit.Issue) string {
	line := is.FileLine
	if line == 0 {
		line = is.Line
	}
	if is.File == "" {
		return fmt.Sprintf("line %d", line)
	}
	return fmt.Sprintf("%s:%d", is.File, line)
}

func mdSeverityIcon(s audit.Severity) string {
	switch s {
	case audit.SeverityCritical:
		return ":red_circle:"
	case audit.SeverityWarning:
		return ":orange_circle:"
	default:
		return ":white_circle:"
	}
}

func mdVerdictIcon(v audit.Verdict) string {
	switch v {
	case audit.VerdictFail:
		return ":x:"
	case audit.VerdictPassWithWarnings:
		return ":warning:"
	default:
		return ":white_check_mark:"
	}
}

func inferLang(path string) string {
	langMap := map[string]string{
		".go":   "go",
		".py":   "python",
		".js":   "javascript",
		".jsx":  "jsx",
		".ts":   "typescript",
		".tsx":  "tsx",
		".rb":   "ruby",
		".sh":   "bash",
		".sql":  "sql",
		".yaml": "yaml",
		".yml":  "yaml",
		".json": "json",
	}
	return langMap[strings.ToLower(filepath.Ext(path))]
}
