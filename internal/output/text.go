package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/preflight/internal/audit"
	"github.com/dshills/preflight/internal/promptaudit"
)

const ruleWidth = 60

// TextWriter outputs a human-readable text report. Colors are applied only
// when the destination is a terminal.
type TextWriter struct{}

type palette struct {
	critical lipgloss.Style
	warning  lipgloss.Style
	ok       lipgloss.Style
	muted    lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	return palette{
		critical: r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		warning:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		ok:       r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		muted:    r.NewStyle().Faint(true),
	}
}

func (t *TextWriter) Write(w io.Writer, report *audit.Report) error {
	ew := &errWriter{w: w}
	p := newPalette(w)
	if report.Mode == audit.ModeFile {
		writeFileText(ew, p, report)
	} else {
		writeDiffText(ew, p, report)
	}
	return ew.err
}

func writeDiffText(ew *errWriter, p palette, report *audit.Report) {
	rule := strings.Repeat("=", ruleWidth)
	ew.println("")
	ew.println(rule)
	ew.printf("🔍 LOCAL AUDITOR (%s)\n", report.Target)
	if report.Repo.Root != "" {
		ew.println(p.muted.Render(fmt.Sprintf("   Repository: %s (branch: %s)", report.Repo.Root, report.Repo.Branch)))
	}
	ew.println(rule)

	switch report.Skip {
	case audit.SkipDisabled:
		ew.println("⏭️  Auditor skipped (SKIP_AUDITOR=true)")
		ew.println(rule)
		return
	case audit.SkipNoChanges:
		ew.printf("ℹ️  No %s to audit.\n", report.Target)
		ew.println(rule)
		return
	}

	res := audit.ScanResult{Issues: report.Issues}
	approx := "~"
	if report.Mode == audit.ModeTree {
		approx = ""
	}

	if crit := res.Critical(); len(crit) > 0 {
		ew.println("\n" + p.critical.Render("❌ CRITICAL ISSUES (must fix):"))
		for _, is := range crit {
			ew.printf("   %s\n", issueLine(is, approx))
		}
	}
	if warns := res.Warnings(); len(warns) > 0 {
		ew.println("\n" + p.warning.Render("⚠️  WARNINGS (consider fixing):"))
		shown, more := visibleWarnings(report, warns)
		for _, is := range shown {
			ew.printf("   %s\n", issueLine(is, approx))
		}
		if more > 0 {
			ew.printf("   ... and %d more\n", more)
		}
	}

	ew.println("")
	ew.println(rule)
	switch report.Summary.Verdict {
	case audit.VerdictFail:
		ew.println(p.critical.Render("❌ AUDIT FAILED - Fix critical issues before committing"))
	case audit.VerdictPassWithWarnings:
		ew.println(p.warning.Render("⚠️  AUDIT PASSED with warnings"))
	default:
		ew.println(p.ok.Render("✅ AUDIT PASSED - No issues detected"))
	}
	if report.Timing.TotalMs > 0 {
		ew.println(p.muted.Render(fmt.Sprintf("   Completed in %dms (git: %dms, scan: %dms)",
			report.Timing.TotalMs, report.Timing.GitMs, report.Timing.ScanMs)))
	}
	ew.println(rule)
}

func issueLine(is audit.Issue, approx string) string {
	loc := fmt.Sprintf("(line %s%d)", approx, is.Line)
	if is.File == "" {
		return fmt.Sprintf("%s %s %s", categoryIcon(is.Category), is.Message, loc)
	}
	return fmt.Sprintf("%s %s in %s %s", categoryIcon(is.Category), is.Message, is.File, loc)
}

func writeFileText(ew *errWriter, p palette, report *audit.Report) {
	ew.printf("🔍 %s\n", report.Target)
	if report.ReadError != "" {
		ew.println(p.critical.Render("❌ Could not read file: " + report.ReadError))
		return
	}

	res := audit.ScanResult{Issues: report.Issues}
	crit, warns := res.Critical(), res.Warnings()
	if len(crit)+len(warns) == 0 {
		ew.println(p.ok.Render("✅ No issues found"))
		return
	}
	if len(crit) > 0 {
		ew.println("\n" + p.critical.Render(fmt.Sprintf("🚨 CRITICAL (%d)", len(crit))))
		for _, is := range crit {
			ew.printf("   %s L%d: %s\n", categoryIcon(is.Category), is.Line, is.Message)
		}
	}
	if len(warns) > 0 {
		ew.println("\n" + p.warning.Render(fmt.Sprintf("⚠️  WARNINGS (%d)", len(warns))))
		shown, more := visibleWarnings(report, warns)
		for _, is := range shown {
			ew.printf("   %s L%d: %s\n", categoryIcon(is.Category), is.Line, is.Message)
		}
		if more > 0 {
			ew.printf("   ... and %d more\n", more)
		}
	}
	ew.println("")
}

// WritePrompt renders a prompt audit followed by the enhanced prompt.
func (t *TextWriter) WritePrompt(w io.Writer, report *promptaudit.Report) error {
	ew := &errWriter{w: w}
	p := newPalette(w)
	rule := strings.Repeat("━", 58)

	ew.println(rule)
	ew.println("📋 Prompt Pre-Audit")
	ew.println(rule)
	if warnings := report.Warnings(); len(warnings) > 0 {
		for _, msg := range warnings {
			ew.println(p.warning.Render("⚠️  " + msg))
		}
	} else {
		ew.println(p.ok.Render("✅ Prompt passed pre-audit"))
	}
	ew.println("")
	ew.println("--- Enhanced Prompt ---")
	ew.println(report.Enhanced)
	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
