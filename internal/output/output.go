package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/preflight/internal/audit"
	"github.com/dshills/preflight/internal/promptaudit"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *audit.Report) error
}

// PromptWriter writes a prompt audit report.
type PromptWriter interface {
	WritePrompt(w io.Writer, report *promptaudit.Report) error
}

// Formats lists the accepted format names.
var Formats = []string{"text", "json", "markdown", "sarif"}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown":
		return &MarkdownWriter{}, nil
	case "sarif":
		return &SARIFWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// GetPromptWriter returns a prompt writer. Only json has a machine form;
// every other known format renders as text.
func GetPromptWriter(format string) (PromptWriter, error) {
	switch format {
	case "json":
		return &JSONWriter{}, nil
	case "text", "markdown", "sarif":
		return &TextWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to the specified output (file path or stdout).
func WriteReport(report *audit.Report, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}
	return withDestination(outPath, func(w io.Writer) error {
		return writer.Write(w, report)
	})
}

func withDestination(outPath string, fn func(io.Writer) error) error {
	if outPath == "" {
		return fn(os.Stdout)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// categoryIcon returns the marker shown before an issue message.
func categoryIcon(c audit.Category) string {
	switch c {
	case audit.CategorySecret:
		return "🔐"
	case audit.CategorySQLInjection:
		return "💉"
	case audit.CategoryDebugStatement:
		return "📝"
	case audit.CategoryDebugger:
		return "🐛"
	case audit.CategoryTodo:
		return "📌"
	case audit.CategoryLintDisable:
		return "⚠️ "
	default:
		return "•"
	}
}

// visibleWarnings applies the report's warning cap.
func visibleWarnings(report *audit.Report, warnings []audit.Issue) ([]audit.Issue, int) {
	if report.WarningCap <= 0 || len(warnings) <= report.WarningCap {
		return warnings, 0
	}
	return warnings[:report.WarningCap], len(warnings) - report.WarningCap
}
