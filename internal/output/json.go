package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/preflight/internal/audit"
	"github.com/dshills/preflight/internal/promptaudit"
)

// JSONWriter outputs the full report as JSON.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, report *audit.Report) error {
	out := *report
	if out.Issues == nil {
		out.Issues = []audit.Issue{}
	}
	return writeJSON(w, out)
}

// WritePrompt outputs the prompt audit as JSON, enhanced prompt included.
func (j *JSONWriter) WritePrompt(w io.Writer, report *promptaudit.Report) error {
	out := *report
	if out.Files == nil {
		out.Files = []string{}
	}
	return writeJSON(w, out)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
