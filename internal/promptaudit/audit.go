package promptaudit

import (
	"fmt"
	"strings"

	"github.com/dshills/preflight/internal/history"
)

// Status is the outcome of a prompt audit. Prompt audits never fail.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
)

// Options configures Audit.
type Options struct {
	DuplicateThreshold float64
	DuplicateWindow    int
	ConflictWindow     int
	AppendStandards    bool
	Standards          string
}

// DefaultOptions returns the stock thresholds and windows.
func DefaultOptions() Options {
	return Options{
		DuplicateThreshold: 0.6,
		DuplicateWindow:    10,
		ConflictWindow:     5,
		AppendStandards:    true,
		Standards:          DefaultStandards,
	}
}

// Report is the result of auditing one prompt.
type Report struct {
	RunID     string     `json:"runId"`
	Title     string     `json:"title"`
	Files     []string   `json:"files"`
	Duplicate *Duplicate `json:"duplicate,omitempty"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
	Status    Status     `json:"status"`
	Enhanced  string     `json:"enhancedPrompt"`
	History   int        `json:"historyEntries"`
}

// Audit runs the duplicate and conflict checks for prompt against store.
// A nil or empty store yields a passing report.
func Audit(prompt string, store *history.Store, opts Options) Report {
	title := history.TitleOf(prompt)
	files := history.ExtractFiles(prompt)

	r := Report{
		Title:    title,
		Files:    files.Sorted(),
		Status:   StatusPass,
		Enhanced: prompt,
		History:  store.Len(),
	}
	if dup, ok := FindDuplicate(title, store.Recent(opts.DuplicateWindow), opts.DuplicateThreshold); ok {
		r.Duplicate = &dup
	}
	r.Conflicts = FindConflicts(files, store.Recent(opts.ConflictWindow))
	if r.Duplicate != nil || len(r.Conflicts) > 0 {
		r.Status = StatusWarn
	}
	if opts.AppendStandards {
		r.Enhanced = AppendStandards(prompt, opts.Standards)
	}
	return r
}

// Warnings returns one human-readable line per finding.
func (r Report) Warnings() []string {
	var out []string
	if r.Duplicate != nil {
		out = append(out, fmt.Sprintf("Similar task exists: '%s'", r.Duplicate.Title))
	}
	if len(r.Conflicts) > 0 {
		parts := make([]string, len(r.Conflicts))
		for i, c := range r.Conflicts {
			parts[i] = c.String()
		}
		out = append(out, "File conflicts: "+strings.Join(parts, ", "))
	}
	return out
}

// LogDetails summarises the report for the audit log.
func (r Report) LogDetails() string {
	if w := r.Warnings(); len(w) > 0 {
		return strings.Join(w, "; ")
	}
	return "Clean prompt"
}
