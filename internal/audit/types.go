package audit

// Severity represents the severity level of an issue.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// ParseSeverity validates a severity name.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(s) {
	case SeverityCritical, SeverityWarning:
		return Severity(s), true
	default:
		return "", false
	}
}

// Category represents the kind of red flag an issue describes.
type Category string

const (
	CategorySecret         Category = "secret"
	CategorySQLInjection   Category = "sql-injection"
	CategoryDebugStatement Category = "debug-statement"
	CategoryDebugger       Category = "debugger"
	CategoryTodo           Category = "todo"
	CategoryLintDisable    Category = "lint-disable"
)

// Mode identifies which extractor produced the scanned lines.
type Mode string

const (
	ModeDiff Mode = "diff"
	ModeFile Mode = "file"
	ModeTree Mode = "tree"
)

// Issue is a single finding. Line is 1-based: the position within the diff
// in diff mode, the line within the file otherwise. FileLine is the line in
// the file when known.
type Issue struct {
	RuleID   string   `json:"ruleId"`
	Severity Severity `json:"severity"`
	Category Category `json:"category"`
	Message  string   `json:"message"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line"`
	FileLine int      `json:"fileLine,omitempty"`
	Snippet  string   `json:"snippet,omitempty"`
}

// Verdict is the aggregate outcome of one scan.
type Verdict string

const (
	VerdictClean            Verdict = "clean"
	VerdictPassWithWarnings Verdict = "pass-with-warnings"
	VerdictFail             Verdict = "fail"
)

// ScanResult is the ordered list of issues produced by one scan.
type ScanResult struct {
	Issues []Issue `json:"issues"`
}

// Critical returns the critical issues in scan order.
func (r ScanResult) Critical() []Issue {
	return r.bySeverity(SeverityCritical)
}

// Warnings returns the warning issues in scan order.
func (r ScanResult) Warnings() []Issue {
	return r.bySeverity(SeverityWarning)
}

func (r ScanResult) bySeverity(s Severity) []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Severity == s {
			out = append(out, is)
		}
	}
	return out
}

// Verdict derives the outcome: any critical issue fails the scan.
func (r ScanResult) Verdict() Verdict {
	worst := 0
	for _, is := range r.Issues {
		if rank := SeverityRank(is.Severity); rank > worst {
			worst = rank
		}
	}
	switch worst {
	case SeverityRank(SeverityCritical):
		return VerdictFail
	case SeverityRank(SeverityWarning):
		return VerdictPassWithWarnings
	default:
		return VerdictClean
	}
}

// RepoInfo contains repository metadata.
type RepoInfo struct {
	Root   string `json:"root,omitempty"`
	Head   string `json:"head,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// Counts holds issue counts by severity.
type Counts struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
}

// Summary provides an overview of a scan.
type Summary struct {
	Counts  Counts  `json:"counts"`
	Verdict Verdict `json:"verdict"`
}

// Timing contains performance metrics.
type Timing struct {
	GitMs   int64 `json:"gitMs"`
	ScanMs  int64 `json:"scanMs"`
	TotalMs int64 `json:"totalMs"`
}

// Report is the top-level output structure for diff, file and tree audits.
type Report struct {
	Tool    string   `json:"tool"`
	Version string   `json:"version"`
	RunID   string   `json:"runId"`
	Mode    Mode     `json:"mode"`
	Target  string   `json:"target"`
	Repo    RepoInfo `json:"repo"`
	Summary Summary  `json:"summary"`
	Issues  []Issue  `json:"issues"`
	Timing  Timing   `json:"timing"`
	// WarningCap limits how many warnings human-readable formats list.
	// Zero means no limit. Counts are never capped.
	WarningCap int `json:"-"`
	// ReadError is set when a single-file audit could not read its input.
	ReadError string `json:"readError,omitempty"`
	// Skip is set when the audit ran no scan.
	Skip SkipReason `json:"skip,omitempty"`
}

// SkipReason explains why an audit did not scan.
type SkipReason string

const (
	SkipDisabled  SkipReason = "disabled"
	SkipNoChanges SkipReason = "no-changes"
)

// ComputeSummary calculates the summary from a scan result.
func ComputeSummary(r ScanResult) Summary {
	var s Summary
	for _, is := range r.Issues {
		switch is.Severity {
		case SeverityCritical:
			s.Counts.Critical++
		case SeverityWarning:
			s.Counts.Warning++
		}
	}
	s.Verdict = r.Verdict()
	return s
}
