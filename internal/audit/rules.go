package audit

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownRule is returned when a rules file names a rule or category
// that is not in the catalog.
var ErrUnknownRule = errors.New("unknown rule")

// Rule is one entry of the declarative catalog. A rule fires on a line when
// Pattern matches and Suppress (if set) returns false.
type Rule struct {
	ID       string
	Category Category
	Severity Severity
	Pattern  *regexp.Regexp
	Message  string
	Suppress func(Context) bool
}

// Context is everything a suppression predicate may consult.
type Context struct {
	Line   Line
	Mode   Mode
	Policy *Policy
}

// Policy holds the tunable inputs of the suppression predicates.
type Policy struct {
	// EnvMarkers are substrings that mark a credential-looking value as an
	// environment lookup rather than a literal.
	EnvMarkers []string
	// SkipSQLExtensions are file suffixes where ${...} interpolation is
	// ordinary syntax (shell scripts, docs).
	SkipSQLExtensions []string
}

// DefaultPolicy returns the stock suppression inputs.
func DefaultPolicy() Policy {
	return Policy{
		EnvMarkers:        []string{"process.env", "import.meta.env", "os.environ", "os.getenv", "getenv("},
		SkipSQLExtensions: []string{".sh", ".bash", ".zsh", ".md", ".markdown"},
	}
}

// placeholderWords mark a credential match as sample data.
var placeholderWords = []string{"example", "test"}

// diffTestMarkers and fileTestMarkers are deliberately separate: a diff hunk
// only knows the tracked path and the added text, a file audit knows the
// whole path.
var (
	diffTestMarkers = []string{"test", "spec", "debug"}
	fileTestMarkers = []string{"test", "spec", "__tests__", "fixtures"}
)

// DefaultRules returns the fixed catalog in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:       "api-key",
			Category: CategorySecret,
			Severity: SeverityCritical,
			Pattern:  regexp.MustCompile(`(?i)api[_-]?key\s*[=:]\s*["'][^"']{10,}["']`),
			Message:  "Possible API key found",
			Suppress: isPlaceholder,
		},
		{
			ID:       "password",
			Category: CategorySecret,
			Severity: SeverityCritical,
			Pattern:  regexp.MustCompile(`(?i)password\s*[=:]\s*["'][^"']+["']`),
			Message:  "Possible Password found",
			Suppress: isPlaceholder,
		},
		{
			ID:       "secret",
			Category: CategorySecret,
			Severity: SeverityCritical,
			Pattern:  regexp.MustCompile(`(?i)secret\s*[=:]\s*["'][^"']{10,}["']`),
			Message:  "Possible Secret found",
			Suppress: isPlaceholder,
		},
		{
			ID:       "token",
			Category: CategorySecret,
			Severity: SeverityCritical,
			Pattern:  regexp.MustCompile(`(?i)token\s*[=:]\s*["'][^"']{20,}["']`),
			Message:  "Possible Token found",
			Suppress: isPlaceholder,
		},
		{
			ID:       "private-key",
			Category: CategorySecret,
			Severity: SeverityCritical,
			Pattern:  regexp.MustCompile(`(?i)private[_-]?key\s*[=:]\s*["'][^"']{10,}["']`),
			Message:  "Possible Private key found",
			Suppress: isPlaceholder,
		},
		{
			ID:       "private-key-block",
			Category: CategorySecret,
			Severity: SeverityCritical,
			Pattern:  regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`),
			Message:  "Possible Private key block found",
			Suppress: isPlaceholder,
		},
		{
			ID:       "sql-injection",
			Category: CategorySQLInjection,
			Severity: SeverityCritical,
			Pattern:  regexp.MustCompile(`(?i)\$\{.*\}.*(?:SELECT|INSERT|UPDATE|DELETE|DROP)`),
			Message:  "Possible SQL injection",
			Suppress: isShellOrDoc,
		},
		{
			ID:       "debug-print",
			Category: CategoryDebugStatement,
			Severity: SeverityWarning,
			Pattern:  debugCallPattern,
			Message:  "Debug print statement found",
			Suppress: isTestContext,
		},
		{
			ID:       "debugger",
			Category: CategoryDebugger,
			Severity: SeverityWarning,
			Pattern:  regexp.MustCompile(`\bdebugger\b|\bbreakpoint\(\)|\bpdb\.set_trace\(\)`),
			Message:  "debugger statement",
			Suppress: isCommentedInFile,
		},
		{
			ID:       "todo",
			Category: CategoryTodo,
			Severity: SeverityWarning,
			Pattern:  regexp.MustCompile(`(?:TODO|FIXME|HACK|XXX):`),
			Message:  "TODO/FIXME found",
		},
		{
			ID:       "lint-disable",
			Category: CategoryLintDisable,
			Severity: SeverityWarning,
			Pattern:  regexp.MustCompile(`eslint-disable|\bnolint\b|pylint:\s*disable|#\s*noqa\b|@ts-ignore|@ts-nocheck`),
			Message:  "Linter disabled",
		},
	}
}

func isPlaceholder(c Context) bool {
	lower := strings.ToLower(c.Line.Text)
	if c.Policy != nil {
		for _, m := range c.Policy.EnvMarkers {
			if m != "" && strings.Contains(lower, strings.ToLower(m)) {
				return true
			}
		}
	}
	return containsAny(lower, placeholderWords)
}

func isShellOrDoc(c Context) bool {
	if c.Policy == nil {
		return false
	}
	file := strings.ToLower(c.Line.File)
	for _, ext := range c.Policy.SkipSQLExtensions {
		if ext != "" && strings.HasSuffix(file, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func isTestContext(c Context) bool {
	if c.Mode == ModeDiff {
		if containsAny(strings.ToLower(c.Line.File), diffTestMarkers) {
			return true
		}
		return containsAny(strings.ToLower(stripDebugCalls(stripLiterals(c.Line.Text))), diffTestMarkers)
	}
	return IsTestPath(c.Line.File)
}

func isCommentedInFile(c Context) bool {
	if c.Mode == ModeDiff {
		return false
	}
	trimmed := strings.TrimSpace(c.Line.Text)
	return strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#")
}

// IsTestPath reports whether a path looks like test code or test data.
func IsTestPath(path string) bool {
	return containsAny(strings.ToLower(path), fileTestMarkers)
}

var literalPattern = regexp.MustCompile("\"(?:[^\"\\\\]|\\\\.)*\"|'(?:[^'\\\\]|\\\\.)*'|`[^`]*`")

// stripLiterals removes quoted string literals so that the text a debug
// print emits does not count as test context.
func stripLiterals(s string) string {
	return literalPattern.ReplaceAllString(s, "")
}

var debugCallPattern = regexp.MustCompile(`console\.(?:log|debug|trace)\b`)

// stripDebugCalls removes the console call names themselves, which would
// otherwise read as a "debug" marker.
func stripDebugCalls(s string) string {
	return debugCallPattern.ReplaceAllString(s, "")
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// RuleSet represents a rules file loaded from --rules.
type RuleSet struct {
	Disable           []string          `yaml:"disable,omitempty"`
	SeverityOverrides map[string]string `yaml:"severityOverrides,omitempty"`
}

// LoadRules loads a rules file from disk. Returns nil RuleSet and nil error if path is empty.
func LoadRules(path string) (*RuleSet, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	return &rs, nil
}

// ApplyRuleSet returns a copy of rules with disabled entries removed and
// severity overrides applied. Override keys may name a rule ID or a category.
func ApplyRuleSet(rules []Rule, rs *RuleSet) ([]Rule, error) {
	out := make([]Rule, len(rules))
	copy(out, rules)
	if rs == nil {
		return out, nil
	}

	known := func(key string) bool {
		for _, r := range rules {
			if r.ID == key || string(r.Category) == key {
				return true
			}
		}
		return false
	}

	for key, sev := range rs.SeverityOverrides {
		if !known(key) {
			return nil, fmt.Errorf("severity override %q: %w", key, ErrUnknownRule)
		}
		if _, ok := ParseSeverity(sev); !ok {
			return nil, fmt.Errorf("severity override %q: invalid severity %q", key, sev)
		}
	}
	// Rule IDs win over categories.
	for i := range out {
		if sev, ok := rs.SeverityOverrides[string(out[i].Category)]; ok {
			out[i].Severity = Severity(sev)
		}
		if sev, ok := rs.SeverityOverrides[out[i].ID]; ok {
			out[i].Severity = Severity(sev)
		}
	}

	disabled := make(map[string]bool, len(rs.Disable))
	for _, key := range rs.Disable {
		if !known(key) {
			return nil, fmt.Errorf("disable %q: %w", key, ErrUnknownRule)
		}
		disabled[key] = true
	}
	kept := out[:0]
	for _, r := range out {
		if disabled[r.ID] || disabled[string(r.Category)] {
			continue
		}
		kept = append(kept, r)
	}
	return kept, nil
}
