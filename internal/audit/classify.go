package audit

import (
	"strings"
	"unicode/utf8"

	"github.com/dshills/preflight/internal/redact"
)

const maxSnippetLen = 120

// Options configures a Classifier.
type Options struct {
	Policy Policy
	// RedactSnippets replaces secrets in issue snippets with [REDACTED].
	RedactSnippets bool
	// RedactPaths are globs whose snippets are masked in full.
	RedactPaths []string
}

// Classifier applies a rule catalog to extracted lines.
type Classifier struct {
	rules []Rule
	opts  Options
}

// NewClassifier creates a Classifier over the given rules, evaluated in order.
func NewClassifier(rules []Rule, opts Options) *Classifier {
	return &Classifier{rules: rules, opts: opts}
}

// Default returns a Classifier over the stock catalog and policy.
func Default() *Classifier {
	return NewClassifier(DefaultRules(), Options{Policy: DefaultPolicy(), RedactSnippets: true})
}

// Classify runs every rule against every line. A line may yield one issue
// per matching rule; issues keep line order, then catalog order.
func (c *Classifier) Classify(lines []Line, mode Mode) ScanResult {
	var res ScanResult
	for _, ln := range lines {
		ctx := Context{Line: ln, Mode: mode, Policy: &c.opts.Policy}
		for _, r := range c.rules {
			if !r.Pattern.MatchString(ln.Text) {
				continue
			}
			if r.Suppress != nil && r.Suppress(ctx) {
				continue
			}
			res.Issues = append(res.Issues, Issue{
				RuleID:   r.ID,
				Severity: r.Severity,
				Category: r.Category,
				Message:  r.Message,
				File:     ln.File,
				Line:     ln.Number,
				FileLine: ln.FileLine,
				Snippet:  c.snippet(ln.File, ln.Text),
			})
		}
	}
	return res
}

// ScanDiff classifies the added lines of a unified diff.
func (c *Classifier) ScanDiff(diff string) ScanResult {
	return c.Classify(DiffLines(diff), ModeDiff)
}

// ScanFile classifies every line of a file's content.
func (c *Classifier) ScanFile(path, content string) ScanResult {
	return c.Classify(FileLines(path, content), ModeFile)
}

func (c *Classifier) snippet(file, text string) string {
	s := strings.TrimSpace(text)
	if c.opts.RedactSnippets {
		s = redact.Masker{Paths: c.opts.RedactPaths}.Line(file, s)
	}
	if utf8.RuneCountInString(s) > maxSnippetLen {
		s = string([]rune(s)[:maxSnippetLen]) + "..."
	}
	return s
}
