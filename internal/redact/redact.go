package redact

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Placeholder replaces masked text.
const Placeholder = "[REDACTED]"

// assignmentPatterns capture the secret value in the "value" group; the
// rest of the match (key, operator, quotes) is kept.
var assignmentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:api[_-]?key|api[_-]?secret|private[_-]?key)\s*[:=]\s*["']?(?P<value>[A-Za-z0-9/+=_.-]{10,})`),
	regexp.MustCompile(`(?i)(?:aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?(?P<value>[A-Za-z0-9/+=]{40})`),
	regexp.MustCompile(`(?i)(?:secret|token|password|passwd|credential)\s*[:=]\s*["'](?P<value>[^"']{8,})["']`),
}

// tokenPatterns match secrets that carry no key name.
var tokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	regexp.MustCompile(`-----BEGIN\s+(?:RSA\s+|EC\s+|DSA\s+|OPENSSH\s+)?PRIVATE KEY-----`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
}

// Secrets masks detected secrets in a single line of text.
func Secrets(text string) string {
	result := text
	for _, pat := range assignmentPatterns {
		result = maskValue(pat, result)
	}
	for _, pat := range tokenPatterns {
		result = pat.ReplaceAllLiteralString(result, Placeholder)
	}
	return result
}

func maskValue(pat *regexp.Regexp, text string) string {
	group := pat.SubexpIndex("value")
	locs := pat.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		start, end := loc[2*group], loc[2*group+1]
		if start < 0 {
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(Placeholder)
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

// MatchesPath checks if a file path matches any of the glob patterns. A
// leading "**/" matches the base name in any directory.
func MatchesPath(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := filepath.Match(pattern, path); err == nil && matched {
			return true
		}
		if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
			if matched, err := filepath.Match(rest, filepath.Base(path)); err == nil && matched {
				return true
			}
		}
	}
	return false
}

// Masker masks excerpts taken from a file.
type Masker struct {
	// Paths are globs whose files are masked in full.
	Paths []string
}

// Line masks text taken from path.
func (m Masker) Line(path, text string) string {
	if path != "" && MatchesPath(path, m.Paths) {
		return Placeholder
	}
	return Secrets(text)
}
