package history

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
)

// FileSet is a set of referenced file paths.
type FileSet map[string]struct{}

// NewFileSet creates a set holding paths.
func NewFileSet(paths ...string) FileSet {
	s := make(FileSet, len(paths))
	for _, p := range paths {
		s.Add(p)
	}
	return s
}

// Add inserts p; empty paths are ignored.
func (s FileSet) Add(p string) {
	if p != "" {
		s[p] = struct{}{}
	}
}

// Has reports whether p is in the set.
func (s FileSet) Has(p string) bool {
	_, ok := s[p]
	return ok
}

// Sorted returns the paths in lexical order.
func (s FileSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s FileSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a JSON array of paths.
func (s *FileSet) UnmarshalJSON(data []byte) error {
	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		return err
	}
	*s = NewFileSet(paths...)
	return nil
}

// FileExtractor finds file references in task text. Extractors are
// combined by set union.
type FileExtractor func(text string) []string

var (
	srcPathPattern  = regexp.MustCompile(`\bsrc/[a-zA-Z0-9_/.-]+\.(?:jsx|js|tsx|ts|scss|css|go|py)\b`)
	apiPathPattern  = regexp.MustCompile(`\bapi/[a-zA-Z0-9_/.-]+\.(?:js|ts|go|py)\b`)
	bareFilePattern = regexp.MustCompile(`\b[a-zA-Z0-9_]+\.(?:jsx|js|tsx|ts|py|sh|go)\b`)

	fileListHeader = regexp.MustCompile(`(?i)\bfiles to (?:modify|consider)\b`)
	codeSpan       = regexp.MustCompile("`([^`]+)`")
	pathToken      = regexp.MustCompile(`[a-zA-Z0-9_/.-]+\.[a-z]+`)
)

// DefaultExtractors returns the stock extractors: src/ paths, api/ paths,
// bare file names, and labeled "Files to Modify" lists.
func DefaultExtractors() []FileExtractor {
	return []FileExtractor{
		rootedMatches(srcPathPattern),
		rootedMatches(apiPathPattern),
		tokenMatches(bareFilePattern),
		labeledLists,
	}
}

// ExtractFiles returns the union of every default extractor over text.
func ExtractFiles(text string) FileSet {
	return ExtractFilesWith(text, DefaultExtractors())
}

// ExtractFilesWith returns the union of the given extractors over text.
func ExtractFilesWith(text string, extractors []FileExtractor) FileSet {
	set := FileSet{}
	for _, ex := range extractors {
		for _, p := range ex(text) {
			set.Add(p)
		}
	}
	return set
}

// rootedMatches reports each match as written and, when it sits inside a
// longer path, the full path as well: "frontend/src/App.jsx" yields both
// "src/App.jsx" and "frontend/src/App.jsx".
func rootedMatches(re *regexp.Regexp) FileExtractor {
	return func(text string) []string {
		var out []string
		for _, loc := range re.FindAllStringIndex(text, -1) {
			out = append(out, text[loc[0]:loc[1]])
			if full := enclosingPath(text, loc[0], loc[1]); full != text[loc[0]:loc[1]] {
				out = append(out, full)
			}
		}
		return out
	}
}

// tokenMatches reports the full path enclosing each match, so "service.ts"
// inside "user.service.ts" becomes "user.service.ts" and "Login.jsx" inside
// "src/pages/Login.jsx" becomes the whole path.
func tokenMatches(re *regexp.Regexp) FileExtractor {
	return func(text string) []string {
		var out []string
		for _, loc := range re.FindAllStringIndex(text, -1) {
			out = append(out, enclosingPath(text, loc[0], loc[1]))
		}
		return out
	}
}

// enclosingPath extends text[start:end] left over path bytes and drops a
// leading "./".
func enclosingPath(text string, start, end int) string {
	for start > 0 && isPathByte(text[start-1]) {
		start--
	}
	p := text[start:end]
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}

func isPathByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	}
	return b == '_' || b == '/' || b == '.' || b == '-'
}

// labeledLists reads every "Files to Modify" / "Files to Consider" block.
// Blank lines may separate the label from the list; the list ends at the
// first line that is not a "-" or "*" item.
func labeledLists(text string) []string {
	lines := strings.Split(text, "\n")
	var out []string
	for i := 0; i < len(lines); i++ {
		if !fileListHeader.MatchString(lines[i]) {
			continue
		}
		j := i + 1
		for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
			j++
		}
		for ; j < len(lines); j++ {
			item, ok := listItem(lines[j])
			if !ok {
				break
			}
			if p := itemPath(item); p != "" {
				out = append(out, p)
			}
		}
		i = j - 1
	}
	return out
}

func listItem(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if strings.HasPrefix(t, "-") || strings.HasPrefix(t, "*") {
		return strings.TrimSpace(t[1:]), true
	}
	return "", false
}

// itemPath prefers an inline-code path, then the first path-shaped token.
func itemPath(item string) string {
	for _, m := range codeSpan.FindAllStringSubmatch(item, -1) {
		if p := strings.TrimSpace(m[1]); pathToken.FindString(p) == p {
			return p
		}
	}
	return pathToken.FindString(item)
}
