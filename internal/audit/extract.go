package audit

import (
	"regexp"
	"strconv"
	"strings"
)

// Line is one unit of classifier input. Number is the 1-based position in
// the scanned text; FileLine is the line in the new version of the file, or
// 0 when a diff carries no hunk header.
type Line struct {
	Text     string
	File     string
	Number   int
	FileLine int
}

var hunkHeader = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

const (
	oldFileHeader = "--- "
	newFileHeader = "+++ "
)

// DiffLines extracts the added lines of a unified diff. Each line keeps the
// path from the most recent "+++" header and its 1-based position within
// the diff text. Context, removal and header lines are dropped.
//
// A "+++ " line only counts as a header when it directly follows a "--- "
// line, so added content that itself starts with "++" is still classified.
func DiffLines(diff string) []Line {
	var out []Line
	current := ""
	prevOldHeader := false
	next := 0 // next new-file line; 0 outside a hunk
	for i, raw := range strings.Split(diff, "\n") {
		line := strings.TrimSuffix(raw, "\r")
		if prevOldHeader && strings.HasPrefix(line, newFileHeader) {
			current = headerPath(line)
			prevOldHeader = false
			next = 0
			continue
		}
		prevOldHeader = strings.HasPrefix(line, oldFileHeader)
		if m := hunkHeader.FindStringSubmatch(line); m != nil {
			next, _ = strconv.Atoi(m[1])
			continue
		}
		switch {
		case strings.HasPrefix(line, "+"):
			out = append(out, Line{
				Text:     line[1:],
				File:     current,
				Number:   i + 1,
				FileLine: next,
			})
			if next > 0 {
				next++
			}
		case strings.HasPrefix(line, " ") && next > 0:
			next++
		}
	}
	return out
}

// headerPath returns the path named by a "+++" header, or "" for /dev/null.
func headerPath(line string) string {
	p := strings.TrimPrefix(line, newFileHeader)
	// GNU diff appends a tab and timestamp.
	if tab := strings.IndexByte(p, '\t'); tab >= 0 {
		p = p[:tab]
	}
	p = strings.TrimSpace(p)
	if p == "/dev/null" {
		return ""
	}
	return strings.TrimPrefix(p, "b/")
}

// FileLines splits file content into lines numbered from 1.
func FileLines(path, content string) []Line {
	raw := strings.Split(content, "\n")
	out := make([]Line, 0, len(raw))
	for i, line := range raw {
		out = append(out, Line{
			Text:     strings.TrimSuffix(line, "\r"),
			File:     path,
			Number:   i + 1,
			FileLine: i + 1,
		})
	}
	return out
}
