package promptaudit

import (
	"fmt"
	"unicode/utf8"

	"github.com/dshills/preflight/internal/history"
)

const conflictTitleLen = 30

// Conflict is a file referenced by both the prompt and a recent task.
type Conflict struct {
	File  string `json:"file"`
	Title string `json:"title"`
}

func (c Conflict) String() string {
	title := c.Title
	if utf8.RuneCountInString(title) > conflictTitleLen {
		title = string([]rune(title)[:conflictTitleLen]) + "..."
	}
	return fmt.Sprintf("%s (from: %s)", c.File, title)
}

// FindConflicts reports every file of files also referenced by a task in
// recent. Conflicts follow task order, with files sorted within a task.
func FindConflicts(files history.FileSet, recent []history.Task) []Conflict {
	var out []Conflict
	for _, t := range recent {
		for _, f := range t.Files.Sorted() {
			if files.Has(f) {
				out = append(out, Conflict{File: f, Title: t.Title})
			}
		}
	}
	return out
}
