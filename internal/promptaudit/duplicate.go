package promptaudit

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/dshills/preflight/internal/history"
)

// Duplicate names the history task a prompt resembles.
type Duplicate struct {
	Title string  `json:"title"`
	Date  string  `json:"date,omitempty"`
	Ratio float64 `json:"ratio"`
}

// Ratio returns the similarity of a and b as 2*M/T, where M is the number
// of matched characters and T the total length of both strings. Matching
// follows difflib's SequenceMatcher, including its automatic junk
// heuristic for sequences of 200 characters or more.
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(splitChars(a), splitChars(b)).Ratio()
}

func splitChars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// FindDuplicate compares title with the titles of recent, case-insensitively,
// and returns the first task whose ratio is strictly above threshold.
func FindDuplicate(title string, recent []history.Task, threshold float64) (Duplicate, bool) {
	needle := strings.ToLower(title)
	for _, t := range recent {
		r := Ratio(needle, strings.ToLower(t.Title))
		if r > threshold {
			return Duplicate{Title: t.Title, Date: t.Date, Ratio: r}, true
		}
	}
	return Duplicate{}, false
}
