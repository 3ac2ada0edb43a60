package promptaudit

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/preflight/internal/history"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"add login button", "add login button", 1.0},
		{"", "", 1.0},
		{"abc", "xyz", 0.0},
		{"abcd", "bcde", 0.75},
		{"add login button", "add login form", 22.0 / 30.0},
	}
	for _, tt := range tests {
		if got := Ratio(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRatio_Unicode(t *testing.T) {
	if got := Ratio("héllo", "héllo"); got != 1.0 {
		t.Errorf("Ratio of identical unicode strings = %v, want 1", got)
	}
	// Five runes each, four shared.
	if got := Ratio("héllo", "hállo"); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("Ratio = %v, want 0.8", got)
	}
}

func TestFindDuplicate(t *testing.T) {
	recent := []history.Task{
		{Title: "Refactor database pool", Date: "2024-01-01"},
		{Title: "Add login form", Date: "2024-01-02"},
		{Title: "ADD LOGIN BUTTONS", Date: "2024-01-03"},
	}

	dup, ok := FindDuplicate("Add login button", recent, 0.6)
	if !ok {
		t.Fatal("expected a duplicate")
	}
	if dup.Title != "Add login form" {
		t.Errorf("Title = %q, want first match %q", dup.Title, "Add login form")
	}
	if dup.Ratio <= 0.6 {
		t.Errorf("Ratio = %v, want > 0.6", dup.Ratio)
	}

	if _, ok := FindDuplicate("Refactor payment webhooks", recent[1:], 0.6); ok {
		t.Error("unexpected duplicate for unrelated title")
	}
	if _, ok := FindDuplicate("Add login button", nil, 0.6); ok {
		t.Error("unexpected duplicate with empty history")
	}
}

func TestFindDuplicate_LowOverlapNeverFlags(t *testing.T) {
	tests := []struct {
		title, other string
	}{
		{"abcdefgh", "stuvwxyz"},
		{"fix login", "update cart"},
	}
	for _, tt := range tests {
		if r := Ratio(tt.title, tt.other); r >= 0.2 {
			t.Fatalf("Ratio(%q, %q) = %v, fixture must overlap under 20%%", tt.title, tt.other, r)
		}
		recent := []history.Task{{Title: tt.other}}
		if dup, ok := FindDuplicate(tt.title, recent, 0.6); ok {
			t.Errorf("FindDuplicate(%q) flagged %+v", tt.title, dup)
		}
	}
}

func TestFindDuplicate_ThresholdIsStrict(t *testing.T) {
	// "abcd" vs "abxy": M=2, T=8, ratio exactly 0.5.
	recent := []history.Task{{Title: "abxy"}}
	if _, ok := FindDuplicate("abcd", recent, 0.5); ok {
		t.Error("ratio equal to threshold must not flag")
	}
	if _, ok := FindDuplicate("abcd", recent, 0.49); !ok {
		t.Error("ratio above threshold must flag")
	}
}

func TestFindConflicts(t *testing.T) {
	recent := []history.Task{
		{Title: "Add a very long task title that overflows", Files: history.NewFileSet("src/b.js", "src/a.js", "src/z.js")},
		{Title: "Short", Files: history.NewFileSet("api/x.ts")},
		{Title: "Other", Files: history.NewFileSet("docs/y.md")},
	}
	files := history.NewFileSet("src/a.js", "src/b.js", "api/x.ts", "new.go")

	got := FindConflicts(files, recent)
	want := []Conflict{
		{File: "src/a.js", Title: "Add a very long task title that overflows"},
		{File: "src/b.js", Title: "Add a very long task title that overflows"},
		{File: "api/x.ts", Title: "Short"},
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("FindConflicts mismatch (-want +got):\n%s", d)
	}

	if got := FindConflicts(history.NewFileSet("lib/q.go"), recent); len(got) != 0 {
		t.Errorf("disjoint sets produced conflicts: %+v", got)
	}
}

func TestConflictString(t *testing.T) {
	tests := []struct {
		c    Conflict
		want string
	}{
		{Conflict{File: "a.js", Title: "Short"}, "a.js (from: Short)"},
		{Conflict{File: "a.js", Title: strings.Repeat("x", 30)}, "a.js (from: " + strings.Repeat("x", 30) + ")"},
		{Conflict{File: "a.js", Title: strings.Repeat("x", 31)}, "a.js (from: " + strings.Repeat("x", 30) + "...)"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestAppendStandards(t *testing.T) {
	got := AppendStandards("Task: do it", DefaultStandards)
	if !strings.HasPrefix(got, "Task: do it\n\n### Coding Standards") {
		t.Errorf("standards not appended: %q", got)
	}
	for _, p := range []string{"Follow our Coding Standards", "see coding standards"} {
		if got := AppendStandards(p, DefaultStandards); got != p {
			t.Errorf("AppendStandards(%q) changed the prompt", p)
		}
	}
	if got := AppendStandards("x", "  "); got != "x" {
		t.Errorf("empty standards appended: %q", got)
	}
}

func TestAudit(t *testing.T) {
	store := history.NewStore([]history.Task{
		{Title: "Refactor database pool", Files: history.NewFileSet("api/db/pool.ts")},
		{Title: "Add login form", Files: history.NewFileSet("src/pages/Login.jsx")},
	})

	t.Run("duplicate and conflict", func(t *testing.T) {
		r := Audit("Task: Add login button\nTouch src/pages/Login.jsx", store, DefaultOptions())
		if r.Status != StatusWarn {
			t.Errorf("Status = %q, want warn", r.Status)
		}
		if r.Duplicate == nil || r.Duplicate.Title != "Add login form" {
			t.Errorf("Duplicate = %+v", r.Duplicate)
		}
		if len(r.Conflicts) != 1 || r.Conflicts[0].File != "src/pages/Login.jsx" {
			t.Errorf("Conflicts = %+v", r.Conflicts)
		}
		want := []string{
			"Similar task exists: 'Add login form'",
			"File conflicts: src/pages/Login.jsx (from: Add login form)",
		}
		if d := cmp.Diff(want, r.Warnings()); d != "" {
			t.Errorf("Warnings mismatch (-want +got):\n%s", d)
		}
		if r.LogDetails() != strings.Join(want, "; ") {
			t.Errorf("LogDetails = %q", r.LogDetails())
		}
		if !strings.Contains(r.Enhanced, "### Coding Standards") {
			t.Error("standards missing from enhanced prompt")
		}
	})

	t.Run("nested path still conflicts", func(t *testing.T) {
		r := Audit("Task: Polish header\nUpdate frontend/src/pages/Login.jsx", store, DefaultOptions())
		if r.Duplicate != nil {
			t.Errorf("Duplicate = %+v, want none", r.Duplicate)
		}
		if len(r.Conflicts) != 1 || r.Conflicts[0].File != "src/pages/Login.jsx" {
			t.Errorf("Conflicts = %+v", r.Conflicts)
		}
	})

	t.Run("unrelated prompt passes", func(t *testing.T) {
		r := Audit("Task: Refactor payment webhooks", store, DefaultOptions())
		if r.Status != StatusPass || r.Duplicate != nil || len(r.Conflicts) != 0 {
			t.Errorf("report = %+v, want clean pass", r)
		}
		if r.LogDetails() != "Clean prompt" {
			t.Errorf("LogDetails = %q", r.LogDetails())
		}
	})

	t.Run("windows limit the checks", func(t *testing.T) {
		opts := DefaultOptions()
		opts.DuplicateWindow = 1
		opts.ConflictWindow = 1
		r := Audit("Task: Refactor database pools\napi/db/pool.ts", store, opts)
		if r.Duplicate != nil || len(r.Conflicts) != 0 {
			t.Errorf("oldest entry should be outside the window: %+v", r)
		}
	})

	t.Run("nil store", func(t *testing.T) {
		opts := DefaultOptions()
		opts.AppendStandards = false
		r := Audit("Task: anything", nil, opts)
		if r.Status != StatusPass || r.Enhanced != "Task: anything" {
			t.Errorf("report = %+v", r)
		}
	})
}
