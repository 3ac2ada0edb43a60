package auditlog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var fixed = time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)

func TestEntryString(t *testing.T) {
	tests := []struct {
		e    Entry
		want string
	}{
		{
			Entry{Time: fixed, Status: StatusPass, Target: "staged-changes", Details: "No issues"},
			"[2024-03-01 10:15:00] [PASS] [staged-changes] No issues",
		},
		{
			Entry{Time: fixed, Status: StatusWarn, Target: "prompt", Details: "a\nb  c"},
			"[2024-03-01 10:15:00] [WARN] [prompt] a b c",
		},
		{
			Entry{Time: fixed, Status: StatusSkip, Target: "file:x.go"},
			"[2024-03-01 10:15:00] [SKIP] [file:x.go] ",
		},
	}
	for _, tt := range tests {
		if got := tt.e.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFileSink_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	sink := FileSink{Path: path}

	for _, st := range []Status{StatusPass, StatusFail} {
		if err := sink.Append(Entry{Time: fixed, Status: st, Target: "t", Details: "d"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "[2024-03-01 10:15:00] [PASS] [t] d\n[2024-03-01 10:15:00] [FAIL] [t] d\n"
	if string(data) != want {
		t.Errorf("log = %q, want %q", data, want)
	}
}

func TestFileSink_DoesNotCreateDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	sink := FileSink{Path: filepath.Join(dir, "audit.log")}
	if err := sink.Append(Entry{Time: fixed, Status: StatusPass}); err == nil {
		t.Fatal("expected error when directory is missing")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("directory was created: %v", err)
	}
}

type failingSink struct{ calls int }

func (f *failingSink) Append(Entry) error {
	f.calls++
	return errors.New("disk full")
}

func TestRecorder(t *testing.T) {
	mem := &MemorySink{}
	rec := NewRecorder(mem, nil).WithClock(func() time.Time { return fixed })
	rec.Record(StatusFail, "staged-changes", "1 critical")
	rec.Record(StatusSkip, "staged-changes", "SKIP_AUDITOR set")

	want := []Entry{
		{Time: fixed, Status: StatusFail, Target: "staged-changes", Details: "1 critical"},
		{Time: fixed, Status: StatusSkip, Target: "staged-changes", Details: "SKIP_AUDITOR set"},
	}
	if d := cmp.Diff(want, mem.Entries()); d != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", d)
	}
}

func TestRecorder_SwallowsErrors(t *testing.T) {
	sink := &failingSink{}
	rec := NewRecorder(sink, nil)
	rec.Record(StatusPass, "x", "y")
	if sink.calls != 1 {
		t.Errorf("calls = %d, want 1", sink.calls)
	}

	var nilRec *Recorder
	nilRec.Record(StatusPass, "x", "y")
	NewRecorder(nil, nil).Record(StatusPass, "x", "y")
}
