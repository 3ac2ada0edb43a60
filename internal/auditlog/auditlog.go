package auditlog

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const timeLayout = "2006-01-02 15:04:05"

// Status classifies a logged audit.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
	StatusWarn Status = "WARN"
	StatusSkip Status = "SKIP"
)

// Entry is one log line.
type Entry struct {
	Time    time.Time
	Status  Status
	Target  string
	Details string
}

// String formats the entry without a trailing newline. Newlines inside
// details are folded so that one entry is always one line.
func (e Entry) String() string {
	details := strings.Join(strings.Fields(e.Details), " ")
	return fmt.Sprintf("[%s] [%s] [%s] %s", e.Time.Format(timeLayout), e.Status, e.Target, details)
}

// Sink stores log entries.
type Sink interface {
	Append(Entry) error
}

// FileSink appends entries to a file. The file is created on first write;
// its directory is not.
type FileSink struct {
	Path string
}

// Append writes e as one line.
func (s FileSink) Append(e Entry) error {
	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	if _, err := f.WriteString(e.String() + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("writing audit log: %w", err)
	}
	return f.Close()
}

// MemorySink keeps entries in memory.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
}

// Append stores e.
func (s *MemorySink) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

// Entries returns a copy of the stored entries.
func (s *MemorySink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Discard drops every entry.
var Discard Sink = discard{}

type discard struct{}

func (discard) Append(Entry) error { return nil }

// Recorder timestamps entries and writes them to a Sink, swallowing errors.
type Recorder struct {
	sink   Sink
	now    func() time.Time
	logger *zap.Logger
}

// NewRecorder creates a Recorder. A nil sink discards and a nil logger is
// replaced by a no-op logger.
func NewRecorder(sink Sink, logger *zap.Logger) *Recorder {
	if sink == nil {
		sink = Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{sink: sink, now: time.Now, logger: logger}
}

// WithClock returns a copy of r that reads time from now.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	c := *r
	c.now = now
	return &c
}

// Record appends an entry. Failures are reported only to the diagnostic
// logger.
func (r *Recorder) Record(status Status, target, details string) {
	if r == nil {
		return
	}
	e := Entry{Time: r.now(), Status: status, Target: target, Details: details}
	if err := r.sink.Append(e); err != nil {
		r.logger.Debug("audit log write failed", zap.Error(err))
	}
}
