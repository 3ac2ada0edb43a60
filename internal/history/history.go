package history

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ErrNoHistory is returned by Load when the history document does not exist.
var ErrNoHistory = errors.New("no prompt history")

const (
	sectionDelimiter = "---"
	fence            = "```"
	fallbackTitleLen = 50
)

var (
	headingPattern = regexp.MustCompile(`^##\s+(\d{4}-\d{2}-\d{2})`)
	titlePattern   = regexp.MustCompile(`\bTask:\s*(\S[^\n]*)`)
)

// Task is one parsed history record.
type Task struct {
	Date  string  `json:"date"`
	Title string  `json:"title"`
	Text  string  `json:"text"`
	Files FileSet `json:"files"`
}

// Store is the ordered list of tasks, oldest first.
type Store struct {
	tasks []Task
}

// NewStore creates a Store over tasks, which must be oldest first.
func NewStore(tasks []Task) *Store {
	return &Store{tasks: tasks}
}

// Tasks returns every task in document order.
func (s *Store) Tasks() []Task {
	if s == nil {
		return nil
	}
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tasks)
}

// Recent returns the last n tasks, still oldest first.
func (s *Store) Recent(n int) []Task {
	if s == nil || n <= 0 {
		return nil
	}
	start := len(s.tasks) - n
	if start < 0 {
		start = 0
	}
	out := make([]Task, len(s.tasks)-start)
	copy(out, s.tasks[start:])
	return out
}

// Load reads and parses the history document at path. When the file does
// not exist the returned Store is empty and the error wraps ErrNoHistory.
func Load(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("history document not found", zap.String("path", path))
		return &Store{}, fmt.Errorf("%s: %w", path, ErrNoHistory)
	}
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	s := Parse(string(data))
	logger.Debug("loaded history", zap.String("path", path), zap.Int("tasks", s.Len()))
	return s, nil
}

// Parse parses a history document. Unrecognised content is ignored, so
// Parse never fails; an unstructured document yields an empty Store.
func Parse(doc string) *Store {
	lines := strings.Split(strings.ReplaceAll(doc, "\r\n", "\n"), "\n")
	var tasks []Task
	for _, sec := range splitSections(lines) {
		text, ok := firstFence(sec.body)
		if !ok || text == "" {
			continue
		}
		tasks = append(tasks, Task{
			Date:  sec.date,
			Title: TitleOf(text),
			Text:  text,
			Files: ExtractFiles(text),
		})
	}
	return &Store{tasks: tasks}
}

type section struct {
	date string
	body []string
}

// splitSections drops the preamble and returns each dated section.
func splitSections(lines []string) []section {
	var out []section
	for i := 0; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == sectionDelimiter && i+1 < len(lines) {
			if m := headingPattern.FindStringSubmatch(lines[i+1]); m != nil {
				out = append(out, section{date: m[1]})
				i++
				continue
			}
		}
		if n := len(out); n > 0 {
			out[n-1].body = append(out[n-1].body, lines[i])
		}
	}
	return out
}

// firstFence returns the trimmed content of the first closed fenced block.
func firstFence(body []string) (string, bool) {
	open := -1
	for i, line := range body {
		if !strings.HasPrefix(strings.TrimSpace(line), fence) {
			continue
		}
		if open < 0 {
			open = i
			continue
		}
		return strings.TrimSpace(strings.Join(body[open+1:i], "\n")), true
	}
	return "", false
}

// TitleOf derives a task title: the text after the first "Task:" label, or
// else the first 50 characters of the trimmed text.
func TitleOf(text string) string {
	text = strings.TrimSpace(text)
	if m := titlePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if utf8.RuneCountInString(text) > fallbackTitleLen {
		return string([]rune(text)[:fallbackTitleLen])
	}
	return text
}
