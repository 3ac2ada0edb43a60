package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/dshills/preflight/internal/gitctx"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// skippedDirs are never descended into.
var skippedDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
}

// Handler audits one settled path, relative to the watched root.
type Handler func(ctx context.Context, path string)

// Options configures a Watcher.
type Options struct {
	Root    string
	Exclude []string
	// Ignore lists files the caller itself writes, such as its own log.
	// Relative paths resolve against the working directory.
	Ignore   []string
	Debounce time.Duration
	Logger   *zap.Logger
}

// Watcher delivers debounced file changes to a Handler.
type Watcher struct {
	fs       *fsnotify.Watcher
	root     string
	exclude  []string
	ignore   map[string]bool
	debounce time.Duration
	handle   Handler
	log      *zap.Logger

	mu      sync.Mutex
	pending map[string]time.Time
}

// New registers the directory tree under opts.Root. The returned Watcher
// owns an OS watch handle that Run releases.
func New(opts Options, handle Handler) (*Watcher, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving watch root: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{
		fs:       fsw,
		root:     root,
		exclude:  opts.Exclude,
		ignore:   make(map[string]bool),
		debounce: opts.Debounce,
		handle:   handle,
		log:      opts.Logger,
		pending:  make(map[string]time.Time),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	for _, p := range opts.Ignore {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if rel, ok := w.relative(abs); ok {
			w.ignore[rel] = true
		}
	}
	if w.log == nil {
		w.log = zap.NewNop()
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Dirs returns the directories currently registered, sorted.
func (w *Watcher) Dirs() []string {
	dirs := w.fs.WatchList()
	sort.Strings(dirs)
	return dirs
}

// Run processes events until ctx is done, then releases the watch handle.
// Handlers run on the event loop, one at a time.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	tick := w.debounce / 3
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	w.log.Info("watching", zap.String("root", w.root), zap.Duration("debounce", w.debounce))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev, time.Now())
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		case now := <-ticker.C:
			for _, rel := range w.settled(now) {
				if ctx.Err() != nil {
					return nil
				}
				w.handle(ctx, rel)
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event, now time.Time) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}
	rel, ok := w.relative(ev.Name)
	if !ok {
		return
	}
	if ev.Has(fsnotify.Create) && isDir(ev.Name) {
		if !w.skipDir(rel) {
			if err := w.addTree(ev.Name); err != nil {
				w.log.Warn("watching new directory", zap.String("dir", rel), zap.Error(err))
			}
		}
		return
	}
	if w.skipFile(rel) {
		return
	}
	w.log.Debug("change", zap.String("path", rel), zap.Stringer("op", ev.Op))
	w.touch(rel, now)
}

// touch records activity on a path, restarting its quiet period.
func (w *Watcher) touch(rel string, now time.Time) {
	w.mu.Lock()
	w.pending[rel] = now
	w.mu.Unlock()
}

// settled removes and returns, sorted, the paths quiet for the debounce window.
func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			out = append(out, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Directories can vanish between the event and the walk.
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.relative(path); ok && rel != "." && w.skipDir(rel) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) relative(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) skipDir(rel string) bool {
	if skippedDirs[filepath.Base(rel)] {
		return true
	}
	return gitctx.MatchesAny(rel, w.exclude) || gitctx.MatchesAny(rel+"/", w.exclude)
}

// skipFile drops ignored and excluded paths and files inside skipped
// directories.
// Editors' swap and backup files are ignored too.
func (w *Watcher) skipFile(rel string) bool {
	if w.ignore[rel] {
		return true
	}
	base := filepath.Base(rel)
	if strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, "~") {
		return true
	}
	for dir := filepath.Dir(rel); dir != "." && dir != "/"; dir = filepath.Dir(dir) {
		if skippedDirs[filepath.Base(dir)] {
			return true
		}
	}
	return gitctx.MatchesAny(rel, w.exclude)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
