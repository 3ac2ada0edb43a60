package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/preflight/internal/config"
	"github.com/dshills/preflight/internal/watch"
)

// runWatch audits each saved file under root until ctx is done. Files are
// reported by their path relative to root. The audit log and history file
// are never audited, since writing the log would trigger another audit.
func runWatch(ctx context.Context, env runEnv, cfg config.Config, root string) int {
	w, err := watch.New(watch.Options{
		Root:     root,
		Exclude:  cfg.Diff.Exclude,
		Ignore:   []string{cfg.AuditLog, cfg.HistoryFile},
		Debounce: time.Duration(cfg.Watch.DebounceMs) * time.Millisecond,
		Logger:   env.logger,
	}, func(_ context.Context, rel string) {
		path := filepath.Join(root, filepath.FromSlash(rel))
		// Saved then removed before the debounce settled.
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return
		}
		auditFile(env, cfg, path, rel)
	})
	if err != nil {
		env.errorf("%v", err)
		return ExitFail
	}
	if err := w.Run(ctx); err != nil {
		env.errorf("%v", err)
		return ExitFail
	}
	return ExitSuccess
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Audit files as they are saved",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAuditConfig("file.maxWarnings")
		if err != nil {
			return err
		}
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		exitCode = runWatch(cmd.Context(), processEnv(cfg), cfg, root)
		return nil
	},
}

func init() {
	addAuditFlags(watchCmd)
}
