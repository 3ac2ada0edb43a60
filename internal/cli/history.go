package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/preflight/internal/config"
	"github.com/dshills/preflight/internal/history"
)

var flagHistoryLimit int

// runHistory lists the parsed history records, newest last.
func runHistory(env runEnv, cfg config.Config, limit int) int {
	store := loadHistory(env, cfg.HistoryFile)
	tasks := store.Tasks()
	if limit > 0 {
		tasks = store.Recent(limit)
	}

	if cfg.Format == "json" {
		if tasks == nil {
			tasks = []history.Task{}
		}
		data, err := json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			env.errorf("marshaling history: %v", err)
			return ExitFail
		}
		fmt.Fprintln(env.stdout, string(data))
		return ExitSuccess
	}

	if len(tasks) == 0 {
		fmt.Fprintf(env.stdout, "No history records in %s\n", cfg.HistoryFile)
		return ExitSuccess
	}
	tw := tabwriter.NewWriter(env.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTITLE\tFILES")
	for _, t := range tasks {
		files := strings.Join(t.Files.Sorted(), ", ")
		if files == "" {
			files = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Date, t.Title, files)
	}
	if err := tw.Flush(); err != nil {
		env.errorf("writing output: %v", err)
		return ExitFail
	}
	return ExitSuccess
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the task records the prompt audit compares against",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(map[string]string{"format": flagFormat})
		if err != nil {
			return err
		}
		exitCode = runHistory(processEnv(cfg), cfg, flagHistoryLimit)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 0, "Show only the most recent N records")
	historyCmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json)")
}
