package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/preflight/internal/auditlog"
	"github.com/dshills/preflight/internal/config"
	"github.com/dshills/preflight/internal/history"
	"github.com/dshills/preflight/internal/output"
	"github.com/dshills/preflight/internal/promptaudit"
)

// promptLogTarget is the audit-log target of prompt audits.
const promptLogTarget = "pre-audit"

var flagPromptFile string

func promptOptions(cfg config.Config) promptaudit.Options {
	opts := promptaudit.Options{
		DuplicateThreshold: cfg.Prompt.DuplicateThreshold,
		DuplicateWindow:    cfg.Prompt.DuplicateWindow,
		ConflictWindow:     cfg.Prompt.ConflictWindow,
		AppendStandards:    cfg.Prompt.AppendStandards,
		Standards:          cfg.Prompt.Standards,
	}
	if opts.Standards == "" {
		opts.Standards = promptaudit.DefaultStandards
	}
	return opts
}

// loadHistory reads the history document. Anything short of a readable
// document degrades to an empty store.
func loadHistory(env runEnv, path string) *history.Store {
	store, err := history.Load(path, env.logger)
	switch {
	case err == nil:
		return store
	case errors.Is(err, history.ErrNoHistory):
		return store
	default:
		env.logger.Warn("history unavailable", zap.String("path", path), zap.Error(err))
		return history.NewStore(nil)
	}
}

// runPrompt audits a task prompt. Prompt audits are advisory: findings never
// change the exit code.
func runPrompt(env runEnv, cfg config.Config, prompt string) int {
	store := loadHistory(env, cfg.HistoryFile)
	report := promptaudit.Audit(prompt, store, promptOptions(cfg))
	report.RunID = uuid.NewString()

	w, err := output.GetPromptWriter(cfg.Format)
	if err != nil {
		env.errorf("%v", err)
		return ExitUsageError
	}
	if err := w.WritePrompt(env.stdout, &report); err != nil {
		env.errorf("writing output: %v", err)
		return ExitFail
	}

	status := auditlog.StatusPass
	if report.Status == promptaudit.StatusWarn {
		status = auditlog.StatusWarn
	}
	env.recorder().Record(status, promptLogTarget, report.LogDetails())
	return ExitSuccess
}

// readPrompt resolves the prompt from --file, the arguments, or stdin.
func readPrompt(env runEnv, args []string) (string, error) {
	var text string
	switch {
	case flagPromptFile != "" && len(args) > 0:
		return "", fmt.Errorf("pass the prompt as arguments or --file, not both")
	case flagPromptFile == "-":
		data, err := io.ReadAll(env.stdin)
		if err != nil {
			return "", fmt.Errorf("reading prompt: %w", err)
		}
		text = string(data)
	case flagPromptFile != "":
		data, err := os.ReadFile(flagPromptFile)
		if err != nil {
			return "", fmt.Errorf("reading prompt: %w", err)
		}
		text = string(data)
	default:
		text = strings.Join(args, " ")
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty prompt")
	}
	return text, nil
}

var promptCmd = &cobra.Command{
	Use:   "prompt [text...]",
	Short: "Pre-audit a task prompt against recent history",
	Long: "Check a new task prompt for near-duplicates and file conflicts with recent tasks in the " +
		"history document, then print the prompt with the coding-standards block appended.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(map[string]string{"format": flagFormat})
		if err != nil {
			return err
		}
		env := processEnv(cfg)
		text, err := readPrompt(env, args)
		if err != nil {
			return err
		}
		exitCode = runPrompt(env, cfg, text)
		return nil
	},
}

func init() {
	promptCmd.Flags().StringVar(&flagPromptFile, "file", "", "Read the prompt from a file (- for stdin)")
	promptCmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json)")
}
