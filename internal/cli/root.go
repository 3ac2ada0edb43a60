package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/preflight/internal/auditlog"
	"github.com/dshills/preflight/internal/config"
	"github.com/dshills/preflight/internal/logging"
)

const version = "0.1.0"

const (
	ExitSuccess    = 0
	ExitFail       = 1
	ExitUsageError = 2
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Pre-submission audit guardrail",
	Long: "Preflight scans staged changes, files and task prompts for leaked secrets, " +
		"injection patterns and leftover debug code before they leave your machine.",
}

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}
	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print preflight version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "preflight version %s\n", version)
	},
}

// runEnv carries the process-level inputs of a command so that runs can be
// driven from tests without touching the real terminal, environment or log.
type runEnv struct {
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
	getenv func(string) string
	sink   auditlog.Sink
	logger *zap.Logger
	// dir is the working directory for git; empty means the process cwd.
	dir string
}

// processEnv binds a runEnv to the real process and the configured audit log.
func processEnv(cfg config.Config) runEnv {
	return runEnv{
		stdout: os.Stdout,
		stderr: os.Stderr,
		stdin:  os.Stdin,
		getenv: os.Getenv,
		sink:   auditlog.FileSink{Path: cfg.AuditLog},
		logger: newLogger(),
	}
}

func (e runEnv) recorder() *auditlog.Recorder {
	return auditlog.NewRecorder(e.sink, e.logger)
}

func (e runEnv) errorf(format string, args ...any) {
	fmt.Fprintf(e.stderr, "Error: "+format+"\n", args...)
}

func newLogger() *zap.Logger {
	logger, err := logging.New(flagVerbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: diagnostic logging disabled: %v\n", err)
		return zap.NewNop()
	}
	return logger
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging on stderr")
}
