package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/preflight/internal/audit"
	"github.com/dshills/preflight/internal/auditlog"
	"github.com/dshills/preflight/internal/config"
	"github.com/dshills/preflight/internal/gitctx"
	"github.com/dshills/preflight/internal/output"
)

// Shared audit flags
var (
	flagFormat      string
	flagOut         string
	flagRules       string
	flagExclude     string
	flagNoRedact    bool
	flagMaxWarnings int
	flagMergeBase   bool
	flagPaths       string
)

func addAuditFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagRules, "rules", "", "Rules file path")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Show secrets in snippets (use with caution)")
	cmd.Flags().IntVar(&flagMaxWarnings, "max-warnings", 0, "Number of warnings listed in text output")
}

// buildOverrides maps flags onto config keys. capKey names the warning cap
// the current mode uses.
func buildOverrides(capKey string) map[string]string {
	m := make(map[string]string)
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagRules != "" {
		m["rulesFile"] = flagRules
	}
	if flagMaxWarnings > 0 {
		m[capKey] = strconv.Itoa(flagMaxWarnings)
	}
	return m
}

// loadAuditConfig loads the effective config and applies the flags that
// have no config key of their own.
func loadAuditConfig(capKey string) (config.Config, error) {
	cfg, err := config.Load(buildOverrides(capKey))
	if err != nil {
		return config.Config{}, err
	}
	if flagExclude != "" {
		cfg.Diff.Exclude = append(cfg.Diff.Exclude, splitComma(flagExclude)...)
	}
	if flagNoRedact {
		cfg.Privacy.RedactSnippets = false
		fmt.Fprintln(os.Stderr, "WARNING: snippet redaction is disabled")
	}
	return cfg, nil
}

func diffOpts(env runEnv, cfg config.Config) gitctx.DiffOptions {
	opts := gitctx.DiffOptions{Dir: env.dir, Exclude: cfg.Diff.Exclude}
	if flagPaths != "" {
		opts.Include = splitComma(flagPaths)
	}
	return opts
}

func splitComma(s string) []string {
	var result []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// buildClassifier assembles the catalog, rules file and policy from config.
func buildClassifier(cfg config.Config) (*audit.Classifier, error) {
	rs, err := audit.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, err
	}
	rules, err := audit.ApplyRuleSet(audit.DefaultRules(), rs)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", cfg.RulesFile, err)
	}
	policy := audit.DefaultPolicy()
	if len(cfg.Rules.EnvMarkers) > 0 {
		policy.EnvMarkers = cfg.Rules.EnvMarkers
	}
	if len(cfg.Rules.SkipSQLExtensions) > 0 {
		policy.SkipSQLExtensions = cfg.Rules.SkipSQLExtensions
	}
	return audit.NewClassifier(rules, audit.Options{
		Policy:         policy,
		RedactSnippets: cfg.Privacy.RedactSnippets,
		RedactPaths:    cfg.Privacy.RedactPaths,
	}), nil
}

func newReport(mode audit.Mode, target string, repo gitctx.RepoMeta, res audit.ScanResult) *audit.Report {
	return &audit.Report{
		Tool:    "preflight",
		Version: version,
		RunID:   uuid.NewString(),
		Mode:    mode,
		Target:  target,
		Repo:    audit.RepoInfo{Root: repo.Root, Head: repo.Head, Branch: repo.Branch},
		Summary: audit.ComputeSummary(res),
		Issues:  res.Issues,
	}
}

// emit writes the report to --out, or to the environment's stdout.
func emit(env runEnv, report *audit.Report, format string) error {
	if flagOut != "" {
		return output.WriteReport(report, format, flagOut)
	}
	w, err := output.GetWriter(format)
	if err != nil {
		return err
	}
	return w.Write(env.stdout, report)
}

// recordOutcome appends the verdict line to the audit log.
func recordOutcome(rec *auditlog.Recorder, logTarget string, s audit.Summary) {
	switch s.Verdict {
	case audit.VerdictFail:
		rec.Record(auditlog.StatusFail, logTarget, fmt.Sprintf("Critical: %d, Warnings: %d", s.Counts.Critical, s.Counts.Warning))
	case audit.VerdictPassWithWarnings:
		rec.Record(auditlog.StatusWarn, logTarget, fmt.Sprintf("Warnings: %d", s.Counts.Warning))
	default:
		rec.Record(auditlog.StatusPass, logTarget, "Clean")
	}
}

func verdictExit(v audit.Verdict) int {
	if v == audit.VerdictFail {
		return ExitFail
	}
	return ExitSuccess
}

// diffSource fetches the diff for one audit target.
type diffSource func(ctx context.Context, opts gitctx.DiffOptions) (gitctx.DiffResult, error)

// diffTarget names what a diff audit scans: target for humans, logTarget
// for the audit log.
type diffTarget struct {
	target    string
	logTarget string
	fetch     diffSource
}

// runDiffAudit runs one diff audit end to end and returns the exit code.
func runDiffAudit(ctx context.Context, env runEnv, cfg config.Config, t diffTarget) int {
	start := time.Now()
	rec := env.recorder()

	if config.SkipRequested(env.getenv) {
		report := &audit.Report{Tool: "preflight", Version: version, RunID: uuid.NewString(),
			Mode: audit.ModeDiff, Target: t.target, Skip: audit.SkipDisabled}
		if err := emit(env, report, cfg.Format); err != nil {
			env.errorf("writing output: %v", err)
		}
		rec.Record(auditlog.StatusSkip, t.logTarget, "SKIP_AUDITOR set")
		return ExitSuccess
	}

	classifier, err := buildClassifier(cfg)
	if err != nil {
		env.errorf("%v", err)
		return ExitUsageError
	}

	gitStart := time.Now()
	diff, err := t.fetch(ctx, diffOpts(env, cfg))
	if err != nil {
		env.errorf("%v", err)
		return ExitFail
	}
	gitMs := time.Since(gitStart).Milliseconds()

	if diff.Empty() {
		report := newReport(audit.ModeDiff, t.target, diff.Repo, audit.ScanResult{})
		report.Skip = audit.SkipNoChanges
		if err := emit(env, report, cfg.Format); err != nil {
			env.errorf("writing output: %v", err)
			return ExitFail
		}
		rec.Record(auditlog.StatusSkip, t.logTarget, "No "+t.target)
		return ExitSuccess
	}

	scanStart := time.Now()
	res := classifier.ScanDiff(diff.Diff)
	report := newReport(audit.ModeDiff, t.target, diff.Repo, res)
	report.WarningCap = cfg.Diff.MaxWarnings
	report.Timing = audit.Timing{
		GitMs:   gitMs,
		ScanMs:  time.Since(scanStart).Milliseconds(),
		TotalMs: time.Since(start).Milliseconds(),
	}
	env.logger.Debug("diff audited",
		zap.String("target", t.logTarget),
		zap.Int("files", len(diff.Files)),
		zap.String("verdict", string(report.Summary.Verdict)))

	if err := emit(env, report, cfg.Format); err != nil {
		env.errorf("writing output: %v", err)
		return ExitFail
	}
	recordOutcome(rec, t.logTarget, report.Summary)
	return verdictExit(report.Summary.Verdict)
}

// runFileAudit audits one file. A missing path is fatal; any other read
// failure is shown but is not.
func runFileAudit(env runEnv, cfg config.Config, path string) int {
	return auditFile(env, cfg, path, path)
}

// auditFile reads path and reports it under name, which also drives the
// test-path heuristics.
func auditFile(env runEnv, cfg config.Config, path, name string) int {
	start := time.Now()
	rec := env.recorder()
	logTarget := "file:" + name

	classifier, err := buildClassifier(cfg)
	if err != nil {
		env.errorf("%v", err)
		return ExitUsageError
	}

	var res audit.ScanResult
	data, readErr := os.ReadFile(path)
	if errors.Is(readErr, fs.ErrNotExist) {
		env.errorf("%v", readErr)
		return ExitFail
	}
	if readErr == nil {
		res = classifier.ScanFile(name, string(data))
	}
	report := newReport(audit.ModeFile, name, gitctx.RepoMeta{}, res)
	report.WarningCap = cfg.File.MaxWarnings
	report.Timing = audit.Timing{ScanMs: time.Since(start).Milliseconds(), TotalMs: time.Since(start).Milliseconds()}
	if readErr != nil {
		report.ReadError = readErr.Error()
	}

	if err := emit(env, report, cfg.Format); err != nil {
		env.errorf("writing output: %v", err)
		return ExitFail
	}
	if readErr != nil {
		rec.Record(auditlog.StatusSkip, logTarget, "Could not read file")
		return ExitSuccess
	}
	recordOutcome(rec, logTarget, report.Summary)
	return verdictExit(report.Summary.Verdict)
}

// runTreeAudit audits every tracked file in whole-file mode.
func runTreeAudit(ctx context.Context, env runEnv, cfg config.Config) int {
	start := time.Now()
	rec := env.recorder()

	classifier, err := buildClassifier(cfg)
	if err != nil {
		env.errorf("%v", err)
		return ExitUsageError
	}

	tree, err := gitctx.Tree(ctx, diffOpts(env, cfg))
	if err != nil {
		env.errorf("%v", err)
		return ExitFail
	}
	gitMs := time.Since(start).Milliseconds()
	for _, p := range tree.Skipped {
		env.logger.Debug("skipped file", zap.String("path", p))
	}

	scanStart := time.Now()
	var res audit.ScanResult
	for _, f := range tree.Files {
		res.Issues = append(res.Issues, classifier.ScanFile(f.Path, f.Content).Issues...)
	}
	report := newReport(audit.ModeTree, "tracked files", tree.Repo, res)
	report.WarningCap = cfg.Diff.MaxWarnings
	report.Timing = audit.Timing{
		GitMs:   gitMs,
		ScanMs:  time.Since(scanStart).Milliseconds(),
		TotalMs: time.Since(start).Milliseconds(),
	}

	if err := emit(env, report, cfg.Format); err != nil {
		env.errorf("writing output: %v", err)
		return ExitFail
	}
	recordOutcome(rec, "tree", report.Summary)
	return verdictExit(report.Summary.Verdict)
}

// textSource reads diff text from a file, or stdin for "" and "-".
func textSource(env runEnv, path string) diffTarget {
	name := path
	if path == "" || path == "-" {
		name = "stdin"
	}
	return diffTarget{
		target:    "diff from " + name,
		logTarget: "diff:" + name,
		fetch: func(ctx context.Context, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
			var data []byte
			var err error
			if name == "stdin" {
				data, err = io.ReadAll(env.stdin)
			} else {
				data, err = os.ReadFile(path)
			}
			if err != nil {
				return gitctx.DiffResult{}, fmt.Errorf("reading diff: %w", err)
			}
			return gitctx.FromText(ctx, string(data), name, opts), nil
		},
	}
}

var (
	stagedTarget = diffTarget{
		target:    "staged changes",
		logTarget: "staged-changes",
		fetch:     gitctx.Staged,
	}
	unstagedTarget = diffTarget{
		target:    "unstaged changes",
		logTarget: "unstaged-changes",
		fetch:     gitctx.Unstaged,
	}
)

func rangeTarget(revRange string, mergeBase bool) diffTarget {
	return diffTarget{
		target:    "changes in " + revRange,
		logTarget: "range:" + revRange,
		fetch: func(ctx context.Context, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
			return gitctx.Range(ctx, revRange, mergeBase, opts)
		},
	}
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit code for red flags",
	Long:  "Scan added lines of a diff, a single file, or every tracked file for secrets, injection patterns and debug leftovers.",
}

func diffCommand(use, short string, args cobra.PositionalArgs, target func(env runEnv, args []string) diffTarget) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAuditConfig("diff.maxWarnings")
			if err != nil {
				return err
			}
			env := processEnv(cfg)
			exitCode = runDiffAudit(cmd.Context(), env, cfg, target(env, args))
			return nil
		},
	}
}

var auditStagedCmd = diffCommand("staged", "Audit staged changes (index vs HEAD)", cobra.NoArgs,
	func(runEnv, []string) diffTarget { return stagedTarget })

var auditUnstagedCmd = diffCommand("unstaged", "Audit unstaged changes (working tree vs index)", cobra.NoArgs,
	func(runEnv, []string) diffTarget { return unstagedTarget })

var auditRangeCmd = diffCommand("range <revRange>", "Audit a revision range (e.g., origin/main..HEAD)", cobra.ExactArgs(1),
	func(_ runEnv, args []string) diffTarget { return rangeTarget(args[0], flagMergeBase) })

var auditDiffCmd = diffCommand("diff [path|-]", "Audit a unified diff from a file or stdin", cobra.MaximumNArgs(1),
	func(env runEnv, args []string) diffTarget {
		if len(args) == 0 {
			return textSource(env, "")
		}
		return textSource(env, args[0])
	})

var auditFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Audit a single file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAuditConfig("file.maxWarnings")
		if err != nil {
			return err
		}
		exitCode = runFileAudit(processEnv(cfg), cfg, args[0])
		return nil
	},
}

var auditTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Audit every tracked file in the repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAuditConfig("diff.maxWarnings")
		if err != nil {
			return err
		}
		exitCode = runTreeAudit(cmd.Context(), processEnv(cfg), cfg)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{
		auditStagedCmd,
		auditUnstagedCmd,
		auditRangeCmd,
		auditDiffCmd,
		auditFileCmd,
		auditTreeCmd,
	} {
		addAuditFlags(cmd)
		auditCmd.AddCommand(cmd)
	}

	auditRangeCmd.Flags().BoolVar(&flagMergeBase, "merge-base", true, "Use merge base for branch comparisons")
	auditTreeCmd.Flags().StringVar(&flagPaths, "paths", "", "Include file path globs (comma-separated)")
}
