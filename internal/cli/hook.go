package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const (
	hookMarkerStart = "# >>> preflight pre-commit hook >>>"
	hookMarkerEnd   = "# <<< preflight pre-commit hook <<<"
	hookShebang     = "#!/bin/sh"
)

var (
	hookFormat      string
	hookMaxWarnings int
)

// hookScript describes the audit the pre-commit hook runs.
type hookScript struct {
	Format      string
	MaxWarnings int
}

// render returns the marked section. Only exit 1 (a fail verdict or an
// unreadable diff) blocks the commit. SKIP_AUDITOR reaches preflight
// through the environment, where it turns the audit into a logged skip.
func (h hookScript) render() string {
	lines := []string{
		hookMarkerStart,
		"# Commit without auditing: SKIP_AUDITOR=true git commit ...",
		"if command -v preflight >/dev/null 2>&1; then",
		fmt.Sprintf("  preflight audit staged --format %s --max-warnings %d", h.Format, h.MaxWarnings),
		"  preflight_status=$?",
		"  case $preflight_status in",
		"    0) ;;",
		`    1) echo "preflight: commit blocked; fix the critical findings or set SKIP_AUDITOR=true" >&2; exit 1 ;;`,
		`    *) echo "preflight: audit did not run (exit $preflight_status); commit allowed" >&2 ;;`,
		"  esac",
		"else",
		`  echo "preflight: not on PATH; commit allowed" >&2`,
		"fi",
		hookMarkerEnd,
	}
	return strings.Join(lines, "\n") + "\n"
}

// hookSection locates the marked section, end exclusive of a trailing newline.
func hookSection(content string) (start, end int, ok bool) {
	start = strings.Index(content, hookMarkerStart)
	if start < 0 {
		return 0, 0, false
	}
	rel := strings.Index(content[start:], hookMarkerEnd)
	if rel < 0 {
		return 0, 0, false
	}
	end = start + rel + len(hookMarkerEnd)
	if end < len(content) && content[end] == '\n' {
		end++
	}
	return start, end, true
}

// spliceHook swaps in section for an existing one, or appends it.
func spliceHook(content, section string) string {
	if content == "" {
		return hookShebang + "\n" + section
	}
	if start, end, ok := hookSection(content); ok {
		return content[:start] + section + content[end:]
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + section
}

// stripHook removes the section and reports whether anything but a shebang
// is left.
func stripHook(content string) (string, bool) {
	if start, end, ok := hookSection(content); ok {
		content = content[:start] + content[end:]
	}
	rest := strings.TrimSpace(content)
	return content, rest != "" && rest != hookShebang && rest != "#!/bin/bash"
}

// hookPath asks git where hooks live, so core.hooksPath and worktrees work.
func hookPath(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--git-path", "hooks")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository (git rev-parse --git-path hooks failed)")
	}
	hooks := strings.TrimSpace(string(out))
	if !filepath.IsAbs(hooks) && dir != "" {
		hooks = filepath.Join(dir, hooks)
	}
	return filepath.Join(hooks, "pre-commit"), nil
}

func runHookInstall(ctx context.Context, env runEnv, h hookScript) int {
	path, err := hookPath(ctx, env.dir)
	if err != nil {
		env.errorf("%v", err)
		return ExitFail
	}
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		env.errorf("reading hook: %v", err)
		return ExitFail
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		env.errorf("creating hooks directory: %v", err)
		return ExitFail
	}
	if err := os.WriteFile(path, []byte(spliceHook(string(existing), h.render())), 0o755); err != nil {
		env.errorf("writing hook: %v", err)
		return ExitFail
	}
	fmt.Fprintf(env.stdout, "Installed preflight pre-commit hook at %s\n", path)
	return ExitSuccess
}

func runHookUninstall(ctx context.Context, env runEnv) int {
	path, err := hookPath(ctx, env.dir)
	if err != nil {
		env.errorf("%v", err)
		return ExitFail
	}
	existing, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		fmt.Fprintln(env.stdout, "No pre-commit hook found.")
		return ExitSuccess
	}
	if err != nil {
		env.errorf("reading hook: %v", err)
		return ExitFail
	}

	content, keep := stripHook(string(existing))
	if !keep {
		if err := os.Remove(path); err != nil {
			env.errorf("removing hook: %v", err)
			return ExitFail
		}
		fmt.Fprintf(env.stdout, "Removed preflight pre-commit hook at %s\n", path)
		return ExitSuccess
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		env.errorf("writing hook: %v", err)
		return ExitFail
	}
	fmt.Fprintf(env.stdout, "Removed preflight section from %s\n", path)
	return ExitSuccess
}

// hookEnv is the process environment without an audit log; hook management
// is not an audit action.
func hookEnv() runEnv {
	return runEnv{stdout: os.Stdout, stderr: os.Stderr, getenv: os.Getenv, logger: newLogger()}
}

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the git pre-commit hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Run preflight audit staged before every commit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = runHookInstall(cmd.Context(), hookEnv(), hookScript{Format: hookFormat, MaxWarnings: hookMaxWarnings})
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the preflight section from the pre-commit hook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = runHookUninstall(cmd.Context(), hookEnv())
		return nil
	},
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookInstallCmd.Flags().StringVar(&hookFormat, "format", "text", "Output format (text, json, markdown, sarif)")
	hookInstallCmd.Flags().IntVar(&hookMaxWarnings, "max-warnings", 10, "Number of warnings listed in the hook output")
}
