package exec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultShell runs scripts with errexit so a failing line fails the script.
var DefaultShell = []string{"bash", "-e", "-c"}

// ScriptRunner runs user supplied shell scripts.
type ScriptRunner struct {
	log    logrus.FieldLogger
	shell  []string
	dir    string
	stdout io.Writer
	stderr io.Writer
}

// ScriptOption configures a ScriptRunner.
type ScriptOption func(*ScriptRunner)

// WithShell overrides the shell command used to run scripts. The script is
// appended as the final argument.
func WithShell(shell ...string) ScriptOption {
	return func(r *ScriptRunner) {
		r.shell = shell
	}
}

// WithDir sets the working directory scripts run in.
func WithDir(dir string) ScriptOption {
	return func(r *ScriptRunner) {
		r.dir = dir
	}
}

// WithOutput sets where script output is streamed.
func WithOutput(stdout, stderr io.Writer) ScriptOption {
	return func(r *ScriptRunner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// NewScriptRunner creates a runner that streams script output to the
// process stdout and stderr.
func NewScriptRunner(log logrus.FieldLogger, opts ...ScriptOption) *ScriptRunner {
	r := &ScriptRunner{
		log:    log.WithField("package", "exec"),
		shell:  DefaultShell,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run executes script with the process environment plus env. The process
// environment itself is left untouched.
func (r *ScriptRunner) Run(ctx context.Context, script string, env map[string]string) error {
	if strings.TrimSpace(script) == "" {
		return nil
	}

	if len(r.shell) == 0 {
		return errors.New("no shell configured")
	}

	args := append(slices.Clone(r.shell[1:]), script)

	//nolint:gosec // scripts are supplied by the repository owner
	cmd := exec.CommandContext(ctx, r.shell[0], args...)
	cmd.Dir = r.dir
	cmd.Env = Environ(os.Environ(), env)

	r.log.WithFields(logrus.Fields{
		"shell": r.shell[0],
		"env":   sortedKeys(env),
	}).Debug("running script")

	if err := runCmd(cmd, true, r.stdout, r.stderr); err != nil {
		return fmt.Errorf("script failed: %w", err)
	}

	return nil
}

// Environ returns base with every entry of env applied. Existing keys are
// replaced in place and new keys are appended in sorted order.
func Environ(base []string, env map[string]string) []string {
	out := make([]string, 0, len(base)+len(env))
	seen := make(map[string]bool, len(env))

	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")

		if val, ok := env[key]; ok {
			out = append(out, key+"="+val)
			seen[key] = true

			continue
		}

		out = append(out, kv)
	}

	for _, key := range sortedKeys(env) {
		if !seen[key] {
			out = append(out, key+"="+env[key])
		}
	}

	return out
}

func sortedKeys(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
