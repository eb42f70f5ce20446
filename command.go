package gem2deb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

const rubyCommand = "ruby"

// Package-level hooks so tests can replace external processes.
var (
	execCommandContext = exec.CommandContext
	execLookPath       = exec.LookPath
)

// CommandResult is what one external process produced.
type CommandResult struct {
	Command  string   // Command line as run, for logs
	Dir      string   // Working directory
	Output   []string // Combined stdout and stderr, split into lines
	ExitCode int      // Process exit status; -1 if it never started
}

// runCommand runs name with args in dir and waits for it to finish.
//
// The working directory is set on the child process only; the caller's
// working directory is never changed. env entries (KEY=VALUE) are appended
// to the inherited environment. Stdout and stderr are captured together.
//
// A non-zero exit status is returned as an error wrapping *exec.ExitError.
// The CommandResult is returned in every case so callers can keep the
// output of a failed command.
func runCommand(ctx context.Context, dir string, env []string, name string, args ...string) (*CommandResult, error) {
	cmd := execCommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(cmd.Environ(), env...)
	}

	result := &CommandResult{
		Command:  commandLine(name, args),
		Dir:      dir,
		ExitCode: -1,
	}

	output, err := cmd.CombinedOutput()
	result.Output = splitLines(output)

	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return result, fmt.Errorf("%s exited with code %d: %w", result.Command, result.ExitCode, err)
		}
		return result, fmt.Errorf("running %s: %w", result.Command, err)
	}

	return result, nil
}

// queryCommand runs name with args and returns what it printed on stdout.
// stderr is kept out of the answer and only shows up in the error of a
// failed command.
func queryCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := execCommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		line := commandLine(name, args)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", line, err, msg)
		}
		return "", fmt.Errorf("%s: %w", line, err)
	}
	return stdout.String(), nil
}

// runStep runs one external command for a build and records it in the job
// result: the command line first (like RubyGems' build results), then its
// output.
func runStep(ctx context.Context, config *BuildConfig, job *BuildJob, name string, args ...string) error {
	res, err := runCommand(ctx, job.Extension.Directory, environment(config), name, args...)

	job.Result.Output = append(job.Result.Output, res.Command)
	if config.Verbose {
		job.Result.Output = append(job.Result.Output, fmt.Sprintf("Working directory: %s", res.Dir))
	}
	job.Result.Output = append(job.Result.Output, res.Output...)

	return err
}

// environment flattens config.Env into KEY=VALUE pairs in a stable order.
func environment(config *BuildConfig) []string {
	if config == nil || len(config.Env) == 0 {
		return nil
	}

	keys := make([]string, 0, len(config.Env))
	for key := range config.Env {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, key := range keys {
		env = append(env, fmt.Sprintf("%s=%s", key, config.Env[key]))
	}
	return env
}

func commandLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

func splitLines(output []byte) []string {
	text := strings.TrimRight(string(output), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
