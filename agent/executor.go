package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/martinemde/codeact/codeact"
)

// Executor performs actions against an environment. Failures of the action
// itself (a missing file, a failing command) are reported in the
// observation; only failures of the executor are returned as errors.
type Executor interface {
	Execute(ctx context.Context, action codeact.Action) (codeact.Observation, error)
}

// DefaultCommandTimeout bounds a single bash command.
const DefaultCommandTimeout = 120 * time.Second

// sensitiveEnvSuffixes are excluded from the command environment.
var sensitiveEnvSuffixes = []string{
	"_API_KEY",
	"_SECRET",
	"_TOKEN",
	"_PASSWORD",
	"_CREDENTIAL",
}

var safeEnvVars = map[string]bool{
	"PATH": true, "HOME": true, "USER": true, "SHELL": true,
	"LANG": true, "TERM": true, "TMPDIR": true,
}

func isSensitiveEnvVar(name string) bool {
	upper := strings.ToUpper(name)
	for _, suffix := range sensitiveEnvSuffixes {
		if strings.HasSuffix(upper, suffix) {
			return true
		}
	}
	return false
}

func filterEnvironment(environ []string) []string {
	var filtered []string
	for _, kv := range environ {
		name, _, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if safeEnvVars[name] || !isSensitiveEnvVar(name) {
			filtered = append(filtered, kv)
		}
	}
	return filtered
}

// LocalExecutor runs commands with bash and edits files on the local
// machine, relative to a working directory.
type LocalExecutor struct {
	workingDir string
	timeout    time.Duration
	shell      string

	mu     sync.Mutex
	nextID int
}

// ExecutorOption configures a LocalExecutor.
type ExecutorOption func(*LocalExecutor)

// WithCommandTimeout overrides DefaultCommandTimeout.
func WithCommandTimeout(d time.Duration) ExecutorOption {
	return func(e *LocalExecutor) { e.timeout = d }
}

// WithShell overrides the shell, /bin/bash by default.
func WithShell(shell string) ExecutorOption {
	return func(e *LocalExecutor) { e.shell = shell }
}

// NewLocalExecutor creates an executor rooted at workingDir, or at the
// current directory when workingDir is empty.
func NewLocalExecutor(workingDir string, opts ...ExecutorOption) *LocalExecutor {
	if workingDir == "" {
		workingDir, _ = os.Getwd()
	}
	e := &LocalExecutor{
		workingDir: workingDir,
		timeout:    DefaultCommandTimeout,
		shell:      "/bin/bash",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WorkingDirectory returns the directory commands run in.
func (e *LocalExecutor) WorkingDirectory() string {
	return e.workingDir
}

// Execute dispatches on the action variant. Messages and finish produce a
// NullObservation.
func (e *LocalExecutor) Execute(ctx context.Context, action codeact.Action) (codeact.Observation, error) {
	switch a := action.(type) {
	case codeact.CommandAction:
		return e.run(ctx, a.Command)
	case codeact.CreateFileAction:
		return e.create(a.Path), nil
	case codeact.ReadFileAction:
		return e.read(a.Path), nil
	case codeact.UpdateFileAction:
		return e.update(a), nil
	case codeact.MessageAction, codeact.FinishAction, nil:
		return codeact.NullObservation{}, nil
	default:
		return nil, fmt.Errorf("execute: unsupported action %T", action)
	}
}

func (e *LocalExecutor) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.workingDir, path)
}

func (e *LocalExecutor) commandID() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	return id
}

func (e *LocalExecutor) run(ctx context.Context, command string) (codeact.Observation, error) {
	id := e.commandID()

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, e.shell, "-c", command)
	cmd.Dir = e.workingDir
	cmd.Env = filterEnvironment(os.Environ())
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	// Kill the whole process group so background children die with the shell.
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = time.Second

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	result := codeact.CommandOutput{CommandID: id, Content: strings.TrimRight(out.String(), "\n")}
	if err == nil {
		return result, nil
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("run command %d: %w", id, ctx.Err())
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.ExitCode = -1
		result.Content += fmt.Sprintf("\nCommand timed out after %s", e.timeout)
		return result, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	return nil, fmt.Errorf("run command %d: %w", id, err)
}

func (e *LocalExecutor) create(path string) codeact.Observation {
	resolved := e.resolvePath(path)
	if _, err := os.Stat(resolved); err == nil {
		return codeact.CreateFileResult{Path: path, Content: "File already exists: " + path}
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return codeact.CreateFileResult{Path: path, Content: err.Error()}
	}
	f, err := os.OpenFile(resolved, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return codeact.CreateFileResult{Path: path, Content: err.Error()}
	}
	_ = f.Close()
	return codeact.CreateFileResult{Path: path, Success: true, Content: "Created file: " + path}
}

func (e *LocalExecutor) read(path string) codeact.Observation {
	data, err := os.ReadFile(e.resolvePath(path))
	if err != nil {
		return codeact.ReadFileResult{Path: path, Content: err.Error()}
	}
	lines := splitLines(string(data))
	var sb strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&sb, "%d|%s\n", i, line)
	}
	return codeact.ReadFileResult{Path: path, Content: strings.TrimRight(sb.String(), "\n")}
}

func (e *LocalExecutor) update(a codeact.UpdateFileAction) codeact.Observation {
	fail := func(msg string) codeact.Observation {
		return codeact.UpdateFileResult{Path: a.Path, Content: msg}
	}
	if err := a.Validate(); err != nil {
		return fail(err.Error())
	}
	resolved := e.resolvePath(a.Path)
	data, err := os.ReadFile(resolved)
	if err != nil {
		return fail(err.Error())
	}
	updated, err := spliceLines(string(data), a.Start, a.Stop, a.Content)
	if err != nil {
		return fail(err.Error())
	}
	if err := os.WriteFile(resolved, []byte(updated), 0o644); err != nil {
		return fail(err.Error())
	}
	return codeact.UpdateFileResult{Path: a.Path, Success: true, Content: "Updated file: " + a.Path}
}

// splitLines splits text into lines without a phantom empty line after a
// trailing newline.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// spliceLines replaces lines [start, stop) of text with content. A stop of
// codeact.EndOfFile runs to the last line.
func spliceLines(text string, start, stop int, content string) (string, error) {
	lines := splitLines(text)
	if stop == codeact.EndOfFile {
		stop = len(lines)
	}
	if start > len(lines) || stop > len(lines) {
		return "", fmt.Errorf("%w: lines %d to %d of a %d-line file", codeact.ErrInvalidRange, start, stop, len(lines))
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:start]...)
	if content != "" {
		out = append(out, splitLines(content)...)
	}
	out = append(out, lines[stop:]...)
	if len(out) == 0 {
		return "", nil
	}
	return strings.Join(out, "\n") + "\n", nil
}
