package toolexec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"mipexport/internal/logging"
)

// Command describes one external tool invocation.
type Command struct {
	// Tool is a short human name ("inkscape", "nvdxt", "stitch").
	Tool   string
	Binary string
	Args   []string
	// Dir is the working directory of the child process.
	Dir string
	// Env entries are appended to the parent environment.
	Env []string
}

// String renders the command line for logs.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quoteArg(c.Binary))
	for _, arg := range c.Args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg string) string {
	if arg == "" || strings.ContainsAny(arg, " \t\"'") {
		return fmt.Sprintf("%q", arg)
	}
	return arg
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, cmd Command, onOutput func(string)) error
}

// ExitError reports a tool that ran and exited with a non-zero status.
type ExitError struct {
	Tool string
	Args []string
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Tool, e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the exit status from err when it wraps an *ExitError.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		return exitErr.Code, true
	}
	return 0, false
}

// NewExecutor returns the os/exec backed executor.
func NewExecutor() Executor {
	return commandExecutor{}
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, command Command, onOutput func(string)) error {
	cmd := exec.CommandContext(ctx, command.Binary, command.Args...) //nolint:gosec
	cmd.Dir = command.Dir
	if len(command.Env) > 0 {
		cmd.Env = append(os.Environ(), command.Env...)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", command.Tool, err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once
	var forwardMu sync.Mutex

	forward := func(line string) {
		forwardMu.Lock()
		defer forwardMu.Unlock()
		if onOutput != nil {
			onOutput(line)
			return
		}
		fmt.Fprintln(os.Stderr, line)
	}

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			// nvdxt under wine emits CRLF line endings.
			forward(strings.TrimRight(scanner.Text(), "\r"))
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("scan %s output: %w", command.Tool, scanErr)
	}

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", command.Tool, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{
				Tool: command.Tool,
				Args: append([]string(nil), command.Args...),
				Code: exitErr.ExitCode(),
				Err:  err,
			}
		}
		return fmt.Errorf("wait %s: %w", command.Tool, err)
	}
	return nil
}

// LogOutput returns a line callback that forwards tool output to logger.
func LogOutput(logger *slog.Logger, tool string) func(string) {
	return func(line string) {
		line = strings.TrimSpace(line)
		if line == "" || logger == nil {
			return
		}
		logger.Info(line, logging.FieldTool, tool)
	}
}
