package wine

import (
	"context"
	"errors"
	"os"
	"strings"

	"mipexport/internal/toolexec"
)

// Option configures the launcher.
type Option func(*Launcher)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec toolexec.Executor) Option {
	return func(l *Launcher) {
		if exec != nil {
			l.exec = exec
		}
	}
}

// Launcher wraps Wine invocations.
type Launcher struct {
	binary string
	prefix string
	exec   toolexec.Executor
}

// New constructs a Wine launcher. An empty prefix leaves WINEPREFIX to the
// environment.
func New(binary, prefix string, opts ...Option) (*Launcher, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("wine binary required")
	}
	l := &Launcher{
		binary: binary,
		prefix: strings.TrimSpace(prefix),
		exec:   toolexec.NewExecutor(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Binary returns the wine executable the launcher invokes.
func (l *Launcher) Binary() string {
	return l.binary
}

// Command builds the invocation of exe under Wine.
func (l *Launcher) Command(tool, dir, exe string, args []string) toolexec.Command {
	full := make([]string, 0, len(args)+1)
	full = append(full, exe)
	full = append(full, args...)
	return toolexec.Command{
		Tool:   tool,
		Binary: l.binary,
		Args:   full,
		Dir:    dir,
		Env:    l.env(),
	}
}

// Run executes exe under Wine in dir.
func (l *Launcher) Run(ctx context.Context, tool, dir, exe string, args []string, onOutput func(string)) error {
	return l.exec.Run(ctx, l.Command(tool, dir, exe, args), onOutput)
}

func (l *Launcher) env() []string {
	var env []string
	if l.prefix != "" {
		env = append(env, "WINEPREFIX="+l.prefix)
	}
	if _, ok := os.LookupEnv("WINEDEBUG"); !ok {
		env = append(env, "WINEDEBUG=-all")
	}
	return env
}
