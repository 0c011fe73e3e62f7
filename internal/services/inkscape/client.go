package inkscape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"mipexport/internal/logging"
	"mipexport/internal/toolexec"
)

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec toolexec.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger routes Inkscape output to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client wraps Inkscape CLI interactions.
type Client struct {
	binary string
	legacy bool
	exec   toolexec.Executor
	logger *slog.Logger
}

// New constructs an Inkscape client. legacy selects the 0.92 flag dialect.
func New(binary string, legacy bool, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("inkscape binary required")
	}
	client := &Client{
		binary: binary,
		legacy: legacy,
		exec:   toolexec.NewExecutor(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary returns the Inkscape executable the client invokes.
func (c *Client) Binary() string {
	return c.binary
}

// Args returns the command line that exports source to output at size x size.
func (c *Client) Args(source, output string, size int) []string {
	n := strconv.Itoa(size)
	if c.legacy {
		return []string{
			"--without-gui",
			"--export-area-page",
			"--export-png=" + output,
			"--export-width=" + n,
			"--export-height=" + n,
			source,
		}
	}
	return []string{
		"--export-area-page",
		"--export-type=png",
		"--export-filename=" + output,
		"--export-width=" + n,
		"--export-height=" + n,
		source,
	}
}

// Command builds the invocation Rasterize runs.
func (c *Client) Command(dir, source, output string, size int) toolexec.Command {
	return toolexec.Command{
		Tool:   "inkscape",
		Binary: c.binary,
		Args:   c.Args(source, output, size),
		Dir:    dir,
	}
}

// Rasterize runs Inkscape in dir, writing output (relative to dir) from source.
func (c *Client) Rasterize(ctx context.Context, dir, source, output string, size int) error {
	if size <= 0 {
		return fmt.Errorf("rasterize %s: invalid size %d", output, size)
	}
	if strings.TrimSpace(source) == "" {
		return errors.New("rasterize: source required")
	}
	cmd := c.Command(dir, source, output, size)
	logger := logging.WithContext(ctx, c.logger)
	logger.Debug("running inkscape", "command", cmd.String())
	if err := c.exec.Run(ctx, cmd, toolexec.LogOutput(logger, cmd.Tool)); err != nil {
		return fmt.Errorf("inkscape export %s: %w", output, err)
	}
	return nil
}
