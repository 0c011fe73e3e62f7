package nvdxt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"mipexport/internal/logging"
	"mipexport/internal/mipchain"
	"mipexport/internal/toolexec"
)

// Launcher runs a Windows executable through the compatibility layer.
type Launcher interface {
	Run(ctx context.Context, tool, dir, exe string, args []string, onOutput func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithFormat selects the nvdxt compression flag without its dash, e.g. "dxt5".
func WithFormat(format string) Option {
	return func(c *Client) {
		format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "-"))
		if format != "" {
			c.format = format
		}
	}
}

// WithBrightnessFalloff passes each level's brightness to nvdxt.
func WithBrightnessFalloff(enabled bool) Option {
	return func(c *Client) {
		c.brightness = enabled
	}
}

// WithLogger routes tool output to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client wraps nvdxt.exe and stitch.exe.
type Client struct {
	launcher      Launcher
	compressorExe string
	stitcherExe   string
	format        string
	brightness    bool
	logger        *slog.Logger
}

// New constructs a DDS Utilities client.
func New(launcher Launcher, compressorExe, stitcherExe string, opts ...Option) (*Client, error) {
	if launcher == nil {
		return nil, errors.New("nvdxt requires a launcher")
	}
	compressorExe = strings.TrimSpace(compressorExe)
	stitcherExe = strings.TrimSpace(stitcherExe)
	if compressorExe == "" {
		return nil, errors.New("nvdxt executable required")
	}
	if stitcherExe == "" {
		return nil, errors.New("stitch executable required")
	}
	client := &Client{
		launcher:      launcher,
		compressorExe: compressorExe,
		stitcherExe:   stitcherExe,
		format:        "dxt3",
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// CompressorExe returns the nvdxt.exe path.
func (c *Client) CompressorExe() string {
	return c.compressorExe
}

// StitcherExe returns the stitch.exe path.
func (c *Client) StitcherExe() string {
	return c.stitcherExe
}

// Format returns the configured compression flag without its dash.
func (c *Client) Format() string {
	return c.format
}

// CompressArgs returns the nvdxt arguments for one level.
func (c *Client) CompressArgs(input string, level mipchain.Level) []string {
	args := []string{"-" + c.format, "-quality_highest", "-nomipmap"}
	if c.brightness {
		offset := strconv.FormatFloat(level.Brightness-1, 'g', -1, 64)
		args = append(args, "-brightness", offset, offset, offset, "0")
	}
	return append(args, "-file", input)
}

// Compress runs nvdxt on input in dir.
func (c *Client) Compress(ctx context.Context, dir, input string, level mipchain.Level) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("compress: input required")
	}
	logger := logging.WithContext(ctx, c.logger)
	if err := c.launcher.Run(ctx, "nvdxt", dir, c.compressorExe, c.CompressArgs(input, level), toolexec.LogOutput(logger, "nvdxt")); err != nil {
		return fmt.Errorf("nvdxt compress %s: %w", input, err)
	}
	return nil
}

// StitchArgs returns the stitch.exe arguments for prefix.
func (c *Client) StitchArgs(prefix string) []string {
	return []string{prefix}
}

// Stitch runs stitch.exe in dir over <prefix>_NN.dds.
func (c *Client) Stitch(ctx context.Context, dir, prefix string) error {
	if strings.TrimSpace(prefix) == "" {
		return errors.New("stitch: prefix required")
	}
	logger := logging.WithContext(ctx, c.logger)
	if err := c.launcher.Run(ctx, "stitch", dir, c.stitcherExe, c.StitchArgs(prefix), toolexec.LogOutput(logger, "stitch")); err != nil {
		return fmt.Errorf("stitch %s: %w", prefix, err)
	}
	return nil
}
