package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// SupportedFormats lists the nvdxt compression flags mipexport accepts.
var SupportedFormats = []string{"dxt1c", "dxt1a", "dxt3", "dxt5"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateCompressor(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateExport() error {
	if strings.ContainsAny(c.Export.Prefix, `/\`) || c.Export.Prefix == "." || c.Export.Prefix == ".." {
		return fmt.Errorf("export.prefix %q must be a plain file name", c.Export.Prefix)
	}
	if c.Export.Levels <= 0 {
		return errors.New("export.levels must be positive")
	}
	if c.Export.BaseSize <= 0 || c.Export.BaseSize&(c.Export.BaseSize-1) != 0 {
		return fmt.Errorf("export.base_size must be a power of two, got %d", c.Export.BaseSize)
	}
	if c.Export.BaseSize>>(c.Export.Levels-1) != 1 {
		return fmt.Errorf("export.levels=%d does not reach 1px from export.base_size=%d", c.Export.Levels, c.Export.BaseSize)
	}
	if c.Export.Workers < 1 {
		return errors.New("export.workers must be at least 1")
	}
	if c.Export.ToolTimeout < 0 {
		return errors.New("export.tool_timeout must not be negative")
	}
	if filepath.Clean(c.Paths.Source) == filepath.Clean(c.Paths.WorkDir) {
		return errors.New("paths.source must be a file, not the work directory")
	}
	if c.Paths.Output != "" && filepath.Clean(c.Paths.Output) == filepath.Clean(c.StitchedPath()) {
		return errors.New("paths.output must differ from the stitched texture in the work directory")
	}
	return nil
}

func (c *Config) validateCompressor() error {
	supported := false
	for _, format := range SupportedFormats {
		if c.Compressor.Format == format {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("compressor.format %q unsupported (expected one of %s)", c.Compressor.Format, strings.Join(SupportedFormats, ", "))
	}
	if c.Compressor.BrightnessFalloff <= 0 || c.Compressor.BrightnessFalloff > 1 {
		return errors.New("compressor.brightness_falloff must be in (0, 1]")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q unsupported (expected console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q unsupported", c.Logging.Level)
	}
	return nil
}
