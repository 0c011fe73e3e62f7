package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xyproto/env/v2"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExport()
	c.normalizeRasterizer()
	if err := c.normalizeCompat(); err != nil {
		return err
	}
	c.normalizeCompressor()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.Source) == "" {
		c.Paths.Source = defaultSourceFile
	}
	// Relative sources resolve against the directory mipexport was started in.
	if c.Paths.Source, err = expandPath(c.Paths.Source); err != nil {
		return fmt.Errorf("paths.source: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir()
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if output := strings.TrimSpace(c.Paths.Output); output != "" {
		if c.Paths.Output, err = expandPath(output); err != nil {
			return fmt.Errorf("paths.output: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeExport() {
	c.Export.Prefix = strings.TrimSpace(c.Export.Prefix)
	if c.Export.Prefix == "" {
		c.Export.Prefix = defaultPrefix
	}
	if c.Export.Workers == 0 {
		c.Export.Workers = defaultWorkers
	}
}

func (c *Config) normalizeRasterizer() {
	c.Rasterizer.Binary = strings.TrimSpace(c.Rasterizer.Binary)
	if c.Rasterizer.Binary == "" {
		c.Rasterizer.Binary = defaultRasterizerBinary
	}
}

func (c *Config) normalizeCompat() error {
	c.Compat.WineBinary = strings.TrimSpace(c.Compat.WineBinary)
	if c.Compat.WineBinary == "" {
		c.Compat.WineBinary = defaultWineBinary
	}
	prefix := strings.TrimSpace(c.Compat.WinePrefix)
	if prefix == "" {
		// env caches the environment on first use; refresh so each Load sees
		// the current WINEPREFIX.
		env.Load()
		prefix = env.Str("WINEPREFIX", defaultWinePrefix)
	}
	var err error
	if c.Compat.WinePrefix, err = expandPath(prefix); err != nil {
		return fmt.Errorf("compat.wine_prefix: %w", err)
	}
	toolsDir := strings.TrimSpace(c.Compat.ToolsDir)
	if toolsDir == "" {
		toolsDir = filepath.Join(c.Compat.WinePrefix, filepath.FromSlash(defaultToolsSubdir))
	}
	if c.Compat.ToolsDir, err = expandPath(toolsDir); err != nil {
		return fmt.Errorf("compat.tools_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCompressor() {
	c.Compressor.Exe = strings.TrimSpace(c.Compressor.Exe)
	if c.Compressor.Exe == "" {
		c.Compressor.Exe = defaultCompressorExe
	}
	c.Compressor.Format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Compressor.Format), "-"))
	if c.Compressor.Format == "" {
		c.Compressor.Format = defaultCompressorFormat
	}
	if c.Compressor.BrightnessFalloff == 0 {
		c.Compressor.BrightnessFalloff = defaultBrightnessFalloff
	}
	c.Stitcher.Exe = strings.TrimSpace(c.Stitcher.Exe)
	if c.Stitcher.Exe == "" {
		c.Stitcher.Exe = defaultStitcherExe
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
