package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// ConfigEnvVar names the environment variable that points at an alternate
// configuration file.
const ConfigEnvVar = "MIPEXPORT_CONFIG"

// Paths contains file and directory locations.
type Paths struct {
	Source   string `toml:"source"`
	WorkDir  string `toml:"work_dir"`
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
	// Output, when set, receives a copy of the stitched texture.
	Output string `toml:"output"`
}

// Export contains the mip chain shape and pipeline behaviour.
type Export struct {
	Prefix   string `toml:"prefix"`
	Levels   int    `toml:"levels"`
	BaseSize int    `toml:"base_size"`
	// Workers > 1 rasterizes and compresses levels concurrently. Stitching
	// always waits for every level.
	Workers int `toml:"workers"`
	// ToolTimeout bounds each external tool call in seconds. Zero disables it.
	ToolTimeout int  `toml:"tool_timeout"`
	Verify      bool `toml:"verify"`
}

// Rasterizer contains Inkscape settings.
type Rasterizer struct {
	Binary string `toml:"binary"`
	// LegacyFlags selects the Inkscape 0.92 command line (--without-gui,
	// --export-png). Inkscape 1.x needs it disabled.
	LegacyFlags bool `toml:"legacy_flags"`
}

// Compat contains the Wine compatibility layer settings.
type Compat struct {
	WineBinary string `toml:"wine_binary"`
	WinePrefix string `toml:"wine_prefix"`
	ToolsDir   string `toml:"tools_dir"`
}

// Compressor contains nvdxt settings.
type Compressor struct {
	Exe    string `toml:"exe"`
	Format string `toml:"format"`
	// ApplyBrightnessFalloff passes the per-level brightness to nvdxt. It is
	// off in the shipped pipeline; only the tunnel texture variant used it.
	ApplyBrightnessFalloff bool    `toml:"apply_brightness_falloff"`
	BrightnessFalloff      float64 `toml:"brightness_falloff"`
}

// Stitcher contains stitch.exe settings.
type Stitcher struct {
	Exe string `toml:"exe"`
}

// History contains configuration for the run ledger.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// File enables an additional log file under paths.log_dir.
	File bool `toml:"file"`
}

// Config encapsulates all configuration values for mipexport.
//
// Configuration sections by subsystem:
//   - Paths: source asset, work directory, logs and state
//   - Export: mip chain shape, parallelism, timeouts, verification
//   - Rasterizer: Inkscape binary and flag style
//   - Compat: Wine binary, prefix, and the DDS Utilities directory
//   - Compressor: nvdxt executable, format, brightness falloff
//   - Stitcher: stitch executable
//   - History: run ledger toggle
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Export     Export     `toml:"export"`
	Rasterizer Rasterizer `toml:"rasterizer"`
	Compat     Compat     `toml:"compat"`
	Compressor Compressor `toml:"compressor"`
	Stitcher   Stitcher   `toml:"stitcher"`
	History    History    `toml:"history"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mipexport/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv(ConfigEnvVar))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mipexport.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories mipexport writes to before a
// command runs. The work directory is left to the exporter and the state
// directory to the history store, so a run that fails validation leaves
// neither behind.
func (c *Config) EnsureDirectories() error {
	var dirs []string
	if c.Logging.File {
		dirs = append(dirs, c.Paths.LogDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CompressorPath returns the absolute path to nvdxt.exe.
func (c *Config) CompressorPath() string {
	return toolPath(c.Compat.ToolsDir, c.Compressor.Exe)
}

// StitcherPath returns the absolute path to stitch.exe.
func (c *Config) StitcherPath() string {
	return toolPath(c.Compat.ToolsDir, c.Stitcher.Exe)
}

// HistoryPath returns the location of the run ledger database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LogFilePath returns the log file location used when logging.file is set.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "mipexport.log")
}

// StitchedPath returns where stitch.exe writes its output: the prefix with a
// .dds extension inside the work directory.
func (c *Config) StitchedPath() string {
	return filepath.Join(c.Paths.WorkDir, c.Export.Prefix+".dds")
}

func toolPath(dir, exe string) string {
	if exe == "" || filepath.IsAbs(exe) {
		return exe
	}
	return filepath.Join(dir, exe)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
