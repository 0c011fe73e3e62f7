package config

import (
	"os"
	"path/filepath"
)

const (
	defaultSourceFile        = "textur.svg"
	defaultLogDir            = "~/.local/share/mipexport/logs"
	defaultStateDir          = "~/.local/share/mipexport"
	defaultPrefix            = "export"
	defaultLevels            = 9
	defaultBaseSize          = 256
	defaultWorkers           = 1
	defaultRasterizerBinary  = "inkscape"
	defaultWineBinary        = "wine"
	defaultWinePrefix        = "~/.wine"
	defaultToolsSubdir       = "drive_c/Programme/NVIDIA Corporation/DDS Utilities"
	defaultCompressorExe     = "nvdxt.exe"
	defaultStitcherExe       = "stitch.exe"
	defaultCompressorFormat  = "dxt3"
	defaultBrightnessFalloff = 0.80
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Source:   defaultSourceFile,
			WorkDir:  defaultWorkDir(),
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Export: Export{
			Prefix:   defaultPrefix,
			Levels:   defaultLevels,
			BaseSize: defaultBaseSize,
			Workers:  defaultWorkers,
		},
		Rasterizer: Rasterizer{
			Binary:      defaultRasterizerBinary,
			LegacyFlags: true,
		},
		Compat: Compat{
			WineBinary: defaultWineBinary,
		},
		Compressor: Compressor{
			Exe:               defaultCompressorExe,
			Format:            defaultCompressorFormat,
			BrightnessFalloff: defaultBrightnessFalloff,
		},
		Stitcher: Stitcher{
			Exe: defaultStitcherExe,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// Exports land in /tmp by default; os.TempDir honours TMPDIR and
// falls back to /tmp on Unix.
func defaultWorkDir() string {
	return filepath.Clean(os.TempDir())
}
