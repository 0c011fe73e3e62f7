package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"mipexport/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Paths are absolute so the config is usable without going through Load.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.Source = filepath.Join(base, "assets", "textur.svg")
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Compat.WinePrefix = filepath.Join(base, "wineprefix")
	cfgVal.Compat.ToolsDir = filepath.Join(base, "wineprefix", "drive_c", "tools")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSourceAsset writes a small SVG at the configured source path.
func WithSourceAsset() ConfigOption {
	return func(b *configBuilder) {
		WriteSVG(b.t, b.cfg.Paths.Source)
	}
}

// WithFormat overrides the compression flag.
func WithFormat(format string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Compressor.Format = format
	}
}

// WithVerify enables DDS header verification.
func WithVerify() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.Verify = true
	}
}

// WithStubbedTools stubs every external tool: inkscape and wine on PATH, and
// nvdxt.exe and stitch.exe inside the configured tools directory.
func WithStubbedTools() ConfigOption {
	return func(b *configBuilder) {
		WithStubbedBinaries()(b)
		if err := os.MkdirAll(b.cfg.Compat.ToolsDir, 0o755); err != nil {
			b.t.Fatalf("mkdir tools dir: %v", err)
		}
		for _, exe := range []string{b.cfg.CompressorPath(), b.cfg.StitcherPath()} {
			if err := os.WriteFile(exe, []byte("MZ"), 0o644); err != nil {
				b.t.Fatalf("write stub %s: %v", exe, err)
			}
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the rasterizer and wine binaries
// named by the config are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{b.cfg.Rasterizer.Binary, b.cfg.Compat.WineBinary}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
