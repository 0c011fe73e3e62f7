package exporter

import (
	"fmt"
	"log/slog"
	"time"

	"mipexport/internal/config"
	"mipexport/internal/ddsinfo"
	"mipexport/internal/logging"
	"mipexport/internal/mipchain"
	"mipexport/internal/preflight"
	"mipexport/internal/services/inkscape"
	"mipexport/internal/services/nvdxt"
	"mipexport/internal/services/wine"
	"mipexport/internal/toolexec"
)

var (
	_ Rasterizer = (*inkscape.Client)(nil)
	_ Compressor = (*nvdxt.Client)(nil)
	_ Stitcher   = (*nvdxt.Client)(nil)
)

// NewFromConfig wires the Inkscape, nvdxt, and stitch clients described by
// cfg into an exporter. A nil executor runs real processes.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, executor toolexec.Executor, opts ...Option) (*Exporter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("exporter requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if executor == nil {
		executor = toolexec.NewExecutor()
	}

	chain, err := mipchain.New(cfg.Export.Levels, cfg.Export.BaseSize, cfg.Compressor.BrightnessFalloff)
	if err != nil {
		return nil, fmt.Errorf("mip chain: %w", err)
	}

	rasterizer, err := inkscape.New(cfg.Rasterizer.Binary, cfg.Rasterizer.LegacyFlags,
		inkscape.WithExecutor(executor),
		inkscape.WithLogger(logger.With(logging.FieldComponent, "inkscape")),
	)
	if err != nil {
		return nil, err
	}
	launcher, err := wine.New(cfg.Compat.WineBinary, cfg.Compat.WinePrefix, wine.WithExecutor(executor))
	if err != nil {
		return nil, err
	}
	textures, err := nvdxt.New(launcher, cfg.CompressorPath(), cfg.StitcherPath(),
		nvdxt.WithFormat(cfg.Compressor.Format),
		nvdxt.WithBrightnessFalloff(cfg.Compressor.ApplyBrightnessFalloff),
		nvdxt.WithLogger(logger.With(logging.FieldComponent, "nvdxt")),
	)
	if err != nil {
		return nil, err
	}

	format, _ := ddsinfo.FormatForFlag(cfg.Compressor.Format)
	settings := Settings{
		Source:       cfg.Paths.Source,
		WorkDir:      cfg.Paths.WorkDir,
		Prefix:       cfg.Export.Prefix,
		Chain:        chain,
		Workers:      cfg.Export.Workers,
		ToolTimeout:  time.Duration(cfg.Export.ToolTimeout) * time.Second,
		Verify:       cfg.Export.Verify,
		Output:       cfg.Paths.Output,
		Format:       format,
		Requirements: preflight.Requirements(cfg),
	}
	opts = append([]Option{WithLogger(logger)}, opts...)
	return New(settings, rasterizer, textures, textures, opts...)
}
