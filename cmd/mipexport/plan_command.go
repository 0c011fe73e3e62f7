package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mipexport/internal/config"
	"mipexport/internal/mipchain"
	"mipexport/internal/services/inkscape"
	"mipexport/internal/services/nvdxt"
	"mipexport/internal/services/wine"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var showCommands bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the mip levels and tool invocations without running them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			chain, err := mipchain.New(cfg.Export.Levels, cfg.Export.BaseSize, cfg.Compressor.BrightnessFalloff)
			if err != nil {
				return fmt.Errorf("mip chain: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Source:     %s\n", cfg.Paths.Source)
			fmt.Fprintf(out, "Work dir:   %s\n", cfg.Paths.WorkDir)
			fmt.Fprintf(out, "Output:     %s\n", cfg.StitchedPath())
			fmt.Fprintf(out, "Format:     %s\n", cfg.Compressor.Format)
			fmt.Fprintf(out, "Brightness: %s\n", onOff(cfg.Compressor.ApplyBrightnessFalloff))
			fmt.Fprintln(out, renderPlanTable(chain, cfg.Export.Prefix))

			if showCommands {
				lines, err := planCommands(cfg, chain)
				if err != nil {
					return err
				}
				for _, line := range lines {
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showCommands, "commands", false, "Print every command line the export would run")
	return cmd
}

func renderPlanTable(chain mipchain.Chain, prefix string) string {
	rows := make([][]string, 0, len(chain))
	for _, level := range chain {
		rows = append(rows, []string{
			strconv.Itoa(level.Index),
			fmt.Sprintf("%dx%d", level.Size, level.Size),
			strconv.FormatFloat(level.Brightness, 'f', 4, 64),
			level.RasterName(prefix),
			level.TextureName(prefix),
		})
	}
	return renderTable(
		[]string{"Level", "Size", "Brightness", "Raster", "Texture"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft},
	)
}

// planCommands renders the invocations in the order the sequential export
// issues them.
func planCommands(cfg *config.Config, chain mipchain.Chain) ([]string, error) {
	rasterizer, err := inkscape.New(cfg.Rasterizer.Binary, cfg.Rasterizer.LegacyFlags)
	if err != nil {
		return nil, err
	}
	launcher, err := wine.New(cfg.Compat.WineBinary, cfg.Compat.WinePrefix)
	if err != nil {
		return nil, err
	}
	textures, err := nvdxt.New(launcher, cfg.CompressorPath(), cfg.StitcherPath(),
		nvdxt.WithFormat(cfg.Compressor.Format),
		nvdxt.WithBrightnessFalloff(cfg.Compressor.ApplyBrightnessFalloff),
	)
	if err != nil {
		return nil, err
	}

	dir := cfg.Paths.WorkDir
	prefix := cfg.Export.Prefix
	lines := make([]string, 0, 2*len(chain)+1)
	for _, level := range chain {
		raster := level.RasterName(prefix)
		lines = append(lines,
			rasterizer.Command(dir, cfg.Paths.Source, raster, level.Size).String(),
			launcher.Command("nvdxt", dir, textures.CompressorExe(), textures.CompressArgs(raster, level)).String(),
		)
	}
	lines = append(lines, launcher.Command("stitch", dir, textures.StitcherExe(), textures.StitchArgs(prefix)).String())
	return lines, nil
}
