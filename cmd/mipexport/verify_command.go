package main

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/spf13/cobra"

	"mipexport/internal/config"
	"mipexport/internal/ddsinfo"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [path]",
		Short: "Inspect a DDS texture (defaults to the stitched output)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			path := cfg.StitchedPath()
			if len(args) == 1 {
				if path, err = config.ExpandPath(args[0]); err != nil {
					return err
				}
			}

			info, err := ddsinfo.Inspect(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Path", "Size", "Mips", "Format"},
				[][]string{{info.Path, fmt.Sprintf("%dx%d", info.Width, info.Height), strconv.Itoa(info.MipMapCount), info.FourCC}},
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))

			expectation, err := checkExpectation(cfg, info)
			if err != nil {
				return err
			}
			if expectation != "" {
				fmt.Fprintln(out, expectation)
			}
			return nil
		},
	}
}

// checkExpectation compares info against the shape implied by its file name:
// <prefix>.dds is the full chain, <prefix>_NN.dds is level NN. Other names
// are only reported.
func checkExpectation(cfg *config.Config, info ddsinfo.Info) (string, error) {
	format, _ := ddsinfo.FormatForFlag(cfg.Compressor.Format)
	name := filepath.Base(info.Path)
	prefix := cfg.Export.Prefix

	if name == prefix+".dds" {
		if err := info.ExpectChain(cfg.Export.BaseSize, cfg.Export.Levels, format); err != nil {
			return "", err
		}
		return fmt.Sprintf("Matches the %d-level %dpx chain", cfg.Export.Levels, cfg.Export.BaseSize), nil
	}
	levelName := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `_(\d{2})\.dds$`)
	if m := levelName.FindStringSubmatch(name); m != nil {
		index, _ := strconv.Atoi(m[1])
		if index >= cfg.Export.Levels {
			return "", fmt.Errorf("%w: %s is beyond the configured %d levels", ddsinfo.ErrMismatch, name, cfg.Export.Levels)
		}
		size := cfg.Export.BaseSize >> index
		if err := info.ExpectLevel(size, format); err != nil {
			return "", err
		}
		return fmt.Sprintf("Matches level %d (%dpx)", index, size), nil
	}
	return "", nil
}
