package main

import (
	"github.com/spf13/cobra"

	"mipexport/internal/toolexec"
)

func newRootCommand() *cobra.Command {
	return newRootCommandWithExecutor(nil)
}

func newRootCommandWithExecutor(executor toolexec.Executor) *cobra.Command {
	var configFlag string
	var overrides exportOverrides

	ctx := newCommandContext(&configFlag, executor)

	rootCmd := &cobra.Command{
		Use:   "mipexport",
		Short: "Export an SVG as a DXT-compressed, mipmapped DDS texture",
		Long: "Rasterizes the source SVG at every mip level, compresses each level with nvdxt\n" +
			"under Wine, and stitches the levels into one DDS texture in the work directory.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, ctx, overrides)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.Flags().IntVarP(&overrides.workers, "workers", "j", 0, "Process this many levels concurrently (overrides export.workers)")
	rootCmd.Flags().BoolVar(&overrides.verify, "verify", false, "Check DDS headers of every produced texture")

	rootCmd.AddCommand(newPlanCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newVerifyCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
