// Package main hosts the mipexport CLI entrypoint and command graph.
//
// Running mipexport with no subcommand performs the full export: every mip
// level is rasterized with Inkscape, compressed with nvdxt under Wine, and
// the results are stitched into one DDS texture. The remaining commands
// inspect that pipeline without running it (plan, check), examine its output
// (verify), or manage supporting state (history, config).
//
// Keep this package thin: behaviour belongs in the internal packages and is
// surfaced here through flags and rendering only.
package main
