// Package exporter runs the mip export pipeline: for every level of the mip
// chain it rasterizes the source SVG and compresses the raster, then it
// stitches the compressed levels into one mipmapped texture.
//
// The exporter never changes the process working directory. The work
// directory travels with every tool invocation, and an exclusive file lock
// keeps two runs from writing the same intermediates at once.
//
// Failure handling is fail-fast: the first missing input, missing tool, or
// failing tool stops the run. Nothing is retried and nothing already written
// is removed, so partial intermediates stay on disk for inspection.
//
// When an output path is configured, the stitched texture is copied there
// only after stitching (and verification, if enabled) succeeded.
package exporter
