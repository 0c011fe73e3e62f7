// Package nvdxt drives the NVIDIA DDS Utilities: nvdxt.exe compresses one
// raster into a DXT texture and stitch.exe assembles per-level textures into
// a single mipmapped DDS.
//
// Both executables are Windows binaries and run through a Wine launcher.
// Compression always disables nvdxt's own mip generation because the
// pipeline supplies every level separately.
package nvdxt
