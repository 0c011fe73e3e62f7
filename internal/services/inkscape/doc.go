// Package inkscape mediates access to the Inkscape command line used to
// rasterize the source SVG at each mip size.
//
// Two flag dialects are supported: the Inkscape 0.92 interface
// (--without-gui, --export-png) and the Inkscape 1.x interface
// (--export-type, --export-filename). Both export the full page area.
package inkscape
