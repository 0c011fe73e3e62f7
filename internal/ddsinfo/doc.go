// Package ddsinfo inspects DDS headers written by the texture tools.
//
// It reads the DDS magic and header (plus the DX10 extension when present)
// and reports dimensions, mip count, and block compression format, so the
// exporter can confirm that each compressed level and the stitched chain
// came out with the expected shape.
package ddsinfo
