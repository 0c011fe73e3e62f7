// Package mipchain describes the ordered table of mip levels an export
// produces: one entry per level with its pixel size and brightness factor.
//
// The table is explicit data rather than a hard-coded loop so the chain
// length, base size, and brightness falloff are visible and testable.
package mipchain
