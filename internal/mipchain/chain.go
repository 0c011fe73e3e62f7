package mipchain

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultLevels is the number of mips in a 256px chain.
	DefaultLevels = 9
	// DefaultBaseSize is the pixel dimension of level 0.
	DefaultBaseSize = 256
	// DefaultFalloff is the per-level brightness multiplier.
	DefaultFalloff = 0.80
)

// Level is one mip level descriptor.
type Level struct {
	Index int
	Size  int
	// Brightness is falloff^max(Index,1). It only reaches the compressor when
	// brightness falloff is enabled.
	Brightness float64
}

// Name returns the two-digit zero-padded file stem for the level, e.g. "export_03".
func (l Level) Name(prefix string) string {
	return fmt.Sprintf("%s_%02d", prefix, l.Index)
}

// RasterName is the file the rasterizer writes for this level.
func (l Level) RasterName(prefix string) string {
	return l.Name(prefix) + ".png"
}

// TextureName is the file the compressor writes next to the raster.
func (l Level) TextureName(prefix string) string {
	return l.Name(prefix) + ".dds"
}

// Chain is the ordered list of level descriptors, largest first.
type Chain []Level

// New builds a chain of levels descending from baseSize by halving.
func New(levels, baseSize int, falloff float64) (Chain, error) {
	if levels <= 0 {
		return nil, errors.New("mip chain needs at least one level")
	}
	if baseSize <= 0 || baseSize&(baseSize-1) != 0 {
		return nil, fmt.Errorf("base size %d is not a power of two", baseSize)
	}
	if baseSize>>(levels-1) != 1 {
		return nil, fmt.Errorf("%d levels from %dpx do not end at 1px", levels, baseSize)
	}
	chain := make(Chain, levels)
	for i := range chain {
		chain[i] = Level{
			Index:      i,
			Size:       baseSize >> i,
			Brightness: math.Pow(falloff, float64(max(i, 1))),
		}
	}
	return chain, nil
}

// Default returns the 9-level 256px chain.
func Default() Chain {
	chain, err := New(DefaultLevels, DefaultBaseSize, DefaultFalloff)
	if err != nil {
		panic(err)
	}
	return chain
}

// Validate reports whether the chain is complete and contiguous: indices
// count up from 0 and sizes halve down to exactly 1px.
func (c Chain) Validate() error {
	if len(c) == 0 {
		return errors.New("mip chain is empty")
	}
	for i, level := range c {
		if level.Index != i {
			return fmt.Errorf("mip chain entry %d has index %d", i, level.Index)
		}
		if level.Size <= 0 || level.Size&(level.Size-1) != 0 {
			return fmt.Errorf("mip level %d size %d is not a power of two", i, level.Size)
		}
		if i > 0 && level.Size*2 != c[i-1].Size {
			return fmt.Errorf("mip level %d size %d does not halve level %d size %d", i, level.Size, i-1, c[i-1].Size)
		}
	}
	if last := c[len(c)-1]; last.Size != 1 {
		return fmt.Errorf("mip chain ends at %dpx, want 1px", last.Size)
	}
	return nil
}

// BaseSize returns the dimension of level 0, or 0 for an empty chain.
func (c Chain) BaseSize() int {
	if len(c) == 0 {
		return 0
	}
	return c[0].Size
}
