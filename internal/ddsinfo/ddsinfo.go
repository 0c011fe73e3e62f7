package ddsinfo

import (
	"errors"
	"fmt"
	"os"

	"github.com/woozymasta/bcn"
)

var (
	// ErrOpen indicates the DDS file could not be opened.
	ErrOpen = errors.New("open dds")
	// ErrHeader indicates the DDS header could not be parsed.
	ErrHeader = errors.New("read dds header")
	// ErrMismatch indicates the file does not have the expected shape.
	ErrMismatch = errors.New("dds mismatch")
)

// Info summarizes a DDS header.
type Info struct {
	Path        string
	Width       int
	Height      int
	MipMapCount int
	FourCC      string
	Format      bcn.Format
}

// Inspect reads the header of the DDS file at path.
func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %q: %v", ErrOpen, path, err)
	}
	defer func() { _ = f.Close() }()

	header, err := bcn.ReadDDSHeader(f)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %q: %v", ErrHeader, path, err)
	}
	dx10, err := bcn.ReadDDSHeaderDX10(f, header)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %q: dx10: %v", ErrHeader, path, err)
	}

	mips := 1
	if (header.Caps&bcn.DDSCapsMipmap) != 0 && header.MipMapCount > 0 {
		mips = int(header.MipMapCount)
	}
	format, fourCC := detectFormat(header, dx10)
	return Info{
		Path:        path,
		Width:       int(header.Width),
		Height:      int(header.Height),
		MipMapCount: mips,
		FourCC:      fourCC,
		Format:      format,
	}, nil
}

// ExpectLevel checks a single-level texture of size x size in format.
func (i Info) ExpectLevel(size int, format bcn.Format) error {
	if i.Width != size || i.Height != size {
		return fmt.Errorf("%w: %s is %dx%d, want %dx%d", ErrMismatch, i.Path, i.Width, i.Height, size, size)
	}
	if format != bcn.FormatUnknown && i.Format != format {
		return fmt.Errorf("%w: %s is %s, want %s", ErrMismatch, i.Path, i.FourCC, format)
	}
	return nil
}

// ExpectChain checks a mipmapped texture with base x base pixels and levels mips.
func (i Info) ExpectChain(base, levels int, format bcn.Format) error {
	if err := i.ExpectLevel(base, format); err != nil {
		return err
	}
	if i.MipMapCount != levels {
		return fmt.Errorf("%w: %s has %d mip levels, want %d", ErrMismatch, i.Path, i.MipMapCount, levels)
	}
	return nil
}

// FormatForFlag maps an nvdxt compression flag to its block format.
func FormatForFlag(flag string) (bcn.Format, bool) {
	switch flag {
	case "dxt1c", "dxt1a":
		return bcn.FormatDXT1, true
	case "dxt3":
		return bcn.FormatDXT3, true
	case "dxt5":
		return bcn.FormatDXT5, true
	default:
		return bcn.FormatUnknown, false
	}
}

func detectFormat(header *bcn.DDSHeader, dx10 *bcn.DDSHeaderDX10) (bcn.Format, string) {
	if dx10 != nil {
		switch dx10.DXGIFormat {
		case 71:
			return bcn.FormatDXT1, "BC1"
		case 74:
			return bcn.FormatDXT3, "BC2"
		case 77:
			return bcn.FormatDXT5, "BC3"
		default:
			return bcn.FormatUnknown, fmt.Sprintf("DXGI %d", dx10.DXGIFormat)
		}
	}
	pf := header.PixelFormat
	if (pf.Flags & bcn.DDSPFFourCC) == 0 {
		return bcn.FormatUnknown, "UNCOMPRESSED"
	}
	fourCC := string([]byte{
		byte(pf.FourCC & 0xff),
		byte((pf.FourCC >> 8) & 0xff),
		byte((pf.FourCC >> 16) & 0xff),
		byte((pf.FourCC >> 24) & 0xff),
	})
	switch fourCC {
	case "DXT1":
		return bcn.FormatDXT1, fourCC
	case "DXT2", "DXT3":
		return bcn.FormatDXT3, fourCC
	case "DXT4", "DXT5":
		return bcn.FormatDXT5, fourCC
	default:
		return bcn.FormatUnknown, fourCC
	}
}
