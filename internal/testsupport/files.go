package testsupport

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/woozymasta/bcn"
)

const svgDocument = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="256" height="256" viewBox="0 0 256 256">
  <rect width="256" height="256" fill="#7f7f7f"/>
</svg>
`

// WriteSVG writes a minimal square SVG document to path.
func WriteSVG(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(svgDocument), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteDDS writes a DDS header describing a size x size texture with mips
// levels and the given FourCC. No pixel data follows the header.
func WriteDDS(t testing.TB, path string, size, mips int, fourCC string) {
	t.Helper()
	if err := writeDDS(path, size, mips, fourCC); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writePNG(path string, size int) error {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = 0x7f
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeDDS(path string, size, mips int, code string) error {
	flags := uint32(bcn.DDSFlagCaps | bcn.DDSFlagHeight | bcn.DDSFlagWidth | bcn.DDSFlagPixelFormat | bcn.DDSFlagLinearSize)
	caps := uint32(bcn.DDSCapsTexture)
	if mips > 1 {
		flags |= bcn.DDSFlagMipmapCount
		caps |= bcn.DDSCapsComplex | bcn.DDSCapsMipmap
	}
	hdr := &bcn.DDSHeader{
		Size:        bcn.DDSHeaderSize,
		Flags:       flags,
		Height:      uint32(size),
		Width:       uint32(size),
		Depth:       1,
		MipMapCount: uint32(mips),
		Caps:        caps,
	}
	hdr.PixelFormat.Size = bcn.DDSPixelFormatSize
	hdr.PixelFormat.Flags = bcn.DDSPFFourCC
	hdr.PixelFormat.FourCC = uint32(code[0]) | uint32(code[1])<<8 | uint32(code[2])<<16 | uint32(code[3])<<24

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := bcn.WriteDDSMagic(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := bcn.WriteDDSHeader(f, hdr); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
