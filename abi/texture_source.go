package abi

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// DecodeDefaultTexture decodes a default texture payload embedded in
// an IR document's metadata (e.g. a base64-embedded default swatch
// for a texture2d GlobalInput's UI preview) into an image.Image, which
// PackRGBA8 flattens to RGBA8 bytes. PNG, BMP, and TIFF are supported; format is sniffed
// from the magic bytes rather than trusted from a caller-supplied
// hint, since document metadata is otherwise freeform strings.
func DecodeDefaultTexture(data []byte) (img image.Image, err error) {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return png.Decode(bytes.NewReader(data))
	case bytes.HasPrefix(data, []byte("BM")):
		return bmp.Decode(bytes.NewReader(data))
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return tiff.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("abi: unrecognized default texture format")
	}
}

// PackRGBA8 flattens a decoded image into row-major RGBA8 bytes sized
// exactly width*height*4, resampling is the caller's job — this only
// walks the already-decoded pixel grid.
func PackRGBA8(img image.Image) []byte {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := make([]byte, 0, w*h*4)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			out = append(out, byte(r>>8), byte(g>>8), byte(b>>8), byte(a>>8))
		}
	}
	return out
}
