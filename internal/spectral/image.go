package spectral

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxDecodePixels bounds the width × height an upload may declare before
// its pixels are decoded.
const MaxDecodePixels = 4096 * 4096

var (
	// ErrEmptyImage is returned for images with no pixels
	ErrEmptyImage = errors.New("spectral: image has no pixels")
	// ErrImageTooLarge is returned when the declared dimensions exceed MaxDecodePixels
	ErrImageTooLarge = errors.New("spectral: image dimensions exceed limit")
)

// RGBImage is an H×W×3 image with channels normalized to [0,1]
type RGBImage struct {
	Height int
	Width  int
	Pix    []float64 // r, g, b per pixel, row-major
}

// NewRGBImage allocates a black image
func NewRGBImage(height, width int) *RGBImage {
	return &RGBImage{
		Height: height,
		Width:  width,
		Pix:    make([]float64, height*width*3),
	}
}

// Set stores a normalized pixel
func (m *RGBImage) Set(y, x int, r, g, b float64) {
	i := (y*m.Width + x) * 3
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = r, g, b
}

// At returns the normalized channels of a pixel
func (m *RGBImage) At(y, x int) (r, g, b float64) {
	i := (y*m.Width + x) * 3
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

// FromImage converts any image.Image into an RGBImage
func FromImage(src image.Image) *RGBImage {
	bounds := src.Bounds()
	out := NewRGBImage(bounds.Dy(), bounds.Dx())
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			c := color.NRGBAModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			out.Set(y, x, float64(c.R)/255, float64(c.G)/255, float64(c.B)/255)
		}
	}
	return out
}

// Decode parses an encoded image (JPEG, PNG, GIF, TIFF, BMP or WebP) and
// downsamples it so its longest side is at most maxSide pixels. maxSide <= 0
// keeps the original size. The header is checked against MaxDecodePixels
// before any pixel data is read.
func Decode(data []byte, maxSide int) (*RGBImage, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("spectral: failed to decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, format, ErrEmptyImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxDecodePixels {
		return nil, format, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("spectral: failed to decode image: %w", err)
	}
	if src.Bounds().Empty() {
		return nil, format, ErrEmptyImage
	}
	return FromImage(downsample(src, maxSide)), format, nil
}

func downsample(src image.Image, maxSide int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return src
	}

	scale := float64(maxSide) / float64(max(w, h))
	dw := max(1, int(float64(w)*scale))
	dh := max(1, int(float64(h)*scale))

	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
