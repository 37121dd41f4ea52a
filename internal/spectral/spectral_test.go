package spectral

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func solidImage(h, w int, r, g, b float64) *RGBImage {
	img := NewRGBImage(h, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(y, x, r, g, b)
		}
	}
	return img
}

func TestReconstruct_Shape(t *testing.T) {
	rec := NewReconstructorWithSource(0.05, rand.NewSource(3))
	img := NewRGBImage(4, 6)
	rng := rand.New(rand.NewSource(9))
	for i := range img.Pix {
		img.Pix[i] = rng.Float64()
	}
	wl := DefaultWavelengths(37)

	cube, err := rec.Reconstruct(img, wl)
	require.NoError(t, err)
	assert.Equal(t, 4, cube.Height)
	assert.Equal(t, 6, cube.Width)
	assert.Equal(t, 37, cube.Bands())
	assert.Equal(t, 24, cube.Len())

	for i := 0; i < cube.Len(); i++ {
		for _, v := range cube.Sample(i) {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestReconstruct_ClampsSaturatedInput(t *testing.T) {
	rec := NewReconstructorWithSource(0.5, rand.NewSource(1))
	cube, err := rec.Reconstruct(solidImage(2, 2, 0.1, 1, 0.1), DefaultWavelengths(50))
	require.NoError(t, err)
	for i := 0; i < cube.Len(); i++ {
		for _, v := range cube.Sample(i) {
			assert.True(t, v >= 0 && v <= 1)
		}
	}
}

func TestReconstruct_InvalidInput(t *testing.T) {
	rec := NewReconstructor(DefaultNoiseSigma)
	_, err := rec.Reconstruct(NewRGBImage(0, 0), DefaultWavelengths(10))
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = rec.Reconstruct(nil, DefaultWavelengths(10))
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = rec.Reconstruct(NewRGBImage(1, 1), nil)
	assert.ErrorIs(t, err, ErrNoWavelengths)
}

func TestReconstruct_NoiseFreeIsDeterministic(t *testing.T) {
	img := solidImage(3, 3, 0.2, 0.6, 0.1)
	wl := DefaultWavelengths(64)

	a, err := NewReconstructorWithSource(0, rand.NewSource(1)).Reconstruct(img, wl)
	require.NoError(t, err)
	b, err := NewReconstructorWithSource(0, rand.NewSource(2)).Reconstruct(img, wl)
	require.NoError(t, err)
	assert.Equal(t, a.data, b.data)
}

func TestReflectance_Regimes(t *testing.T) {
	// pure blue pixel is brightest in the blue regime
	assert.InDelta(t, 0.80, Reflectance(420, 0, 0, 1), 1e-9)
	assert.InDelta(t, 0.10, Reflectance(560, 0, 0, 1), 1e-9)

	// cross-fade midpoint sits between the two regimes
	mid := Reflectance(485, 0, 1, 0)
	assert.InDelta(t, (0.15+0.80)/2, mid, 1e-9)

	// green canopy gets the NIR boost, a grey pixel does not
	veg := Reflectance(850, 0.2, 0.6, 0.1)
	grey := Reflectance(850, 0.4, 0.4, 0.4)
	assert.InDelta(t, (0.2*0.2+0.6*0.6+0.2*0.1)*1.5+0.1, veg, 1e-9)
	assert.InDelta(t, 0.4, grey, 1e-9)

	// water absorption dip is lower than both neighbours
	assert.Less(t, Reflectance(1400, 0.5, 0.5, 0.5), Reflectance(1300, 0.5, 0.5, 0.5))
	assert.Less(t, Reflectance(1400, 0.5, 0.5, 0.5), Reflectance(1500, 0.5, 0.5, 0.5))

	// far SWIR decays with wavelength
	assert.Greater(t, Reflectance(2000, 0.5, 0.5, 0.5), Reflectance(2450, 0.5, 0.5, 0.5))

	// red edge rises for vegetation and is flat for bare soil
	assert.Greater(t, Reflectance(740, 0.2, 0.6, 0.1), Reflectance(690, 0.2, 0.6, 0.1))
	assert.InDelta(t, Reflectance(740, 0.6, 0.4, 0.3), Reflectance(690, 0.6, 0.4, 0.3), 1e-9)
}

func TestCube_Views(t *testing.T) {
	wl := []float64{500, 600}
	cube, err := NewCube(1, 2, wl, []float64{0.1, 0.2, 0.3, 0.4})
	require.NoError(t, err)

	assert.Equal(t, []float64{0.3, 0.4}, cube.Pixel(0, 1))
	assert.Equal(t, 0.2, cube.At(0, 0, 1))
	assert.Equal(t, [2]float64{500, 600}, cube.Range())

	s := cube.Sample(0)
	assert.Equal(t, 2, cap(s))

	_, err = NewCube(1, 2, wl, []float64{0.1})
	assert.Error(t, err)
	_, err = NewCube(0, 2, wl, nil)
	assert.Error(t, err)
}

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode_PNG(t *testing.T) {
	data := encodePNG(t, 8, 4, color.NRGBA{R: 51, G: 204, B: 0, A: 255})
	img, format, err := Decode(data, 0)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 4, img.Height)
	assert.Equal(t, 8, img.Width)

	r, g, b := img.At(2, 5)
	assert.InDelta(t, 0.2, r, 1e-9)
	assert.InDelta(t, 0.8, g, 1e-9)
	assert.InDelta(t, 0.0, b, 1e-9)
}

func TestDecode_Downsamples(t *testing.T) {
	data := encodePNG(t, 400, 100, color.NRGBA{R: 10, G: 200, B: 30, A: 255})
	img, _, err := Decode(data, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Width)
	assert.Equal(t, 25, img.Height)
}

func TestDecode_BMP(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 3))
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, src))

	img, format, err := Decode(buf.Bytes(), 64)
	require.NoError(t, err)
	assert.Equal(t, "bmp", format)
	assert.Equal(t, 3, img.Width)
}

func TestDecode_Garbage(t *testing.T) {
	_, _, err := Decode([]byte("definitely not an image"), 64)
	assert.Error(t, err)
}

func TestDecode_RejectsOversizedHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Black, color.White}), nil))
	data := buf.Bytes()
	// logical screen descriptor follows the 6-byte signature
	binary.LittleEndian.PutUint16(data[6:8], 60000)
	binary.LittleEndian.PutUint16(data[8:10], 60000)

	_, format, err := Decode(data, 64)
	require.ErrorIs(t, err, ErrImageTooLarge)
	assert.Equal(t, "gif", format)
}

func TestReconstruct_RejectsOversizedCube(t *testing.T) {
	rec := NewReconstructorWithSource(0, rand.NewSource(1))
	img := NewRGBImage(512, 512)
	_, err := rec.Reconstruct(img, DefaultWavelengths(DefaultBands))
	assert.ErrorIs(t, err, ErrCubeTooLarge)
}

func TestReconstruct_ConcurrentCalls(t *testing.T) {
	rec := NewReconstructorWithSource(0.02, rand.NewSource(5))
	img := solidImage(4, 4, 0.2, 0.7, 0.1)
	wl := DefaultWavelengths(32)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cube, err := rec.Reconstruct(img, wl)
			if err == nil && cube.Len() != 16 {
				err = assert.AnError
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
}
