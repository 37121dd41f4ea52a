package spectral

import (
	"fmt"

	"github.com/Aadya-Jha/AgriCare-sub001/pkg/utils"
)

// Nominal wavelength range of the reconstructed cube, in nm
const (
	MinWavelength = 400.0
	MaxWavelength = 2500.0

	DefaultBands = 424
)

// Wavelengths returns n band centers spaced evenly over [lo, hi] nm
func Wavelengths(n int, lo, hi float64) []float64 {
	return utils.Linspace(lo, hi, n)
}

// DefaultWavelengths returns n bands over the nominal range
func DefaultWavelengths(n int) []float64 {
	return Wavelengths(n, MinWavelength, MaxWavelength)
}

// Cube is a dense height × width × bands reflectance array.
// It is read-only once built; accessors return views into the backing slice.
type Cube struct {
	Height      int
	Width       int
	Wavelengths []float64
	data        []float64
}

// NewCube wraps data laid out as ((y*width)+x)*bands+b. The cube takes ownership of data.
func NewCube(height, width int, wavelengths, data []float64) (*Cube, error) {
	if height <= 0 || width <= 0 || len(wavelengths) == 0 {
		return nil, fmt.Errorf("spectral: invalid cube shape %dx%dx%d", height, width, len(wavelengths))
	}
	if len(data) != height*width*len(wavelengths) {
		return nil, fmt.Errorf("spectral: cube data has %d values, want %d", len(data), height*width*len(wavelengths))
	}
	return &Cube{Height: height, Width: width, Wavelengths: wavelengths, data: data}, nil
}

// Bands returns the number of spectral bands
func (c *Cube) Bands() int { return len(c.Wavelengths) }

// Len returns the number of spectra (pixels) in the cube
func (c *Cube) Len() int { return c.Height * c.Width }

// Sample returns the spectrum of pixel i in row-major order
func (c *Cube) Sample(i int) []float64 {
	n := c.Bands()
	lo := i * n
	return c.data[lo : lo+n : lo+n]
}

// Pixel returns the spectrum at (y, x)
func (c *Cube) Pixel(y, x int) []float64 {
	return c.Sample(y*c.Width + x)
}

// At returns a single reflectance value
func (c *Cube) At(y, x, band int) float64 {
	return c.data[(y*c.Width+x)*c.Bands()+band]
}

// Range returns the first and last wavelength
func (c *Cube) Range() [2]float64 {
	return [2]float64{c.Wavelengths[0], c.Wavelengths[len(c.Wavelengths)-1]}
}
