// Package analysis computes vegetation indices from reflectance spectra and
// classifies samples into the four crop health classes.
package analysis

import "math"

// Target band centers in nm
const (
	BlueNM    = 470.0
	GreenNM   = 550.0
	RedNM     = 670.0
	RedEdgeNM = 720.0
	NIRNM     = 800.0

	redEdgeLo = 680.0
	redEdgeHi = 750.0
)

// Bands holds the band indices resolved against a wavelength list
type Bands struct {
	Blue, Green, Red, RedEdge, NIR int

	// red-edge window, inclusive indices; RedEdgeFrom > RedEdgeTo when empty
	RedEdgeFrom, RedEdgeTo int
}

// NearestBand returns the index of the wavelength closest to target
func NearestBand(wavelengths []float64, target float64) int {
	best := 0
	bestDiff := math.Inf(1)
	for i, wl := range wavelengths {
		if d := math.Abs(wl - target); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return best
}

// ResolveBands maps the index band centers onto wavelengths
func ResolveBands(wavelengths []float64) Bands {
	b := Bands{
		Blue:        NearestBand(wavelengths, BlueNM),
		Green:       NearestBand(wavelengths, GreenNM),
		Red:         NearestBand(wavelengths, RedNM),
		RedEdge:     NearestBand(wavelengths, RedEdgeNM),
		NIR:         NearestBand(wavelengths, NIRNM),
		RedEdgeFrom: len(wavelengths),
		RedEdgeTo:   -1,
	}
	for i, wl := range wavelengths {
		if wl < redEdgeLo || wl > redEdgeHi {
			continue
		}
		if i < b.RedEdgeFrom {
			b.RedEdgeFrom = i
		}
		b.RedEdgeTo = i
	}
	return b
}
