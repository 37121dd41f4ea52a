package analysis

import (
	"github.com/Aadya-Jha/AgriCare-sub001/internal/domain"
	"github.com/Aadya-Jha/AgriCare-sub001/pkg/utils"
)

// Blend weights of the per-sample health score
const (
	WeightNDVI    = 0.5
	WeightGNDVI   = 0.3
	WeightRedEdge = 0.2

	redEdgeScale = 50.0
)

// RedEdgeScore rescales the mean per-nm first difference of reflectance
// across the red-edge window into [0,1]. Windows with fewer than two bands
// score 0.5.
func RedEdgeScore(spectrum, wavelengths []float64, b Bands) float64 {
	if b.RedEdgeTo-b.RedEdgeFrom < 1 {
		return 0.5
	}
	var sum float64
	n := 0
	for i := b.RedEdgeFrom; i < b.RedEdgeTo; i++ {
		dw := wavelengths[i+1] - wavelengths[i]
		if dw == 0 {
			continue
		}
		sum += (spectrum[i+1] - spectrum[i]) / dw
		n++
	}
	if n == 0 {
		return 0.5
	}
	return utils.Clamp(0.5+redEdgeScale*sum/float64(n), 0, 1)
}

// SampleScore blends normalized NDVI, normalized GNDVI and the red-edge score
func SampleScore(ndvi, gndvi, redEdge float64) float64 {
	return WeightNDVI*(ndvi+1)/2 + WeightGNDVI*(gndvi+1)/2 + WeightRedEdge*redEdge
}

// Histogram counts samples per health class in HealthClasses order
type Histogram [4]int

// Add records one sample
func (h *Histogram) Add(c domain.HealthClass) {
	for i, hc := range domain.HealthClasses {
		if hc == c {
			h[i]++
			return
		}
	}
}

// Total returns the number of samples recorded
func (h Histogram) Total() int {
	return h[0] + h[1] + h[2] + h[3]
}

// Percentages returns the share of each class in percent
func (h Histogram) Percentages() [4]float64 {
	var pct [4]float64
	total := h.Total()
	if total == 0 {
		return pct
	}
	for i, n := range h {
		pct[i] = float64(n) / float64(total) * 100
	}
	return pct
}

// Aggregate reduces class percentages to the overall score, the dominant
// class and its share as a fraction. Ties go to the healthier class.
func Aggregate(pct [4]float64) (overall float64, dominant domain.HealthClass, confidence float64) {
	best := 0
	for i, p := range pct {
		overall += p * domain.HealthClasses[i].ReferenceScore()
		if p > pct[best] {
			best = i
		}
	}
	overall /= 100
	return utils.Clamp(overall, 0, 1), domain.HealthClasses[best], utils.Clamp(pct[best]/100, 0, 1)
}
