package analysis

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/Aadya-Jha/AgriCare-sub001/internal/domain"
	"github.com/Aadya-Jha/AgriCare-sub001/pkg/utils"
)

// DefaultJitter is the amplitude of the uniform noise added to each sample score
const DefaultJitter = 0.05

// ErrNoSamples is returned when the source holds no spectra
var ErrNoSamples = errors.New("analysis: no samples to analyze")

// SampleSource is a collection of spectra sharing one wavelength list.
// spectral.Cube implements it.
type SampleSource interface {
	Len() int
	Sample(i int) []float64
}

// Spectrum is a single reflectance spectrum
type Spectrum []float64

// Len implements SampleSource
func (s Spectrum) Len() int { return 1 }

// Sample implements SampleSource
func (s Spectrum) Sample(int) []float64 { return s }

// Result is the reduced output of an analysis
type Result struct {
	NDVI  domain.IndexStatistics
	SAVI  domain.IndexStatistics
	EVI   domain.IndexStatistics
	GNDVI domain.IndexStatistics

	Histogram          Histogram
	ClassPercent       [4]float64
	OverallHealthScore float64
	Dominant           domain.HealthClass
	Confidence         float64

	Samples            int
	VegetationCoverage float64 // percent of samples with NDVI > 0.3
	HealthyVegetation  float64 // percent of samples with NDVI > 0.6
	Recommendations    []string
}

// Analyzer computes indices and classifications
type Analyzer struct {
	Jitter float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewAnalyzer creates an analyzer with a clock-seeded jitter source
func NewAnalyzer(jitter float64) *Analyzer {
	return NewAnalyzerWithSource(jitter, rand.NewSource(time.Now().UnixNano()))
}

// NewAnalyzerWithSource creates an analyzer with an explicit jitter source
func NewAnalyzerWithSource(jitter float64, src rand.Source) *Analyzer {
	return &Analyzer{Jitter: jitter, rng: rand.New(src)}
}

// callRand returns a generator private to one call, seeded from the shared
// source so concurrent analyses only contend for a single draw.
func (a *Analyzer) callRand() *rand.Rand {
	a.mu.Lock()
	seed := a.rng.Int63()
	a.mu.Unlock()
	return rand.New(rand.NewSource(seed))
}

// IndexSeries holds the per-sample index values of a source
type IndexSeries struct {
	NDVI, SAVI, EVI, GNDVI []float64
	RedEdge                []float64
}

// ComputeIndices evaluates the four indices and the red-edge score for every sample
func ComputeIndices(src SampleSource, wavelengths []float64) IndexSeries {
	n := src.Len()
	b := ResolveBands(wavelengths)
	out := IndexSeries{
		NDVI:    make([]float64, n),
		SAVI:    make([]float64, n),
		EVI:     make([]float64, n),
		GNDVI:   make([]float64, n),
		RedEdge: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		s := src.Sample(i)
		nir, red, green, blue := s[b.NIR], s[b.Red], s[b.Green], s[b.Blue]
		out.NDVI[i] = NDVI(nir, red)
		out.SAVI[i] = SAVI(nir, red)
		out.EVI[i] = EVI(nir, red, blue)
		out.GNDVI[i] = GNDVI(nir, green)
		out.RedEdge[i] = RedEdgeScore(s, wavelengths, b)
	}
	return out
}

// Analyze computes index statistics, the class histogram, the overall
// health score and recommendations for every spectrum in src.
func (a *Analyzer) Analyze(src SampleSource, wavelengths []float64) (Result, error) {
	if src == nil || src.Len() == 0 {
		return Result{}, ErrNoSamples
	}
	if len(wavelengths) == 0 || len(src.Sample(0)) != len(wavelengths) {
		return Result{}, errors.New("analysis: spectra do not match wavelength list")
	}

	series := ComputeIndices(src, wavelengths)
	n := src.Len()

	var hist Histogram
	var covered, healthy int

	rng := a.callRand()
	for i := 0; i < n; i++ {
		score := SampleScore(series.NDVI[i], series.GNDVI[i], series.RedEdge[i])
		if a.Jitter > 0 {
			score += (rng.Float64()*2 - 1) * a.Jitter
		}
		hist.Add(domain.ClassForScore(score))

		if series.NDVI[i] > 0.3 {
			covered++
		}
		if series.NDVI[i] > 0.6 {
			healthy++
		}
	}

	res := Result{
		NDVI:               Summarize(series.NDVI),
		SAVI:               Summarize(series.SAVI),
		EVI:                Summarize(series.EVI),
		GNDVI:              Summarize(series.GNDVI),
		Histogram:          hist,
		ClassPercent:       hist.Percentages(),
		Samples:            n,
		VegetationCoverage: utils.Clamp(float64(covered)/float64(n)*100, 0, 100),
		HealthyVegetation:  utils.Clamp(float64(healthy)/float64(n)*100, 0, 100),
	}
	res.OverallHealthScore, res.Dominant, res.Confidence = Aggregate(res.ClassPercent)
	res.Recommendations = Recommendations(res.OverallHealthScore, res.NDVI.Mean, res.VegetationCoverage)
	return res, nil
}

// ImageMeta describes the image an analysis was computed from
type ImageMeta struct {
	Filename        string
	Method          string
	Bands           int
	WavelengthRange [2]float64
	Simulated       bool
}

// ToImageAnalysis shapes a Result into the API's image analysis payload
func ToImageAnalysis(res Result, meta ImageMeta) domain.ImageAnalysis {
	return domain.ImageAnalysis{
		Status:           "success",
		InputImage:       meta.Filename,
		ConversionMethod: meta.Method,
		HealthAnalysis: domain.HealthAnalysis{
			OverallHealthScore:   res.OverallHealthScore,
			DominantHealthStatus: res.Dominant,
			Confidence:           res.Confidence,
			PixelsAnalyzed:       res.Samples,
			ExcellentPercent:     res.ClassPercent[0],
			GoodPercent:          res.ClassPercent[1],
			FairPercent:          res.ClassPercent[2],
			PoorPercent:          res.ClassPercent[3],
		},
		VegetationIndices: domain.VegetationIndices{
			NDVI:                     res.NDVI,
			SAVI:                     res.SAVI,
			EVI:                      res.EVI,
			GNDVI:                    res.GNDVI,
			VegetationCoverage:       res.VegetationCoverage,
			HealthyVegetationPercent: res.HealthyVegetation,
		},
		HyperspectralBands: meta.Bands,
		WavelengthRange:    meta.WavelengthRange,
		AnalysisTimestamp:  time.Now(),
		Recommendations:    res.Recommendations,
		Simulated:          meta.Simulated,
	}.Clamp()
}
