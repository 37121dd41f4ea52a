package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/Aadya-Jha/AgriCare-sub001/internal/analysis"
	"github.com/Aadya-Jha/AgriCare-sub001/internal/domain"
	"github.com/Aadya-Jha/AgriCare-sub001/internal/predictor"
	"github.com/Aadya-Jha/AgriCare-sub001/internal/registry"
	"github.com/Aadya-Jha/AgriCare-sub001/internal/spectral"
)

// SimulationMethod names the in-process conversion in analysis results
const SimulationMethod = "Synthetic RGB to hyperspectral reconstruction"

// SimulationBackend computes every result in-process
type SimulationBackend struct {
	predictor     *predictor.Predictor
	reconstructor *spectral.Reconstructor
	analyzer      *analysis.Analyzer
	wavelengths   []float64
	maxSide       int

	mu  sync.Mutex
	rng *rand.Rand
}

// DefaultMaxSide is the longest image side fed to reconstruction when unset
const DefaultMaxSide = 128

// SimulationConfig tunes the in-process pipeline
type SimulationConfig struct {
	Wavelengths []float64
	NoiseSigma  float64
	Jitter      float64
	MaxSide     int
}

// NewSimulationBackend creates the fallback backend
func NewSimulationBackend(cfg SimulationConfig) *SimulationBackend {
	if len(cfg.Wavelengths) == 0 {
		cfg.Wavelengths = spectral.DefaultWavelengths(spectral.DefaultBands)
	}
	if cfg.MaxSide <= 0 {
		cfg.MaxSide = DefaultMaxSide
	}
	return &SimulationBackend{
		predictor:     predictor.New(),
		reconstructor: spectral.NewReconstructor(cfg.NoiseSigma),
		analyzer:      analysis.NewAnalyzer(cfg.Jitter),
		wavelengths:   cfg.Wavelengths,
		maxSide:       cfg.MaxSide,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Name implements ModelBackend
func (b *SimulationBackend) Name() string { return "simulation" }

// PredictLocation implements ModelBackend. It never fails.
func (b *SimulationBackend) PredictLocation(_ context.Context, loc domain.Location, month int) (domain.HealthMetrics, error) {
	return b.predictor.Predict(loc, month), nil
}

// AnalyzeImage implements ModelBackend
func (b *SimulationBackend) AnalyzeImage(ctx context.Context, req ImageRequest) (domain.ImageAnalysis, error) {
	img, _, err := spectral.Decode(req.Data, b.maxSide)
	if err != nil {
		return domain.ImageAnalysis{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.ImageAnalysis{}, err
	}

	cube, err := b.reconstructor.Reconstruct(img, b.wavelengths)
	if err != nil {
		return domain.ImageAnalysis{}, fmt.Errorf("simulation: failed to reconstruct: %w", err)
	}

	res, err := b.analyzer.Analyze(cube, cube.Wavelengths)
	if err != nil {
		return domain.ImageAnalysis{}, fmt.Errorf("simulation: failed to analyze: %w", err)
	}

	return analysis.ToImageAnalysis(res, analysis.ImageMeta{
		Filename:        req.Filename,
		Method:          SimulationMethod,
		Bands:           cube.Bands(),
		WavelengthRange: cube.Range(),
	}), nil
}

// Train implements ModelBackend with a simulated training run
func (b *SimulationBackend) Train(_ context.Context) (domain.TrainingResult, error) {
	b.mu.Lock()
	accuracy := 0.85 + 0.1*b.rng.Float64()
	b.mu.Unlock()

	return domain.TrainingResult{
		Status:            "success",
		ModelPath:         "trained_models/simulated_model.mat",
		Accuracy:          accuracy,
		NumSamples:        5000,
		NumLocations:      len(registry.Names()),
		WavelengthRange:   [2]float64{b.wavelengths[0], b.wavelengths[len(b.wavelengths)-1]},
		TrainingCompleted: time.Now(),
	}, nil
}
