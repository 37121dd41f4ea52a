package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aadya-Jha/AgriCare-sub001/internal/domain"
	"github.com/Aadya-Jha/AgriCare-sub001/internal/registry"
	"github.com/Aadya-Jha/AgriCare-sub001/internal/spectral"
)

func TestSimulationBackend_PredictLocation(t *testing.T) {
	b := NewSimulationBackend(SimulationConfig{})
	for _, loc := range registry.All() {
		for month := 1; month <= 12; month++ {
			m, err := b.PredictLocation(context.Background(), loc, month)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, m.OverallHealthScore, 0.1)
			assert.LessOrEqual(t, m.OverallHealthScore, 0.95)
			assert.GreaterOrEqual(t, m.PredictedYield, domain.YieldMin)
			assert.LessOrEqual(t, m.PredictedYield, domain.YieldMax)
		}
	}
}

func TestSimulationBackend_AnalyzeImage(t *testing.T) {
	b := NewSimulationBackend(SimulationConfig{Wavelengths: spectral.DefaultWavelengths(64), NoiseSigma: 0})

	a, err := b.AnalyzeImage(context.Background(), ImageRequest{
		Filename: "crop.png",
		Data:     solidPNG(t, 10, 10, colorGreen),
	})
	require.NoError(t, err)
	assert.Equal(t, "success", a.Status)
	assert.Equal(t, "crop.png", a.InputImage)
	assert.Equal(t, SimulationMethod, a.ConversionMethod)
	assert.Equal(t, 64, a.HyperspectralBands)
	assert.Equal(t, 100, a.HealthAnalysis.PixelsAnalyzed)
	assert.True(t, a.HealthAnalysis.DominantHealthStatus.Valid())
	assert.Greater(t, a.VegetationIndices.NDVI.Mean, 0.3, "green canopy reads as vegetation")

	total := a.HealthAnalysis.ExcellentPercent + a.HealthAnalysis.GoodPercent +
		a.HealthAnalysis.FairPercent + a.HealthAnalysis.PoorPercent
	assert.InDelta(t, 100, total, 0.01)
}

func TestSimulationBackend_AnalyzeImageRejectsGarbage(t *testing.T) {
	b := NewSimulationBackend(SimulationConfig{})
	_, err := b.AnalyzeImage(context.Background(), ImageRequest{Filename: "x.png", Data: []byte("nope")})
	assert.Error(t, err)
}

func TestSimulationBackend_AnalyzeImageHonorsContext(t *testing.T) {
	b := NewSimulationBackend(SimulationConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.AnalyzeImage(ctx, ImageRequest{Filename: "x.png", Data: solidPNG(t, 4, 4, colorGreen)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulationBackend_Train(t *testing.T) {
	b := NewSimulationBackend(SimulationConfig{})
	r, err := b.Train(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "success", r.Status)
	assert.Equal(t, len(registry.Names()), r.NumLocations)
	assert.Equal(t, [2]float64{400, 2500}, r.WavelengthRange)
	assert.Equal(t, "simulation", b.Name())
}
