package service

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aadya-Jha/AgriCare-sub001/internal/domain"
	"github.com/Aadya-Jha/AgriCare-sub001/internal/registry"
)

const predictOutput = `#!/bin/sh
echo "Initializing engine {v2}"
echo '{"status":"success","health_metrics":{"overall_health_score":1.7,"ndvi":0.55,"savi":0.4,"evi":0.3,"gndvi":0.5,"water_stress_index":0.3,"chlorophyll_content":95,"predicted_yield":1.1,"pest_risk_score":0.2,"disease_risk_score":0.1},"recommendations":["Irrigate"]}'
echo "done" >&2
`

const imageOutput = `#!/bin/sh
test -f "$4" || exit 3
echo '{"status":"success","conversion_method":"engine","health_analysis":{"overall_health_score":0.72,"dominant_health_status":"Good","confidence":0.6,"pixels_analyzed":100,"excellent_percent":20,"good_percent":60,"fair_percent":20,"poor_percent":0},"vegetation_indices":{"ndvi":{"mean":0.5,"std":0.1,"min":0.3,"max":0.7},"savi":{"mean":0.45,"std":0.08},"evi":{"mean":0.4,"std":0.07},"gndvi":{"mean":0.42,"std":0.06}},"analysis_timestamp":"2024-01-01T10:00:00.123456"}'
`

const trainOutput = `#!/bin/sh
echo '{"status":"success","model_path":"models/m.mat","accuracy":0.91,"num_samples":5000,"num_locations":5,"wavelength_range":[400,2500],"training_completed":"2024-01-01T10:00:00"}'
`

// writeEngine creates an executable shell script standing in for the engine
func writeEngine(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script engines need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "engine.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestEngineBackend_Probe(t *testing.T) {
	b := NewEngineBackend(EngineConfig{Path: filepath.Join(t.TempDir(), "missing")})
	assert.ErrorIs(t, b.Probe(), domain.ErrEngineUnavailable)

	b = NewEngineBackend(EngineConfig{})
	assert.ErrorIs(t, b.Probe(), domain.ErrEngineUnavailable)

	b = NewEngineBackend(EngineConfig{Path: writeEngine(t, trainOutput)})
	assert.NoError(t, b.Probe())
}

func TestEngineBackend_PredictLocation(t *testing.T) {
	b := NewEngineBackend(EngineConfig{Path: writeEngine(t, predictOutput)})

	m, err := b.PredictLocation(context.Background(), registry.Lookup("Kota"), 8)
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.OverallHealthScore, "clamped to [0,1]")
	assert.Equal(t, domain.ChlorophyllMax, m.ChlorophyllContent, "clamped to chlorophyll range")
	assert.Equal(t, 0.55, m.NDVI)
	assert.Equal(t, []string{"Irrigate"}, m.Recommendations)
}

func TestEngineBackend_RejectsBadArguments(t *testing.T) {
	b := NewEngineBackend(EngineConfig{Path: writeEngine(t, predictOutput)})
	ctx := context.Background()

	_, err := b.PredictLocation(ctx, domain.Location{Name: "Kota; rm -rf /"}, 8)
	assert.Error(t, err)

	_, err = b.PredictLocation(ctx, registry.Lookup("Kota"), 13)
	assert.Error(t, err)
}

func TestEngineBackend_Failures(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   error
	}{
		{"non-zero exit", "#!/bin/sh\necho boom >&2\nexit 2\n", domain.ErrEngineUnavailable},
		{"no JSON", "#!/bin/sh\necho 'all good'\n", domain.ErrMalformedEngineOutput},
		{"status error", "#!/bin/sh\necho '{\"status\":\"error\",\"message\":\"no model\"}'\n", domain.ErrEngineUnavailable},
		{"missing metrics", "#!/bin/sh\necho '{\"status\":\"success\"}'\n", domain.ErrMalformedEngineOutput},
		{"partial metrics", "#!/bin/sh\necho '{\"status\":\"success\",\"health_metrics\":{\"ndvi\":0.7}}'\n", domain.ErrMalformedEngineOutput},
		{"null metric", strings.Replace(predictOutput, `"pest_risk_score":0.2`, `"pest_risk_score":null`, 1), domain.ErrMalformedEngineOutput},
		{"metrics not an object", "#!/bin/sh\necho '{\"status\":\"success\",\"health_metrics\":[1,2]}'\n", domain.ErrMalformedEngineOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewEngineBackend(EngineConfig{Path: writeEngine(t, tt.script)})
			_, err := b.PredictLocation(context.Background(), registry.Lookup("Anand"), 5)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEngineBackend_Timeout(t *testing.T) {
	b := NewEngineBackend(EngineConfig{
		Path:    writeEngine(t, "#!/bin/sh\nsleep 5\n"),
		Timeout: 100 * time.Millisecond,
	})

	start := time.Now()
	_, err := b.Train(context.Background())
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestEngineBackend_RateLimited(t *testing.T) {
	b := NewEngineBackend(EngineConfig{Path: writeEngine(t, trainOutput), Rate: 0.001})
	ctx := context.Background()

	_, err := b.Train(ctx)
	require.NoError(t, err)

	_, err = b.Train(ctx)
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)
}

func TestEngineBackend_AnalyzeImage(t *testing.T) {
	tmp := t.TempDir()
	b := NewEngineBackend(EngineConfig{Path: writeEngine(t, imageOutput), Bands: 100, TempDir: tmp})

	a, err := b.AnalyzeImage(context.Background(), ImageRequest{Filename: "leaf.png", Data: []byte("pixels")})
	require.NoError(t, err)
	assert.Equal(t, "leaf.png", a.InputImage)
	assert.Equal(t, domain.HealthGood, a.HealthAnalysis.DominantHealthStatus)
	assert.Equal(t, 100, a.HyperspectralBands)
	assert.Equal(t, [2]float64{400, 2500}, a.WavelengthRange)
	assert.NotNil(t, a.Recommendations)
	assert.False(t, a.AnalysisTimestamp.IsZero())

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp image removed after the call")
}

func TestEngineBackend_AnalyzeImageUnknownClass(t *testing.T) {
	script := strings.Replace(imageOutput, `"dominant_health_status":"Good"`, `"dominant_health_status":"Great"`, 1)
	b := NewEngineBackend(EngineConfig{Path: writeEngine(t, script), TempDir: t.TempDir()})

	_, err := b.AnalyzeImage(context.Background(), ImageRequest{Filename: "leaf.png", Data: []byte("x")})
	assert.ErrorIs(t, err, domain.ErrMalformedEngineOutput)
}

func TestEngineBackend_PredictLocationEachMetricRequired(t *testing.T) {
	for _, key := range healthMetricKeys {
		t.Run(key, func(t *testing.T) {
			script := strings.Replace(predictOutput, `"`+key+`":`, `"dropped_`+key+`":`, 1)
			b := NewEngineBackend(EngineConfig{Path: writeEngine(t, script)})

			_, err := b.PredictLocation(context.Background(), registry.Lookup("Kota"), 8)
			assert.ErrorIs(t, err, domain.ErrMalformedEngineOutput)
		})
	}
}

func TestEngineBackend_AnalyzeImagePartialOutput(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"analysis only", "#!/bin/sh\necho '{\"status\":\"success\",\"health_analysis\":{\"dominant_health_status\":\"Good\"}}'\n"},
		{"missing confidence", strings.Replace(imageOutput, `"confidence":0.6,`, "", 1)},
		{"missing poor percent", strings.Replace(imageOutput, `,"poor_percent":0`, "", 1)},
		{"missing gndvi block", strings.Replace(imageOutput, `,"gndvi":{"mean":0.42,"std":0.06}`, "", 1)},
		{"savi without mean", strings.Replace(imageOutput, `"savi":{"mean":0.45,"std":0.08}`, `"savi":{"std":0.08}`, 1)},
		{"no index blocks", strings.Replace(imageOutput, `"vegetation_indices":`, `"indices":`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotEqual(t, imageOutput, tt.script, "fixture edit must apply")
			b := NewEngineBackend(EngineConfig{Path: writeEngine(t, tt.script), TempDir: t.TempDir()})

			_, err := b.AnalyzeImage(context.Background(), ImageRequest{Filename: "leaf.png", Data: []byte("x")})
			assert.ErrorIs(t, err, domain.ErrMalformedEngineOutput)
		})
	}
}

func TestEngineBackend_Train(t *testing.T) {
	b := NewEngineBackend(EngineConfig{Path: writeEngine(t, trainOutput)})

	r, err := b.Train(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "success", r.Status)
	assert.Equal(t, 0.91, r.Accuracy)
	assert.Equal(t, 5000, r.NumSamples)
	assert.False(t, r.TrainingCompleted.IsZero())
}
