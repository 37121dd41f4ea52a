package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Aadya-Jha/AgriCare-sub001/internal/domain"
	"github.com/Aadya-Jha/AgriCare-sub001/internal/spectral"
)

const (
	// DefaultEngineTimeout bounds a single engine invocation
	DefaultEngineTimeout = 60 * time.Second

	maxStderrInLog = 512
)

// locationArg restricts what may be passed to the engine as a location name
var locationArg = regexp.MustCompile(`^[\p{L}\p{N} .'-]{1,64}$`)

// EngineConfig configures the external engine adapter
type EngineConfig struct {
	// Path is the engine executable, resolved through PATH when not absolute
	Path string
	// Timeout bounds each invocation
	Timeout time.Duration
	// Rate limits invocations per second, 0 disables throttling
	Rate float64
	// Bands is the number of spectral bands requested for image conversion
	Bands int
	// TempDir holds uploaded images while the engine reads them
	TempDir string
}

// EngineBackend runs the external hyperspectral engine as a subprocess
type EngineBackend struct {
	cfg     EngineConfig
	limiter *rate.Limiter
}

// NewEngineBackend creates a new engine adapter
func NewEngineBackend(cfg EngineConfig) *EngineBackend {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultEngineTimeout
	}
	if cfg.Bands <= 0 {
		cfg.Bands = spectral.DefaultBands
	}

	b := &EngineBackend{cfg: cfg}
	if cfg.Rate > 0 {
		burst := int(cfg.Rate)
		if burst < 1 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), burst)
	}
	return b
}

// Name implements ModelBackend
func (b *EngineBackend) Name() string { return "engine" }

// Probe reports whether the engine executable can be found
func (b *EngineBackend) Probe() error {
	if b.cfg.Path == "" {
		return fmt.Errorf("%w: no engine path configured", domain.ErrEngineUnavailable)
	}
	if _, err := exec.LookPath(b.cfg.Path); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEngineUnavailable, err)
	}
	return nil
}

// engineEnvelope is the status part common to every engine response
type engineEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e engineEnvelope) check() error {
	if e.Status == "success" {
		return nil
	}
	msg := e.Message
	if msg == "" {
		msg = e.Error
	}
	if msg == "" {
		msg = fmt.Sprintf("status %q", e.Status)
	}
	return fmt.Errorf("%w: %s", domain.ErrEngineUnavailable, msg)
}

// Keys the engine must report; zero values are legitimate so presence is checked on the raw object
var (
	healthMetricKeys = []string{
		"overall_health_score", "ndvi", "savi", "evi", "gndvi", "water_stress_index",
		"chlorophyll_content", "predicted_yield", "pest_risk_score", "disease_risk_score",
	}
	healthAnalysisKeys = []string{
		"overall_health_score", "dominant_health_status", "confidence", "pixels_analyzed",
		"excellent_percent", "good_percent", "fair_percent", "poor_percent",
	}
	vegetationIndexKeys = []string{"ndvi", "savi", "evi", "gndvi"}
)

// requireKeys decodes raw as an object and checks that every key is present and not null
func requireKeys(raw json.RawMessage, path string, keys ...string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrMalformedEngineOutput, path)
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: %s is not an object", domain.ErrMalformedEngineOutput, path)
	}
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || string(v) == "null" {
			return nil, fmt.Errorf("%w: missing %s.%s", domain.ErrMalformedEngineOutput, path, k)
		}
	}
	return obj, nil
}

// checkImageOutput verifies the health_analysis block and every index block are complete
func checkImageOutput(raw []byte) error {
	top, err := requireKeys(raw, "output", "health_analysis", "vegetation_indices")
	if err != nil {
		return err
	}
	if _, err := requireKeys(top["health_analysis"], "health_analysis", healthAnalysisKeys...); err != nil {
		return err
	}
	indices, err := requireKeys(top["vegetation_indices"], "vegetation_indices", vegetationIndexKeys...)
	if err != nil {
		return err
	}
	for _, k := range vegetationIndexKeys {
		if _, err := requireKeys(indices[k], "vegetation_indices."+k, "mean"); err != nil {
			return err
		}
	}
	return nil
}

// PredictLocation implements ModelBackend
func (b *EngineBackend) PredictLocation(ctx context.Context, loc domain.Location, month int) (domain.HealthMetrics, error) {
	if !locationArg.MatchString(loc.Name) {
		return domain.HealthMetrics{}, fmt.Errorf("engine: invalid location argument %q", loc.Name)
	}
	if month < 1 || month > 12 {
		return domain.HealthMetrics{}, fmt.Errorf("engine: invalid month argument %d", month)
	}

	raw, err := b.run(ctx, "--mode", "predict", "--location", loc.Name, "--month", strconv.Itoa(month))
	if err != nil {
		return domain.HealthMetrics{}, err
	}

	var resp struct {
		engineEnvelope
		HealthMetrics   json.RawMessage `json:"health_metrics"`
		Recommendations []string        `json:"recommendations"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.HealthMetrics{}, fmt.Errorf("%w: %v", domain.ErrMalformedEngineOutput, err)
	}
	if err := resp.check(); err != nil {
		return domain.HealthMetrics{}, err
	}
	if _, err := requireKeys(resp.HealthMetrics, "health_metrics", healthMetricKeys...); err != nil {
		return domain.HealthMetrics{}, err
	}

	var m domain.HealthMetrics
	if err := json.Unmarshal(resp.HealthMetrics, &m); err != nil {
		return domain.HealthMetrics{}, fmt.Errorf("%w: %v", domain.ErrMalformedEngineOutput, err)
	}
	if len(m.Recommendations) == 0 {
		m.Recommendations = resp.Recommendations
	}
	return m.Clamp(), nil
}

// AnalyzeImage implements ModelBackend. The image is written to a temporary
// file for the engine and removed afterwards.
func (b *EngineBackend) AnalyzeImage(ctx context.Context, req ImageRequest) (domain.ImageAnalysis, error) {
	ext := strings.ToLower(filepath.Ext(req.Filename))
	tmp, err := os.CreateTemp(b.cfg.TempDir, "upload-*"+ext)
	if err != nil {
		return domain.ImageAnalysis{}, fmt.Errorf("engine: failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(req.Data); err != nil {
		tmp.Close()
		return domain.ImageAnalysis{}, fmt.Errorf("engine: failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return domain.ImageAnalysis{}, fmt.Errorf("engine: failed to close temp file: %w", err)
	}

	raw, err := b.run(ctx, "--mode", "convert_image", "--input_image", tmp.Name(), "--bands", strconv.Itoa(b.cfg.Bands))
	if err != nil {
		return domain.ImageAnalysis{}, err
	}

	// analysis_timestamp shadows the embedded field so engine timestamps
	// without a zone do not fail decoding
	var resp struct {
		domain.ImageAnalysis
		AnalysisTimestamp string `json:"analysis_timestamp"`
		Message           string `json:"message"`
		Error             string `json:"error"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.ImageAnalysis{}, fmt.Errorf("%w: %v", domain.ErrMalformedEngineOutput, err)
	}
	env := engineEnvelope{Status: resp.Status, Message: resp.Message, Error: resp.Error}
	if err := env.check(); err != nil {
		return domain.ImageAnalysis{}, err
	}
	if err := checkImageOutput(raw); err != nil {
		return domain.ImageAnalysis{}, err
	}

	a := resp.ImageAnalysis
	if !a.HealthAnalysis.DominantHealthStatus.Valid() {
		return domain.ImageAnalysis{}, fmt.Errorf("%w: unknown health class %q",
			domain.ErrMalformedEngineOutput, a.HealthAnalysis.DominantHealthStatus)
	}
	a.InputImage = req.Filename
	if a.HyperspectralBands == 0 {
		a.HyperspectralBands = b.cfg.Bands
	}
	if a.WavelengthRange == [2]float64{} {
		a.WavelengthRange = [2]float64{spectral.MinWavelength, spectral.MaxWavelength}
	}
	a.AnalysisTimestamp = time.Now()
	return a.Clamp(), nil
}

// Train implements ModelBackend
func (b *EngineBackend) Train(ctx context.Context) (domain.TrainingResult, error) {
	raw, err := b.run(ctx, "--mode", "train")
	if err != nil {
		return domain.TrainingResult{}, err
	}

	var resp struct {
		domain.TrainingResult
		TrainingCompleted string `json:"training_completed"`
		Message           string `json:"message"`
		Error             string `json:"error"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.TrainingResult{}, fmt.Errorf("%w: %v", domain.ErrMalformedEngineOutput, err)
	}
	env := engineEnvelope{Status: resp.Status, Message: resp.Message, Error: resp.Error}
	if err := env.check(); err != nil {
		return domain.TrainingResult{}, err
	}

	r := resp.TrainingResult
	if r.Accuracy < 0 || r.Accuracy > 1 {
		return domain.TrainingResult{}, fmt.Errorf("%w: accuracy %v out of range", domain.ErrMalformedEngineOutput, r.Accuracy)
	}
	r.TrainingCompleted = time.Now()
	return r, nil
}

// run invokes the engine and returns the JSON object found in its output
func (b *EngineBackend) run(ctx context.Context, args ...string) ([]byte, error) {
	if b.limiter != nil && !b.limiter.Allow() {
		return nil, fmt.Errorf("%w: invocation rate exceeded", domain.ErrEngineUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.cfg.Path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// child processes may hold the pipes open after the engine is killed
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: timed out after %s", domain.ErrEngineUnavailable, b.cfg.Timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v (stderr: %s)", domain.ErrEngineUnavailable, err, truncate(stderr.String(), maxStderrInLog))
	}

	raw, ok := ExtractJSON(stdout.Bytes())
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in engine output", domain.ErrMalformedEngineOutput)
	}
	return raw, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
