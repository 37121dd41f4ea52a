package service

import (
	"context"

	"github.com/Aadya-Jha/AgriCare-sub001/internal/domain"
)

// ImageRequest is an image handed to a model backend for analysis
type ImageRequest struct {
	Filename string
	Data     []byte
}

// ModelBackend produces health assessments. The gateway holds an optional
// external engine backend and an always-available in-process fallback.
type ModelBackend interface {
	// Name identifies the backend in logs and model info
	Name() string

	// PredictLocation returns health metrics for a location in the given month
	PredictLocation(ctx context.Context, loc domain.Location, month int) (domain.HealthMetrics, error)

	// AnalyzeImage reconstructs and classifies an RGB image
	AnalyzeImage(ctx context.Context, req ImageRequest) (domain.ImageAnalysis, error)

	// Train runs (or simulates) model training
	Train(ctx context.Context) (domain.TrainingResult, error)
}

// Prober is implemented by backends that can report their availability up front
type Prober interface {
	Probe() error
}
