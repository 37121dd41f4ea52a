package domain

import "time"

// LocationPrediction is the health prediction for one registered location
type LocationPrediction struct {
	HealthMetrics
	Location          string      `json:"location"`
	Coordinates       [2]float64  `json:"coordinates"`
	Region            string      `json:"region"`
	Climate           Climate     `json:"climate"`
	Crops             []string    `json:"crops"`
	DominantClass     HealthClass `json:"dominant_class"`
	AnalysisTimestamp time.Time   `json:"analysis_timestamp"`
	Simulated         bool        `json:"simulation_mode"`
}

// NewLocationPrediction attaches location details to a metrics bundle
func NewLocationPrediction(loc Location, m HealthMetrics, simulated bool) LocationPrediction {
	m = m.Clamp()
	return LocationPrediction{
		HealthMetrics:     m,
		Location:          loc.Name,
		Coordinates:       loc.Coordinates,
		Region:            loc.Region,
		Climate:           loc.Climate,
		Crops:             loc.MajorCrops,
		DominantClass:     ClassForScore(m.OverallHealthScore),
		AnalysisTimestamp: time.Now(),
		Simulated:         simulated,
	}
}

// PredictionModelInfo describes the model that produced a PredictionSet
type PredictionModelInfo struct {
	Wavelengths []float64 `json:"wavelengths"`
	NumBands    int       `json:"num_bands"`
	Locations   []string  `json:"locations"`
}

// PredictionSet holds predictions for every registered location
type PredictionSet struct {
	Status            string                        `json:"status"`
	Predictions       map[string]LocationPrediction `json:"predictions"`
	ModelInfo         PredictionModelInfo           `json:"model_info"`
	AnalysisTimestamp time.Time                     `json:"analysis_timestamp"`
}

// TrainingResult is the outcome of a model training run
type TrainingResult struct {
	Status            string     `json:"status"`
	ModelPath         string     `json:"model_path"`
	Accuracy          float64    `json:"accuracy"`
	NumSamples        int        `json:"num_samples"`
	NumLocations      int        `json:"num_locations"`
	WavelengthRange   [2]float64 `json:"wavelength_range"`
	TrainingCompleted time.Time  `json:"training_completed"`
	Simulated         bool       `json:"simulation_mode"`
}

// ModelInfo describes the active model configuration
type ModelInfo struct {
	ModelType          string        `json:"model_type"`
	SupportedLocations []string      `json:"supported_locations"`
	WavelengthRange    [2]float64    `json:"wavelength_range"`
	NumBands           int           `json:"num_bands"`
	HealthClasses      []HealthClass `json:"health_classes"`
	LastUpdated        time.Time     `json:"last_updated"`
	EngineAvailable    bool          `json:"engine_available"`
}

// CriticalLocation is a location whose predicted health needs attention
type CriticalLocation struct {
	Location        string   `json:"location"`
	HealthScore     float64  `json:"health_score"`
	PrimaryIssue    string   `json:"primary_issue"`
	Recommendations []string `json:"recommendations"`
}

// Alert levels
const (
	AlertUrgent  = "urgent"
	AlertWarning = "warning"
)

// Alert is a health warning raised for a critical location
type Alert struct {
	ID           int       `json:"id"`
	Location     string    `json:"location"`
	Level        string    `json:"level"`
	PrimaryIssue string    `json:"primary_issue"`
	HealthScore  float64   `json:"health_score"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
}

// DashboardSummary aggregates a PredictionSet for the dashboard
type DashboardSummary struct {
	LocationsAnalyzed  int                `json:"locations_analyzed"`
	AverageHealthScore float64            `json:"average_health_score"`
	StatusDistribution map[string]int     `json:"health_status_distribution"`
	CriticalLocations  []CriticalLocation `json:"critical_locations"`
	Simulated          bool               `json:"simulation_mode"`
	Timestamp          time.Time          `json:"timestamp"`
}
