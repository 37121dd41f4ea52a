package domain

import (
	"time"

	"github.com/Aadya-Jha/AgriCare-sub001/pkg/utils"
)

// HealthClass is the discretized crop health category
type HealthClass string

const (
	HealthExcellent HealthClass = "Excellent"
	HealthGood      HealthClass = "Good"
	HealthFair      HealthClass = "Fair"
	HealthPoor      HealthClass = "Poor"
)

// HealthClasses lists the classes from best to worst
var HealthClasses = []HealthClass{HealthExcellent, HealthGood, HealthFair, HealthPoor}

// ReferenceScore is the representative health score of each class
func (c HealthClass) ReferenceScore() float64 {
	switch c {
	case HealthExcellent:
		return 0.95
	case HealthGood:
		return 0.75
	case HealthFair:
		return 0.55
	default:
		return 0.25
	}
}

// Valid reports whether c is one of the four health classes
func (c HealthClass) Valid() bool {
	switch c {
	case HealthExcellent, HealthGood, HealthFair, HealthPoor:
		return true
	}
	return false
}

// ClassForScore buckets a score in [0,1] using the 0.8/0.6/0.4 thresholds
func ClassForScore(score float64) HealthClass {
	switch {
	case score >= 0.8:
		return HealthExcellent
	case score >= 0.6:
		return HealthGood
	case score >= 0.4:
		return HealthFair
	default:
		return HealthPoor
	}
}

// Metric bounds
const (
	ChlorophyllMin = 20.0
	ChlorophyllMax = 80.0
	YieldMin       = 0.6
	YieldMax       = 1.4
)

// HealthMetrics is the bundle produced for a location prediction
type HealthMetrics struct {
	OverallHealthScore float64  `json:"overall_health_score"`
	NDVI               float64  `json:"ndvi"`
	SAVI               float64  `json:"savi"`
	EVI                float64  `json:"evi"`
	GNDVI              float64  `json:"gndvi"`
	WaterStressIndex   float64  `json:"water_stress_index"`
	ChlorophyllContent float64  `json:"chlorophyll_content"`
	PredictedYield     float64  `json:"predicted_yield"`
	PestRiskScore      float64  `json:"pest_risk_score"`
	DiseaseRiskScore   float64  `json:"disease_risk_score"`
	Recommendations    []string `json:"recommendations"`
}

// Clamp returns a copy with every scalar forced into its documented range
func (m HealthMetrics) Clamp() HealthMetrics {
	m.OverallHealthScore = utils.Clamp(m.OverallHealthScore, 0, 1)
	m.NDVI = utils.Clamp(m.NDVI, 0, 1)
	m.SAVI = utils.Clamp(m.SAVI, 0, 1)
	m.EVI = utils.Clamp(m.EVI, 0, 1)
	m.GNDVI = utils.Clamp(m.GNDVI, 0, 1)
	m.WaterStressIndex = utils.Clamp(m.WaterStressIndex, 0, 1)
	m.ChlorophyllContent = utils.Clamp(m.ChlorophyllContent, ChlorophyllMin, ChlorophyllMax)
	m.PredictedYield = utils.Clamp(m.PredictedYield, YieldMin, YieldMax)
	m.PestRiskScore = utils.Clamp(m.PestRiskScore, 0, 1)
	m.DiseaseRiskScore = utils.Clamp(m.DiseaseRiskScore, 0, 1)
	if m.Recommendations == nil {
		m.Recommendations = []string{}
	}
	return m
}

// IndexStatistics summarizes one vegetation index over the valid samples
type IndexStatistics struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P10    float64 `json:"p10"`
	P90    float64 `json:"p90"`
}

// Clamp bounds every field of an index summary to [-1,1] and std to [0,1]
func (s IndexStatistics) Clamp() IndexStatistics {
	s.Mean = utils.Clamp(s.Mean, -1, 1)
	s.Median = utils.Clamp(s.Median, -1, 1)
	s.Std = utils.Clamp(s.Std, 0, 1)
	s.Min = utils.Clamp(s.Min, -1, 1)
	s.Max = utils.Clamp(s.Max, -1, 1)
	s.P10 = utils.Clamp(s.P10, -1, 1)
	s.P90 = utils.Clamp(s.P90, -1, 1)
	return s
}

// HealthAnalysis is the class histogram part of an image analysis
type HealthAnalysis struct {
	OverallHealthScore   float64     `json:"overall_health_score"`
	DominantHealthStatus HealthClass `json:"dominant_health_status"`
	Confidence           float64     `json:"confidence"`
	PixelsAnalyzed       int         `json:"pixels_analyzed"`
	ExcellentPercent     float64     `json:"excellent_percent"`
	GoodPercent          float64     `json:"good_percent"`
	FairPercent          float64     `json:"fair_percent"`
	PoorPercent          float64     `json:"poor_percent"`
}

// VegetationIndices holds the four index summaries plus coverage figures
type VegetationIndices struct {
	NDVI                     IndexStatistics `json:"ndvi"`
	SAVI                     IndexStatistics `json:"savi"`
	EVI                      IndexStatistics `json:"evi"`
	GNDVI                    IndexStatistics `json:"gndvi"`
	VegetationCoverage       float64         `json:"vegetation_coverage"`
	HealthyVegetationPercent float64         `json:"healthy_vegetation_percent"`
}

// ImageAnalysis is the result of analyzing one uploaded image
type ImageAnalysis struct {
	Status             string            `json:"status"`
	InputImage         string            `json:"input_image"`
	ConversionMethod   string            `json:"conversion_method"`
	HealthAnalysis     HealthAnalysis    `json:"health_analysis"`
	VegetationIndices  VegetationIndices `json:"vegetation_indices"`
	HyperspectralBands int               `json:"hyperspectral_bands"`
	WavelengthRange    [2]float64        `json:"wavelength_range"`
	AnalysisTimestamp  time.Time         `json:"analysis_timestamp"`
	Recommendations    []string          `json:"recommendations"`
	Simulated          bool              `json:"simulation_mode"`
}

// Clamp bounds every numeric field of the analysis to its documented range
func (a ImageAnalysis) Clamp() ImageAnalysis {
	h := &a.HealthAnalysis
	h.OverallHealthScore = utils.Clamp(h.OverallHealthScore, 0, 1)
	h.Confidence = utils.Clamp(h.Confidence, 0, 1)
	h.ExcellentPercent = utils.Clamp(h.ExcellentPercent, 0, 100)
	h.GoodPercent = utils.Clamp(h.GoodPercent, 0, 100)
	h.FairPercent = utils.Clamp(h.FairPercent, 0, 100)
	h.PoorPercent = utils.Clamp(h.PoorPercent, 0, 100)
	if h.PixelsAnalyzed < 0 {
		h.PixelsAnalyzed = 0
	}

	v := &a.VegetationIndices
	v.NDVI = v.NDVI.Clamp()
	v.SAVI = v.SAVI.Clamp()
	v.EVI = v.EVI.Clamp()
	v.GNDVI = v.GNDVI.Clamp()
	v.VegetationCoverage = utils.Clamp(v.VegetationCoverage, 0, 100)
	v.HealthyVegetationPercent = utils.Clamp(v.HealthyVegetationPercent, 0, 100)

	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}
	return a
}
