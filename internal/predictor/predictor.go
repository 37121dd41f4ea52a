// Package predictor estimates crop health from a location's climate and the month.
//
// It is the always-available fallback behind the model gateway and never fails.
// The base-health and seasonal constants are empirical and have not been validated
// against agronomic field data.
package predictor

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/Aadya-Jha/AgriCare-sub001/internal/domain"
	"github.com/Aadya-Jha/AgriCare-sub001/pkg/utils"
)

// BaseHealth returns the climate's baseline health score
func BaseHealth(c domain.Climate) float64 {
	switch c {
	case domain.ClimateTropical:
		return 0.75
	case domain.ClimateHumid:
		return 0.70
	case domain.ClimateCoastal:
		return 0.65
	case domain.ClimateSemiArid:
		return 0.60
	case domain.ClimateArid:
		return 0.50
	case domain.ClimateOther:
		return 0.65
	}
	return 0.65
}

// SeasonalFactor is positive inside a climate's favorable window and negative outside it
func SeasonalFactor(month int, c domain.Climate) float64 {
	m := normalizeMonth(month)

	switch c {
	case domain.ClimateArid:
		if m >= 7 && m <= 9 {
			return 0.4
		}
		return -0.3
	case domain.ClimateSemiArid:
		if m >= 6 && m <= 9 {
			return 0.3
		}
		return -0.2
	case domain.ClimateHumid:
		return 0.2
	case domain.ClimateTropical:
		if m >= 6 && m <= 11 {
			return 0.25
		}
		return -0.1
	case domain.ClimateCoastal:
		if m >= 6 && m <= 9 {
			return 0.15
		}
		return -0.05
	case domain.ClimateOther:
		return 0
	}
	return 0
}

func normalizeMonth(month int) int {
	m := month % 12
	if m <= 0 {
		m += 12
	}
	return m
}

// Predictor computes HealthMetrics. The zero value is not usable; use New.
type Predictor struct {
	mu     sync.Mutex
	rng    *rand.Rand
	jitter bool
}

// New creates a predictor seeded from the clock
func New() *Predictor {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()), true)
}

// NewWithSource creates a predictor with an explicit random source.
// With jitter disabled every output equals its pre-jitter value.
func NewWithSource(src rand.Source, jitter bool) *Predictor {
	return &Predictor{rng: rand.New(src), jitter: jitter}
}

var defaultPredictor = New()

// Predict uses the package default predictor
func Predict(loc domain.Location, month int) domain.HealthMetrics {
	return defaultPredictor.Predict(loc, month)
}

// uniform returns U(lo, hi), or 0 when jitter is disabled
func (p *Predictor) uniform(lo, hi float64) float64 {
	if !p.jitter {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return lo + p.rng.Float64()*(hi-lo)
}

// Predict returns a bounded health bundle for the location in the given month
func (p *Predictor) Predict(loc domain.Location, month int) domain.HealthMetrics {
	base := BaseHealth(loc.Climate)
	season := SeasonalFactor(month, loc.Climate)

	m := domain.HealthMetrics{
		OverallHealthScore: utils.Clamp(base+season*0.6+p.uniform(-0.05, 0.05), 0.1, 0.95),
		NDVI:               utils.Clamp(base+season*0.8+p.uniform(-0.05, 0.05), 0.2, 0.9),
		SAVI:               utils.Clamp(base*0.85+season*0.6+p.uniform(-0.04, 0.04), 0.15, 0.8),
		EVI:                utils.Clamp(base*0.75+season*0.5+p.uniform(-0.04, 0.04), 0.1, 0.7),
		GNDVI:              utils.Clamp(base*0.9+season*0.6+p.uniform(-0.04, 0.04), 0.15, 0.85),
		WaterStressIndex:   utils.Clamp(0.5-season*0.6+(0.7-base)*0.5+p.uniform(-0.05, 0.05), 0.05, 0.95),
		ChlorophyllContent: utils.Clamp(35+base*30+season*20+p.uniform(-3, 3), domain.ChlorophyllMin, domain.ChlorophyllMax),
		PredictedYield:     utils.Clamp(0.7+base*0.4+season*0.5+p.uniform(-0.05, 0.05), domain.YieldMin, domain.YieldMax),
		PestRiskScore:      utils.Clamp(0.3+(1-season)*0.4+p.uniform(0, 0.1), 0.1, 0.8),
		DiseaseRiskScore:   utils.Clamp(0.2+(1-base)*0.3+max(season, 0)*0.2+p.uniform(0, 0.1), 0.05, 0.7),
	}
	m.Recommendations = Recommendations(loc, season)
	return m
}

// Recommendations builds the water, climate and region tips for a location
func Recommendations(loc domain.Location, season float64) []string {
	recs := make([]string, 0, 6)

	if season > 0 {
		recs = append(recs, "Favorable seasonal moisture - optimize water harvesting and storage")
	} else {
		recs = append(recs, "Below-normal seasonal moisture - schedule supplemental irrigation")
	}

	switch loc.Climate {
	case domain.ClimateArid:
		recs = append(recs,
			"Consider drought-resistant crop varieties",
			"Implement drip irrigation to conserve water")
	case domain.ClimateHumid:
		recs = append(recs,
			"Monitor for fungal diseases in humid conditions",
			"Ensure adequate drainage to prevent waterlogging")
	case domain.ClimateCoastal:
		recs = append(recs,
			"Monitor soil salinity levels regularly",
			"Consider salt-tolerant crop varieties")
	case domain.ClimateSemiArid:
		recs = append(recs,
			"Balance irrigation for semi-arid conditions",
			"Monitor soil moisture levels closely")
	case domain.ClimateTropical:
		recs = append(recs,
			"Monitor for pest pressure in warm, wet conditions")
	case domain.ClimateOther:
	}

	recs = append(recs, regionTips(loc.Region)...)
	return recs
}

var regionAdvice = map[string]string{
	"Gujarat":   "Follow Gujarat cotton and groundnut advisories for the current season",
	"Rajasthan": "Use Rajasthan mustard and wheat sowing calendars for rabi planning",
	"Karnataka": "Check Karnataka ragi and paddy advisories before transplanting",
}

func regionTips(region string) []string {
	if region == "" || region == "Unknown" {
		return []string{"Continue regular hyperspectral monitoring"}
	}
	if tip, ok := regionAdvice[region]; ok {
		return []string{tip}
	}
	return []string{fmt.Sprintf("Consider %s state agricultural guidelines", region)}
}
