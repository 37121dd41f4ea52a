package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Aadya-Jha/AgriCare-sub001/internal/domain"
	"github.com/Aadya-Jha/AgriCare-sub001/pkg/utils"
)

// CriticalThreshold is the health score below which a location is critical
const CriticalThreshold = 0.5

// UrgentThreshold is the health score below which an alert is urgent
const UrgentThreshold = 0.3

const (
	criticalRecommendations = 2
	maxAlerts               = 10
)

// PredictionSource produces predictions for every registered location
type PredictionSource interface {
	PredictAll(ctx context.Context) domain.PredictionSet
}

// DashboardService aggregates location predictions for the dashboard
type DashboardService struct {
	predictions PredictionSource
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(predictions PredictionSource) *DashboardService {
	return &DashboardService{predictions: predictions}
}

// Summary predicts every location and summarizes the result
func (s *DashboardService) Summary(ctx context.Context) domain.DashboardSummary {
	return Summarize(s.predictions.PredictAll(ctx))
}

// Alerts raises one alert per critical location, most critical first
func (s *DashboardService) Alerts(ctx context.Context) []domain.Alert {
	return AlertsFrom(s.Summary(ctx))
}

// AlertsFrom converts the critical locations of a summary into alerts
func AlertsFrom(summary domain.DashboardSummary) []domain.Alert {
	alerts := make([]domain.Alert, 0, min(len(summary.CriticalLocations), maxAlerts))
	for i, cl := range firstCritical(summary.CriticalLocations, maxAlerts) {
		level := domain.AlertWarning
		if cl.HealthScore < UrgentThreshold {
			level = domain.AlertUrgent
		}
		alerts = append(alerts, domain.Alert{
			ID:           i + 1,
			Location:     cl.Location,
			Level:        level,
			PrimaryIssue: cl.PrimaryIssue,
			HealthScore:  cl.HealthScore,
			Message:      fmt.Sprintf("%s detected in %s", cl.PrimaryIssue, cl.Location),
			CreatedAt:    summary.Timestamp,
		})
	}
	return alerts
}

func firstCritical(items []domain.CriticalLocation, n int) []domain.CriticalLocation {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// Summarize builds the dashboard view of a prediction set
func Summarize(set domain.PredictionSet) domain.DashboardSummary {
	summary := domain.DashboardSummary{
		StatusDistribution: map[string]int{
			"excellent": 0,
			"good":      0,
			"fair":      0,
			"poor":      0,
		},
		CriticalLocations: []domain.CriticalLocation{},
		Timestamp:         time.Now(),
	}
	if len(set.Predictions) == 0 {
		return summary
	}

	var total float64
	for _, p := range set.Predictions {
		score := p.OverallHealthScore
		total += score
		summary.StatusDistribution[statusKey(score)]++
		if p.Simulated {
			summary.Simulated = true
		}

		if score < CriticalThreshold {
			summary.CriticalLocations = append(summary.CriticalLocations, domain.CriticalLocation{
				Location:        p.Location,
				HealthScore:     score,
				PrimaryIssue:    PrimaryIssue(p.HealthMetrics),
				Recommendations: firstN(p.Recommendations, criticalRecommendations),
			})
		}
	}

	summary.LocationsAnalyzed = len(set.Predictions)
	summary.AverageHealthScore = utils.RoundTo(total/float64(len(set.Predictions)), 3)

	sort.Slice(summary.CriticalLocations, func(i, j int) bool {
		a, b := summary.CriticalLocations[i], summary.CriticalLocations[j]
		if a.HealthScore != b.HealthScore {
			return a.HealthScore < b.HealthScore
		}
		return a.Location < b.Location
	})
	return summary
}

func statusKey(score float64) string {
	switch {
	case score >= 0.8:
		return "excellent"
	case score >= 0.6:
		return "good"
	case score >= 0.4:
		return "fair"
	default:
		return "poor"
	}
}

// PrimaryIssue names the most pressing problem in a metrics bundle
func PrimaryIssue(m domain.HealthMetrics) string {
	type issue struct {
		name  string
		score float64
	}
	var issues []issue
	if m.WaterStressIndex > 0.7 {
		issues = append(issues, issue{"Water Stress", m.WaterStressIndex})
	}
	if m.PestRiskScore > 0.6 {
		issues = append(issues, issue{"Pest Risk", m.PestRiskScore})
	}
	if m.DiseaseRiskScore > 0.6 {
		issues = append(issues, issue{"Disease Risk", m.DiseaseRiskScore})
	}
	if m.OverallHealthScore < 0.4 {
		issues = append(issues, issue{"Poor Health", 1 - m.OverallHealthScore})
	}
	if len(issues) == 0 {
		return "General Monitoring Required"
	}

	top := issues[0]
	for _, is := range issues[1:] {
		if is.score > top.score {
			top = is
		}
	}
	return top.name
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		items = items[:n]
	}
	return append([]string{}, items...)
}
