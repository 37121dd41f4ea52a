package analysis

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/Aadya-Jha/AgriCare-sub001/internal/domain"
)

// finite drops NaN and infinite values
func finite(values []float64) stats.Float64Data {
	out := make(stats.Float64Data, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Summarize computes index statistics over the finite values.
// With no valid samples every field is zero.
func Summarize(values []float64) domain.IndexStatistics {
	data := finite(values)
	if data.Len() == 0 {
		return domain.IndexStatistics{}
	}

	var s domain.IndexStatistics
	s.Mean, _ = data.Mean()
	s.Median, _ = data.Median()
	s.Std, _ = data.StandardDeviationPopulation()
	s.Min, _ = data.Min()
	s.Max, _ = data.Max()
	s.P10, _ = stats.PercentileNearestRank(data, 10)
	s.P90, _ = stats.PercentileNearestRank(data, 90)
	return s
}
