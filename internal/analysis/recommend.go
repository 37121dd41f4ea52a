package analysis

// Recommendations derives management advice from the aggregate results
func Recommendations(overall, ndviMean, coverage float64) []string {
	var recs []string

	switch {
	case overall > 0.8:
		recs = append(recs,
			"Excellent crop health detected - continue current management practices",
			"Monitor for any early signs of pest or disease pressure")
	case overall > 0.6:
		recs = append(recs,
			"Good crop health - consider optimizing nutrition for better growth",
			"Monitor water stress indicators regularly")
	case overall > 0.4:
		recs = append(recs,
			"Fair crop health - investigate potential stress factors",
			"Consider soil testing and nutrient management",
			"Check irrigation scheduling and water availability")
	default:
		recs = append(recs,
			"Poor crop health detected - immediate action required",
			"Conduct thorough field inspection for pests and diseases",
			"Review irrigation, nutrition, and soil management practices")
	}

	if ndviMean < 0.3 {
		recs = append(recs, "Low vegetation vigor detected - consider fertilization")
	} else if ndviMean > 0.8 {
		recs = append(recs, "High vegetation vigor - monitor for optimal harvest timing")
	}

	if coverage < 50 {
		recs = append(recs, "Sparse vegetation coverage - check stand establishment and gaps in the canopy")
	}

	return append(recs,
		"Continue regular monitoring using hyperspectral analysis",
		"Implement precision agriculture practices based on spatial variability")
}
