package charging

// Insights summarizes the conditions of a planned charge for display.
type Insights struct {
	AverageRate       float64 `json:"average_rate"` // %/hour at the midpoint, temperature adjusted
	TemperatureImpact string  `json:"temperature_impact"`
	Efficiency        string  `json:"efficiency"`
}

// InsightsFor reports the midpoint charging rate and qualitative bands for a
// charge between the given percents at the given temperature.
func (e *Estimator) InsightsFor(start, target, tempF float64) Insights {
	mult := e.curve.TemperatureMultiplier(tempF)
	rate := e.curve.RateAtLevel((start+target)/2) * mult

	impact := "Optimal"
	switch {
	case mult < 0.8:
		impact = "Significantly Reduced"
	case mult < 0.9:
		impact = "Reduced"
	case mult > 1.0:
		impact = "Enhanced"
	}

	efficiency := "Good"
	switch {
	case rate > 7.0:
		efficiency = "Excellent"
	case rate < 3.0:
		efficiency = "Poor"
	case rate < 5.0:
		efficiency = "Fair"
	}

	return Insights{AverageRate: rate, TemperatureImpact: impact, Efficiency: efficiency}
}
