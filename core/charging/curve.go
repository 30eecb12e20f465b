package charging

import "gonum.org/v1/gonum/interp"

// Control points measured on a 7 kW Level 2 charger. The rate tapers as the
// battery fills; readings below the first or above the last point clamp to
// the boundary rate.
var (
	curveLevels = []float64{0, 10, 20, 25, 30, 40, 50, 60, 70, 80, 90, 95, 100}
	curveRates  = []float64{8.5, 8.2, 7.8, 6.44, 6.2, 5.8, 5.5, 5.2, 4.8, 4.2, 3.5, 2.8, 2.0}
)

// Temperature adjustment factors. Cold slows charging sharply, extreme heat
// moderately; 68F is the optimum.
var (
	tempPointsF     = []float64{32, 50, 68, 80, 95, 110, 120}
	tempMultipliers = []float64{0.65, 0.85, 1.0, 0.98, 0.92, 0.85, 0.75}
)

// Curve interpolates the charging-rate and temperature tables.
type Curve struct {
	rate interp.PiecewiseLinear
	temp interp.PiecewiseLinear
}

// NewCurve builds the default curve from the measured control points.
func NewCurve() *Curve {
	c := &Curve{}
	if err := c.rate.Fit(curveLevels, curveRates); err != nil {
		panic(err)
	}
	if err := c.temp.Fit(tempPointsF, tempMultipliers); err != nil {
		panic(err)
	}
	return c
}

// RateAtLevel returns the instantaneous charging rate in percent per hour at
// the given battery level. Levels outside 0-100 clamp to the table bounds.
func (c *Curve) RateAtLevel(percent float64) float64 {
	return c.rate.Predict(clamp(percent, curveLevels[0], curveLevels[len(curveLevels)-1]))
}

// TemperatureMultiplier returns the rate scaling factor for the ambient
// temperature in Fahrenheit, clamped to the table range.
func (c *Curve) TemperatureMultiplier(tempF float64) float64 {
	return c.temp.Predict(clamp(tempF, tempPointsF[0], tempPointsF[len(tempPointsF)-1]))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
