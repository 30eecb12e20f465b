package charging

import (
	"math"
	"time"

	"github.com/chargeq/chargeq/core/model"
)

// DefaultAmbientF is assumed when no temperature reading is supplied.
const DefaultAmbientF = 75.0

// defaultStep is the integration increment in percent. The rate changes
// materially across the 0-100 range, so durations are integrated in small
// steps rather than derived from a single average rate.
const defaultStep = 0.5

// Fallback rates in percent per hour for vehicles without a known profile.
// Deliberately decoupled from the primary curve; no continuity with it is
// guaranteed at the 80% switchover.
const (
	fallbackRateLow  = 6.0
	fallbackRateHigh = 3.0
	fallbackKnee     = 80.0
)

// Estimator derives charging durations and live progress from the charging
// curve. It is purely computational and owns no state.
type Estimator struct {
	curve *Curve
	step  float64
}

// NewEstimator returns an estimator over the default curve.
func NewEstimator() *Estimator {
	return &Estimator{curve: NewCurve(), step: defaultStep}
}

// rateAt picks the temperature-adjusted rate for one integration step.
// A nil profile selects the two-segment fallback approximation.
func (e *Estimator) rateAt(profile *model.VehicleProfile, level, tempF float64) float64 {
	mult := e.curve.TemperatureMultiplier(tempF)
	if profile == nil {
		if level < fallbackKnee {
			return fallbackRateLow * mult
		}
		return fallbackRateHigh * mult
	}
	return e.curve.RateAtLevel(level) * mult
}

// DurationMinutes returns the whole minutes, rounded up, needed to charge
// from start to target percent at the given ambient temperature. It returns
// 0 when start >= target.
func (e *Estimator) DurationMinutes(profile *model.VehicleProfile, start, target, tempF float64) int {
	if start >= target {
		return 0
	}
	total := 0.0
	cur := start
	for cur < target {
		next := math.Min(cur+e.step, target)
		mid := (cur + next) / 2
		rate := e.rateAt(profile, mid, tempF)
		total += (next - cur) / rate * 60
		cur = next
	}
	return int(math.Ceil(total))
}

// CompletionAt returns the estimated completion instant for a charge
// starting at the given time.
func (e *Estimator) CompletionAt(profile *model.VehicleProfile, start, target, tempF float64, at time.Time) time.Time {
	return at.Add(time.Duration(e.DurationMinutes(profile, start, target, tempF)) * time.Minute)
}

// LevelAt interpolates the battery percent reached at now for a charge that
// began at startedAt. It replays the same integration as DurationMinutes so
// progress converges on target exactly at the estimated completion time and
// never overshoots. It returns start when now == startedAt and target when
// start >= target.
func (e *Estimator) LevelAt(profile *model.VehicleProfile, start, target float64, startedAt, now time.Time, tempF float64) float64 {
	if start >= target {
		return target
	}
	elapsed := now.Sub(startedAt).Minutes()
	if elapsed <= 0 {
		return start
	}
	cur := start
	spent := 0.0
	for cur < target && spent < elapsed {
		next := math.Min(cur+e.step, target)
		mid := (cur + next) / 2
		rate := e.rateAt(profile, mid, tempF)
		stepMinutes := (next - cur) / rate * 60
		if spent+stepMinutes <= elapsed {
			spent += stepMinutes
			cur = next
			continue
		}
		// Partial step: apportion linearly within the increment.
		cur += (elapsed - spent) / stepMinutes * (next - cur)
		break
	}
	return math.Min(cur, target)
}

// RemainingMinutes returns the whole minutes left from the current
// interpolated level to the target.
func (e *Estimator) RemainingMinutes(profile *model.VehicleProfile, start, target float64, startedAt, now time.Time, tempF float64) int {
	level := e.LevelAt(profile, start, target, startedAt, now, tempF)
	return e.DurationMinutes(profile, level, target, tempF)
}
