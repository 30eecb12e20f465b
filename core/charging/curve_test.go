package charging

import (
	"math"
	"testing"
)

func TestCurve_RateAtControlPoints(t *testing.T) {
	c := NewCurve()
	for i, lvl := range curveLevels {
		if got := c.RateAtLevel(lvl); math.Abs(got-curveRates[i]) > 1e-9 {
			t.Errorf("rate at %.0f%%: got %.3f want %.3f", lvl, got, curveRates[i])
		}
	}
}

func TestCurve_RateInterpolatesAndClamps(t *testing.T) {
	c := NewCurve()
	if got := c.RateAtLevel(22.5); math.Abs(got-(7.8+6.44)/2) > 1e-9 {
		t.Errorf("midpoint 22.5%%: got %.3f", got)
	}
	if got := c.RateAtLevel(-5); got != 8.5 {
		t.Errorf("below range: got %.3f want 8.5", got)
	}
	if got := c.RateAtLevel(150); got != 2.0 {
		t.Errorf("above range: got %.3f want 2.0", got)
	}
}

func TestCurve_RateTapers(t *testing.T) {
	c := NewCurve()
	prev := c.RateAtLevel(20)
	for lvl := 25.0; lvl <= 100; lvl += 5 {
		cur := c.RateAtLevel(lvl)
		if cur >= prev {
			t.Fatalf("rate not decreasing at %.0f%%: %.3f >= %.3f", lvl, cur, prev)
		}
		prev = cur
	}
}

func TestCurve_TemperatureMultiplier(t *testing.T) {
	c := NewCurve()
	if got := c.TemperatureMultiplier(68); got != 1.0 {
		t.Errorf("optimal temp: got %.3f want 1.0", got)
	}
	if got := c.TemperatureMultiplier(20); got != 0.65 {
		t.Errorf("below range: got %.3f want 0.65", got)
	}
	if got := c.TemperatureMultiplier(130); got != 0.75 {
		t.Errorf("above range: got %.3f want 0.75", got)
	}
	if got := c.TemperatureMultiplier(59); math.Abs(got-0.925) > 1e-9 {
		t.Errorf("interpolated 59F: got %.4f want 0.925", got)
	}
}
