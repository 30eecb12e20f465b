package charging

import (
	"math"
	"testing"
	"time"

	"github.com/chargeq/chargeq/core/model"
)

var testProfile = &model.VehicleProfile{Model: "Model 3", Trim: "Long Range", BatteryKWh: 79}

func TestEstimator_ZeroWhenAlreadyAtTarget(t *testing.T) {
	e := NewEstimator()
	if got := e.DurationMinutes(testProfile, 80, 80, 68); got != 0 {
		t.Errorf("equal percents: got %d want 0", got)
	}
	if got := e.DurationMinutes(testProfile, 90, 80, 68); got != 0 {
		t.Errorf("start above target: got %d want 0", got)
	}
}

func TestEstimator_DurationShrinksWithDelta(t *testing.T) {
	e := NewEstimator()
	prev := e.DurationMinutes(testProfile, 20, 80, 68)
	for target := 70.0; target > 20; target -= 10 {
		cur := e.DurationMinutes(testProfile, 20, target, 68)
		if cur >= prev {
			t.Fatalf("duration to %.0f%% not smaller: %d >= %d", target, cur, prev)
		}
		prev = cur
	}
	if got := e.DurationMinutes(testProfile, 20, 20.5, 68); got <= 0 || got > 10 {
		t.Errorf("tiny delta: got %d minutes", got)
	}
}

func TestEstimator_ColdSlowsCharging(t *testing.T) {
	e := NewEstimator()
	cold := e.DurationMinutes(testProfile, 20, 80, 32)
	mild := e.DurationMinutes(testProfile, 20, 80, 68)
	if cold <= mild {
		t.Errorf("cold charge not slower: %d <= %d", cold, mild)
	}
}

func TestEstimator_TaperNotFlatRate(t *testing.T) {
	e := NewEstimator()
	low := e.DurationMinutes(testProfile, 0, 80, 68)
	high := e.DurationMinutes(testProfile, 80, 100, 68)
	perPctLow := float64(low) / 80
	perPctHigh := float64(high) / 20
	// The top of the range charges markedly slower per percent, so scaling
	// the bottom segment by proportion alone would be measurably wrong.
	if perPctHigh < perPctLow*1.3 {
		t.Errorf("taper missing: %.2f min/%% above 80 vs %.2f below", perPctHigh, perPctLow)
	}
}

func TestEstimator_LevelAtBoundaries(t *testing.T) {
	e := NewEstimator()
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	if got := e.LevelAt(testProfile, 20, 80, start, start, 68); got != 20 {
		t.Errorf("level at start instant: got %.3f want 20", got)
	}

	total := e.DurationMinutes(testProfile, 20, 80, 68)
	done := start.Add(time.Duration(total) * time.Minute)
	if got := e.LevelAt(testProfile, 20, 80, start, done, 68); got != 80 {
		t.Errorf("level at completion: got %.3f want 80", got)
	}
	if got := e.LevelAt(testProfile, 20, 80, start, done.Add(time.Hour), 68); got != 80 {
		t.Errorf("level past completion overshoots: got %.3f", got)
	}
}

func TestEstimator_LevelAtMonotone(t *testing.T) {
	e := NewEstimator()
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	prev := 20.0
	for m := 10; m <= 600; m += 10 {
		lvl := e.LevelAt(testProfile, 20, 80, start, start.Add(time.Duration(m)*time.Minute), 68)
		if lvl < prev {
			t.Fatalf("level decreased at %dm: %.3f < %.3f", m, lvl, prev)
		}
		if lvl > 80 {
			t.Fatalf("level overshot target at %dm: %.3f", m, lvl)
		}
		prev = lvl
	}
}

func TestEstimator_FallbackTwoSegment(t *testing.T) {
	e := NewEstimator()
	// 6 %/h below 80, so 0->80 takes exactly 800 minutes at 68F.
	if got := e.DurationMinutes(nil, 0, 80, 68); got != 800 {
		t.Errorf("fallback below knee: got %d want 800", got)
	}
	// 3 %/h above 80, so 80->100 takes exactly 400 minutes.
	if got := e.DurationMinutes(nil, 80, 100, 68); got != 400 {
		t.Errorf("fallback above knee: got %d want 400", got)
	}
}

func TestEstimator_FallbackLevelAtPartial(t *testing.T) {
	e := NewEstimator()
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	// 6 %/h means 1% per 10 minutes.
	got := e.LevelAt(nil, 0, 80, start, start.Add(25*time.Minute), 68)
	if math.Abs(got-2.5) > 1e-6 {
		t.Errorf("fallback partial level: got %.4f want 2.5", got)
	}
}

func TestEstimator_CompletionAt(t *testing.T) {
	e := NewEstimator()
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	total := e.DurationMinutes(testProfile, 20, 80, 68)
	want := start.Add(time.Duration(total) * time.Minute)
	if got := e.CompletionAt(testProfile, 20, 80, 68, start); !got.Equal(want) {
		t.Errorf("completion: got %v want %v", got, want)
	}
}

func TestFormatMinutes(t *testing.T) {
	cases := []struct {
		minutes int
		want    string
	}{
		{0, "<1m"},
		{45, "45m"},
		{60, "1h"},
		{155, "2h 35m"},
	}
	for _, c := range cases {
		if got := FormatMinutes(c.minutes); got != c.want {
			t.Errorf("FormatMinutes(%d) = %q want %q", c.minutes, got, c.want)
		}
	}
}

func TestInsightsFor(t *testing.T) {
	e := NewEstimator()
	ins := e.InsightsFor(20, 80, 68)
	if ins.AverageRate <= 0 {
		t.Fatalf("average rate: %v", ins.AverageRate)
	}
	if ins.TemperatureImpact != "Optimal" {
		t.Errorf("impact at 68F: %q", ins.TemperatureImpact)
	}
	cold := e.InsightsFor(20, 80, 32)
	if cold.TemperatureImpact != "Significantly Reduced" {
		t.Errorf("impact at 32F: %q", cold.TemperatureImpact)
	}
}
