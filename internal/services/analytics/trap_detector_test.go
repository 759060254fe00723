package analytics

import (
	"math"
	"strings"
	"testing"

	"MarketSense/internal/domain/models"
)

// quietSnapshot returns a snapshot that triggers none of the trap checks.
func quietSnapshot() models.IndicatorSnapshot {
	snap := models.NeutralSnapshot()
	snap.RSI.Signal = models.SignalBullish
	snap.MACD.Trend = models.SignalBullish
	snap.EMA.Signal = models.SignalNeutral
	snap.Candle.Type = models.CandleDoji
	snap.Bias = models.OverallBias{
		Direction:      models.BiasBullish,
		Confidence:     0.6,
		BullishSignals: 3,
		BearishSignals: 2,
		TotalSignals:   5,
	}
	snap.Bollinger.Percent = 0.5
	snap.Bollinger.Width = 0.01
	return snap
}

func TestDetectQuietSnapshot(t *testing.T) {
	d := NewTrapDetector()
	out := d.Detect(quietSnapshot(), []float64{0.01, 0.01, 0.01})

	if out.OverallRiskScore != 0 {
		t.Errorf("OverallRiskScore = %v, want 0", out.OverallRiskScore)
	}
	if out.Assessment != models.RiskLowAssessment {
		t.Errorf("Assessment = %v, want %v", out.Assessment, models.RiskLowAssessment)
	}
	if out.Recommendation != "PROCEED - No significant trap patterns detected" {
		t.Errorf("unexpected recommendation %q", out.Recommendation)
	}
	if len(out.TrapsDetected) != 0 || len(out.RiskFactors) != 0 {
		t.Errorf("expected no triggered checks, got %d traps %d factors",
			len(out.TrapsDetected), len(out.RiskFactors))
	}
}

func TestDetectPerfectSetup(t *testing.T) {
	snap := quietSnapshot()
	snap.Bias.BullishSignals = 5
	snap.Bias.BearishSignals = 0

	out := NewTrapDetector().Detect(snap, []float64{0.01})

	if out.OverallRiskScore != riskPerfectSetup {
		t.Fatalf("OverallRiskScore = %v, want %v", out.OverallRiskScore, riskPerfectSetup)
	}
	// A single 30-point trap sits exactly in the moderate band.
	if out.Assessment != models.RiskModerate {
		t.Errorf("Assessment = %v, want %v", out.Assessment, models.RiskModerate)
	}
	if len(out.TrapsDetected) != 1 || out.TrapsDetected[0].Type != models.TrapPerfectSetup {
		t.Fatalf("unexpected traps %+v", out.TrapsDetected)
	}
	if out.TrapsDetected[0].AlignmentRatio != 1 {
		t.Errorf("AlignmentRatio = %v, want 1", out.TrapsDetected[0].AlignmentRatio)
	}
}

func TestDetectPerfectSetupDefaultsTotal(t *testing.T) {
	snap := quietSnapshot()
	snap.Bias.BullishSignals = 5
	snap.Bias.BearishSignals = 0
	snap.Bias.TotalSignals = 0

	out := NewTrapDetector().Detect(snap, []float64{0.01})
	if len(out.TrapsDetected) != 1 {
		t.Fatalf("zero TotalSignals should fall back to the five-indicator set, got %+v", out.TrapsDetected)
	}
}

func TestDetectLateEntry(t *testing.T) {
	cases := []struct {
		percent   float64
		triggered bool
		zone      string
	}{
		{0.5, false, ""},
		{0.7, false, ""},
		{0.71, true, "overbought zone"},
		{1.2, true, "overbought zone"},
		{0.3, false, ""},
		{0.29, true, "oversold zone"},
		{-0.1, true, "oversold zone"},
	}
	for _, tc := range cases {
		snap := quietSnapshot()
		snap.Bollinger.Percent = tc.percent

		out := NewTrapDetector().Detect(snap, []float64{0.01})
		found := false
		for _, trap := range out.TrapsDetected {
			if trap.Type == models.TrapLateEntry {
				found = true
				if !strings.Contains(trap.Message, tc.zone) {
					t.Errorf("percent %v: message %q missing %q", tc.percent, trap.Message, tc.zone)
				}
			}
		}
		if found != tc.triggered {
			t.Errorf("percent %v: triggered = %v, want %v", tc.percent, found, tc.triggered)
		}
	}
}

func TestDetectLateEntryIsModerateExactlyAtThreshold(t *testing.T) {
	snap := quietSnapshot()
	snap.Bollinger.Percent = 0.9

	out := NewTrapDetector().Detect(snap, []float64{0.01})
	if out.OverallRiskScore != riskLateEntry {
		t.Fatalf("OverallRiskScore = %v, want %v", out.OverallRiskScore, riskLateEntry)
	}
	if out.Assessment != models.RiskModerate {
		t.Errorf("a 25-point score should classify moderate, got %v", out.Assessment)
	}
}

func TestDetectVolatilitySpikeAgainstHistory(t *testing.T) {
	snap := quietSnapshot()
	snap.Bollinger.Width = 0.05

	out := NewTrapDetector().Detect(snap, []float64{0.02, 0.02, 0.02})
	if len(out.TrapsDetected) != 1 || out.TrapsDetected[0].Type != models.TrapVolatilitySpike {
		t.Fatalf("unexpected traps %+v", out.TrapsDetected)
	}
	if got := out.TrapsDetected[0].RatioToAverage; math.Abs(got-2.5) > 1e-9 {
		t.Errorf("RatioToAverage = %v, want 2.5", got)
	}
}

func TestDetectVolatilitySpikeAbsoluteFallback(t *testing.T) {
	snap := quietSnapshot()
	snap.Bollinger.Width = 0.06

	// No history: fall back to the absolute 0.05 threshold.
	out := NewTrapDetector().Detect(snap, nil)
	if len(out.TrapsDetected) != 1 || out.TrapsDetected[0].Type != models.TrapVolatilitySpike {
		t.Fatalf("unexpected traps %+v", out.TrapsDetected)
	}

	snap.Bollinger.Width = 0.04
	out = NewTrapDetector().Detect(snap, nil)
	if len(out.TrapsDetected) != 0 {
		t.Fatalf("width under the absolute threshold triggered %+v", out.TrapsDetected)
	}
}

func TestDetectDivergenceIsRiskFactor(t *testing.T) {
	snap := quietSnapshot()
	snap.RSI.Signal = models.SignalOversold
	snap.MACD.Trend = models.SignalBullish
	snap.EMA.Signal = models.SignalBearish
	snap.Candle.Type = models.CandleBearish

	out := NewTrapDetector().Detect(snap, []float64{0.01})

	if len(out.TrapsDetected) != 0 {
		t.Fatalf("divergence must not count as a hard trap, got %+v", out.TrapsDetected)
	}
	if len(out.RiskFactors) != 1 || out.RiskFactors[0].Type != models.TrapIndicatorDiverge {
		t.Fatalf("unexpected risk factors %+v", out.RiskFactors)
	}
	if out.OverallRiskScore != riskDivergence {
		t.Errorf("OverallRiskScore = %v, want %v", out.OverallRiskScore, riskDivergence)
	}
	if out.Assessment != models.RiskLowAssessment {
		t.Errorf("Assessment = %v, want %v below the moderate threshold", out.Assessment, models.RiskLowAssessment)
	}
}

func TestDetectHighRiskStacking(t *testing.T) {
	snap := quietSnapshot()
	snap.Bias.BullishSignals = 5
	snap.Bias.BearishSignals = 0
	snap.Bollinger.Percent = 0.95

	out := NewTrapDetector().Detect(snap, []float64{0.01})

	if want := riskPerfectSetup + riskLateEntry; out.OverallRiskScore != want {
		t.Fatalf("OverallRiskScore = %v, want %v", out.OverallRiskScore, want)
	}
	if out.Assessment != models.RiskHighTrap {
		t.Errorf("Assessment = %v, want %v", out.Assessment, models.RiskHighTrap)
	}
	if out.Recommendation != "AVOID - Multiple trap signals detected" {
		t.Errorf("unexpected recommendation %q", out.Recommendation)
	}
}

func TestDetectHighRiskExactlyAtThreshold(t *testing.T) {
	snap := quietSnapshot()
	snap.Bollinger.Percent = 0.95
	snap.Bollinger.Width = 0.05

	out := NewTrapDetector().Detect(snap, []float64{0.02})

	if out.OverallRiskScore != highRiskThreshold {
		t.Fatalf("OverallRiskScore = %v, want %v", out.OverallRiskScore, highRiskThreshold)
	}
	if out.Assessment != models.RiskHighTrap {
		t.Errorf("a score of exactly %v should classify high risk, got %v", highRiskThreshold, out.Assessment)
	}
}
