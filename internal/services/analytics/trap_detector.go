package analytics

import (
	"fmt"

	"MarketSense/internal/domain/models"
)

// Trap risk contributions. The overall score is their raw sum; the
// assessment thresholds below consume it unclamped.
const (
	riskPerfectSetup    = 30.0
	riskLateEntry       = 25.0
	riskVolatilitySpike = 25.0
	riskDivergence      = 15.0

	highRiskThreshold     = 50.0
	moderateRiskThreshold = 25.0
)

// TrapDetector runs the manipulation heuristics against an indicator snapshot.
type TrapDetector struct {
	perfectSetupThreshold float64
	lateEntryThreshold    float64
	spikeFactor           float64
}

// NewTrapDetector builds a detector with the standard thresholds.
func NewTrapDetector() *TrapDetector {
	return &TrapDetector{
		perfectSetupThreshold: 0.9,
		lateEntryThreshold:    0.7,
		spikeFactor:           2.0,
	}
}

// Detect evaluates every trap check and aggregates the risk. widthHistory is
// the historical Bollinger width series used as the spike baseline; pass nil
// to fall back to absolute thresholds.
func (d *TrapDetector) Detect(snap models.IndicatorSnapshot, widthHistory []float64) models.TrapAssessment {
	var traps, factors []models.TrapCheck
	risk := 0.0

	if check := d.checkPerfectSetup(snap); check.Triggered {
		traps = append(traps, check)
		risk += riskPerfectSetup
	}
	if check := d.checkLateEntry(snap); check.Triggered {
		traps = append(traps, check)
		risk += riskLateEntry
	}
	if check := d.checkVolatilitySpike(snap, widthHistory); check.Triggered {
		traps = append(traps, check)
		risk += riskVolatilitySpike
	}
	if check := d.checkDivergence(snap); check.Triggered {
		factors = append(factors, check)
		risk += riskDivergence
	}

	out := models.TrapAssessment{
		TrapsDetected:    traps,
		RiskFactors:      factors,
		OverallRiskScore: risk,
	}
	switch {
	case risk >= highRiskThreshold:
		out.Assessment = models.RiskHighTrap
		out.Recommendation = "AVOID - Multiple trap signals detected"
	case risk >= moderateRiskThreshold:
		out.Assessment = models.RiskModerate
		out.Recommendation = "CAUTION - Some concerning patterns present"
	default:
		out.Assessment = models.RiskLowAssessment
		out.Recommendation = "PROCEED - No significant trap patterns detected"
	}
	return out
}

func (d *TrapDetector) checkPerfectSetup(snap models.IndicatorSnapshot) models.TrapCheck {
	bias := snap.Bias
	total := bias.TotalSignals
	if total == 0 {
		total = 5
	}
	aligned := bias.BullishSignals
	if bias.BearishSignals > aligned {
		aligned = bias.BearishSignals
	}
	ratio := float64(aligned) / float64(total)

	check := models.TrapCheck{
		Type:           models.TrapPerfectSetup,
		Triggered:      ratio >= d.perfectSetupThreshold,
		AlignmentRatio: ratio,
		Threshold:      d.perfectSetupThreshold,
		Message:        "Indicator alignment within normal range.",
	}
	if check.Triggered {
		check.Message = "Setup looks too perfect. Near-total indicator alignment often precedes a reversal."
	}
	return check
}

func (d *TrapDetector) checkLateEntry(snap models.IndicatorSnapshot) models.TrapCheck {
	pct := snap.Bollinger.Percent
	check := models.TrapCheck{
		Type:      models.TrapLateEntry,
		Triggered: pct > d.lateEntryThreshold || pct < 1-d.lateEntryThreshold,
		BBPercent: pct,
		Threshold: d.lateEntryThreshold,
		Message:   "Entry timing appears reasonable.",
	}
	if check.Triggered {
		zone := "oversold zone"
		if pct > d.lateEntryThreshold {
			zone = "overbought zone"
		}
		check.Message = fmt.Sprintf("Price is in the %s (%.1f%% of Bollinger range). Most of the move may already be complete.", zone, pct*100)
	}
	return check
}

func (d *TrapDetector) checkVolatilitySpike(snap models.IndicatorSnapshot, widthHistory []float64) models.TrapCheck {
	width := snap.Bollinger.Width

	var spike bool
	ratio := 1.0
	if len(widthHistory) > 0 {
		avg := 0.0
		for _, w := range widthHistory {
			avg += w
		}
		avg /= float64(len(widthHistory))
		spike = width > avg*d.spikeFactor
		if avg > 0 {
			ratio = width / avg
		}
	} else {
		spike = width > 0.05
		if width > 0 {
			ratio = width / 0.025
		}
	}

	check := models.TrapCheck{
		Type:           models.TrapVolatilitySpike,
		Triggered:      spike,
		CurrentWidth:   width,
		RatioToAverage: ratio,
		Message:        "Volatility within normal range.",
	}
	if spike {
		check.Message = fmt.Sprintf("Volatility is %.1fx higher than normal. Sudden spikes often precede reversals or stop hunts.", ratio)
	}
	return check
}

func (d *TrapDetector) checkDivergence(snap models.IndicatorSnapshot) models.TrapCheck {
	states := []string{
		string(snap.RSI.Signal),
		string(snap.MACD.Trend),
		string(snap.EMA.Signal),
		string(snap.Candle.Type),
	}
	bullish, bearish := 0, 0
	for _, s := range states {
		switch s {
		case "BULLISH", "OVERSOLD":
			bullish++
		case "BEARISH", "OVERBOUGHT":
			bearish++
		}
	}

	check := models.TrapCheck{
		Type:           models.TrapIndicatorDiverge,
		Triggered:      bullish >= 2 && bearish >= 2,
		BullishSignals: bullish,
		BearishSignals: bearish,
		Message:        "Indicators are broadly in agreement.",
	}
	if check.Triggered {
		check.Message = "Indicators are split between directions. Mixed signals raise the odds of a false move."
	}
	return check
}
