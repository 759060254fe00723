package analytics

import (
	"fmt"

	"MarketSense/internal/domain/models"
)

// DecisionInput bundles the evaluated components the policy weighs.
type DecisionInput struct {
	Score       models.ScoreResult
	Estimate    models.ProbabilityEstimate
	Traps       models.TrapAssessment
	Bias        models.BiasDirection
	Volatility  models.VolatilityMetrics
}

// Decision is the policy outcome before it is folded into a Signal.
type Decision struct {
	Action     models.SignalAction
	Direction  models.TradeDirection
	Confidence models.ConfidenceLevel
	Reasons    []string
	Warnings   []string
}

// Decide applies the entry policy. Danger cuts first, then the strong-setup
// gate, then the marginal gate; anything else waits.
func Decide(in DecisionInput) Decision {
	score := in.Score.FinalScore
	prob := in.Estimate.Probability
	risk := in.Traps.OverallRiskScore

	var warnings []string
	switch {
	case risk >= highRiskThreshold:
		warnings = append(warnings, fmt.Sprintf("trap risk is high (%.0f)", risk))
	case risk >= moderateRiskThreshold:
		warnings = append(warnings, fmt.Sprintf("elevated trap risk (%.0f)", risk))
	}
	if in.Volatility.IsHighVolatility {
		warnings = append(warnings, "volatility is well above its recent average")
	}

	if in.Estimate.Recommendation == models.RecommendAvoid || risk >= highRiskThreshold {
		return Decision{
			Action:     models.ActionDoNotTrade,
			Confidence: models.ConfidenceHigh,
			Reasons:    []string{"setup flagged as dangerous"},
			Warnings:   warnings,
		}
	}

	if score >= 70 && prob >= 60 && risk < moderateRiskThreshold {
		if action, direction, ok := directionFor(in.Bias); ok {
			conf := models.ConfidenceMedium
			if score >= 80 {
				conf = models.ConfidenceHigh
			}
			return Decision{
				Action:     action,
				Direction:  direction,
				Confidence: conf,
				Reasons:    []string{fmt.Sprintf("strong setup: score %.0f, win probability %.0f%%", score, prob)},
				Warnings:   warnings,
			}
		}
	}

	if score >= 55 && prob >= 55 && risk < 40 {
		if action, direction, ok := directionFor(in.Bias); ok {
			return Decision{
				Action:     action,
				Direction:  direction,
				Confidence: models.ConfidenceLow,
				Reasons:    []string{fmt.Sprintf("marginal setup: score %.0f, win probability %.0f%%", score, prob)},
				Warnings:   append(warnings, "marginal setup, reduce position size"),
			}
		}
	}

	return Decision{
		Action:     models.ActionWait,
		Confidence: models.ConfidenceMedium,
		Reasons:    []string{"no clear setup"},
		Warnings:   warnings,
	}
}

func directionFor(bias models.BiasDirection) (models.SignalAction, models.TradeDirection, bool) {
	switch bias {
	case models.BiasBullish:
		return models.ActionBuy, models.DirectionCall, true
	case models.BiasBearish:
		return models.ActionSell, models.DirectionPut, true
	default:
		return models.ActionWait, models.DirectionNone, false
	}
}
