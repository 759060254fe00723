package analytics

import (
	"time"

	"MarketSense/internal/domain/models"
)

// SessionFor buckets t (UTC) into a market session. Weekends map to CLOSED
// since the supported forex and metals pairs do not trade then.
func SessionFor(t time.Time) models.MarketSession {
	utc := t.UTC()
	if wd := utc.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return models.SessionClosed
	}
	hour := utc.Hour()
	switch {
	case hour < 8:
		return models.SessionAsian
	case hour < 13:
		return models.SessionLondon
	case hour < 16:
		return models.SessionOverlap
	case hour < 22:
		return models.SessionNewYork
	default:
		return models.SessionOffHours
	}
}

// sessionQuality ranks sessions by typical liquidity.
var sessionQuality = map[models.MarketSession]float64{
	models.SessionOverlap:  1.0,
	models.SessionLondon:   0.85,
	models.SessionNewYork:  0.8,
	models.SessionAsian:    0.6,
	models.SessionOffHours: 0.3,
}

// SessionScore returns the base quality score for session, blended with the
// personal win rate when enough same-session trades exist.
func SessionScore(session models.MarketSession, stats []models.SessionPerformance) float64 {
	score, ok := sessionQuality[session]
	if !ok {
		score = 0.5
	}
	for _, s := range stats {
		if s.Session == session && s.Trades >= models.MinSessionTrades {
			score = score*0.7 + s.WinRate*0.3
			break
		}
	}
	return score
}
