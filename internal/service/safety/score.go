package safety

import (
	"wayguard/internal/domain/safety"
)

// Deterministic, locally recomputed scoring policy. The assessor's own score
// is only ever the starting baseline; every deduction below is applied
// uniformly regardless of which source reported the alert.
const (
	baselineScore = 80

	scamPenalty     = 15
	crimePenalty    = 10
	mediumPenalty   = 5
	defaultScore    = 75
	minScore        = 0
	maxScore        = 100
)

// scoredAlert pairs a merged alert with whether it came from a sourced
// (live or cached) report. Synthesized and static content contributes advice
// to a document but never moves the score.
type scoredAlert struct {
	alert   safety.Alert
	sourced bool
}

// deductionFor returns the score penalty one alert carries: 15 for a scam,
// 10 for a crime or breaking-news alert, 5 for any other medium-severity
// alert, 0 otherwise.
func deductionFor(a safety.Alert) int {
	switch {
	case a.Type == safety.AlertScam:
		return scamPenalty
	case a.Type == safety.AlertCrime:
		return crimePenalty
	case a.Type == safety.AlertNews && (a.Severity == safety.SeverityHigh || a.Severity == safety.SeverityCritical):
		return crimePenalty
	case a.Severity == safety.SeverityMedium:
		return mediumPenalty
	default:
		return 0
	}
}

// deriveScore applies the deduction policy to the sourced alerts and clamps
// the result to [0,100]. It also reports whether every deduction came from a
// news-type alert, which selects the "elevated" label for the medium band.
func deriveScore(base int, alerts []scoredAlert) (score int, newsDriven bool) {
	score = base
	newsDriven = true
	deducted := false

	for _, sa := range alerts {
		if !sa.sourced {
			continue
		}
		d := deductionFor(sa.alert)
		if d == 0 {
			continue
		}
		score -= d
		deducted = true
		if sa.alert.Type != safety.AlertNews {
			newsDriven = false
		}
	}

	return clampScore(score), deducted && newsDriven
}

func clampScore(score int) int {
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

// riskFor maps a score to its band: >=80 low, >=60 medium, >=40 high,
// otherwise critical. newsDriven swaps the medium label for "elevated".
func riskFor(score int, newsDriven bool) safety.RiskLevel {
	switch {
	case score >= 80:
		return safety.RiskLow
	case score >= 60:
		if newsDriven {
			return safety.RiskElevated
		}
		return safety.RiskMedium
	case score >= 40:
		return safety.RiskHigh
	default:
		return safety.RiskCritical
	}
}

// bandOf collapses the elevated label back onto its band for consistency
// checks and summaries.
func bandOf(level safety.RiskLevel) safety.RiskLevel {
	if level == safety.RiskElevated {
		return safety.RiskMedium
	}
	return level
}

var bandSummaries = map[safety.RiskLevel]string{
	safety.RiskLow:      "This area is generally safe. Exercise normal precautions.",
	safety.RiskMedium:   "Exercise increased caution and stay aware of your surroundings.",
	safety.RiskHigh:     "Significant risks are active in this area. Avoid unnecessary exposure.",
	safety.RiskCritical: "Serious risk. Follow official guidance and avoid the area if possible.",
}

// summaryFor returns the fixed summary string for a risk level's band.
func summaryFor(level safety.RiskLevel) string {
	return bandSummaries[bandOf(level)]
}
