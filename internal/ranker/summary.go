package ranker

import "github.com/ppiankov/a11yspectre/internal/models"

// Summary condenses one audit into counts for terminal output, the TUI
// header and policy checks.
type Summary struct {
	TotalViolations int                   `json:"total_violations"`
	AffectedNodes   int                   `json:"affected_nodes"`
	TotalScore      int                   `json:"total_score"`
	ByImpact        map[models.Impact]int `json:"by_impact"`
	Passes          int                   `json:"passes"`
	Incomplete      int                   `json:"incomplete"`
	HealthScore     string                `json:"health_score"`
	ScorePercent    float64               `json:"score_percent"`
}

// Summarize builds a Summary from ranked violations and the other buckets
// of the raw result.
func Summarize(ranked []models.RankedViolation, raw *models.RawAuditResult) Summary {
	s := Summary{
		TotalViolations: len(ranked),
		ByImpact:        make(map[models.Impact]int),
	}

	for _, v := range ranked {
		s.AffectedNodes += v.NumNodes
		s.TotalScore += v.SeverityScore
		s.ByImpact[v.ImpactOrUnknown()]++
	}

	if raw != nil {
		s.Passes = len(raw.Passes)
		s.Incomplete = len(raw.Incomplete)
	}

	s.HealthScore, s.ScorePercent = HealthScore(s.TotalViolations, s.TotalViolations+s.Passes)
	return s
}

// HealthScore grades the share of evaluated rules that passed.
func HealthScore(failedRules, totalRules int) (string, float64) {
	if totalRules == 0 {
		return "unknown", 0.0
	}

	score := float64(totalRules-failedRules) / float64(totalRules) * 100.0

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	var health string
	switch {
	case score >= 95:
		health = "excellent"
	case score >= 85:
		health = "good"
	case score >= 70:
		health = "warning"
	case score >= 50:
		health = "critical"
	default:
		health = "severe"
	}

	return health, score
}
