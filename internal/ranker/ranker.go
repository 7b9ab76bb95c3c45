package ranker

import (
	"sort"

	"github.com/ppiankov/a11yspectre/internal/models"
)

// impactWeight maps an impact category to its ranking weight.
// Anything missing from the table weighs 1.
var impactWeight = map[models.Impact]int{
	models.ImpactCritical: 4,
	models.ImpactSerious:  3,
	models.ImpactModerate: 2,
	models.ImpactMinor:    1,
}

// Weight returns the ranking weight for an impact string.
func Weight(impact string) int {
	if w, ok := impactWeight[models.Impact(impact)]; ok {
		return w
	}
	return 1
}

// Rank scores each violation as weight × affected node count and sorts the
// result by score, highest first. Equal scores keep their input order.
// The input slice is not modified.
func Rank(violations []models.RuleResult) []models.RankedViolation {
	ranked := make([]models.RankedViolation, 0, len(violations))
	for _, v := range violations {
		numNodes := len(v.Nodes)
		ranked = append(ranked, models.RankedViolation{
			RuleResult:    v,
			NumNodes:      numNodes,
			SeverityScore: Weight(v.Impact) * numNodes,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].SeverityScore > ranked[j].SeverityScore
	})

	return ranked
}
