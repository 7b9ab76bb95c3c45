package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ppiankov/a11yspectre/internal/models"
	"github.com/ppiankov/a11yspectre/internal/ranker"
	"gopkg.in/yaml.v3"
)

// FileNames are the policy file names searched for, in order.
var FileNames = []string{".a11yspectre-policy.yaml", ".a11yspectre-policy.yml"}

// Policy defines enforcement rules for check results.
type Policy struct {
	Version string `yaml:"version"`
	Rules   Rules  `yaml:"rules"`
}

// Rules contains all configurable policy rules.
type Rules struct {
	MaxViolations *int     `yaml:"max_violations,omitempty"`
	MaxCritical   *int     `yaml:"max_critical,omitempty"`
	MaxSerious    *int     `yaml:"max_serious,omitempty"`
	MinScore      *float64 `yaml:"min_score,omitempty"`
	ForbidRules   []string `yaml:"forbid_rules,omitempty"`
}

// Breach is a single policy failure.
type Breach struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Result holds the outcome of a policy check.
type Result struct {
	Pass     bool     `json:"pass"`
	Breaches []Breach `json:"breaches"`
}

// LoadFromFile reads a policy file. A missing file yields a nil policy.
func LoadFromFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read policy: %w", err)
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}

	return &p, nil
}

// FindPolicyFile searches dir and its parents for a policy file.
func FindPolicyFile(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}

	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Evaluate checks one audit's summary and ranked violations against the rules.
func (p *Policy) Evaluate(summary ranker.Summary, ranked []models.RankedViolation) *Result {
	if p == nil {
		return &Result{Pass: true}
	}

	var breaches []Breach

	// max_violations
	if p.Rules.MaxViolations != nil && summary.TotalViolations > *p.Rules.MaxViolations {
		breaches = append(breaches, Breach{
			Rule:    "max_violations",
			Message: fmt.Sprintf("violations %d exceed limit %d", summary.TotalViolations, *p.Rules.MaxViolations),
		})
	}

	// max_critical
	if p.Rules.MaxCritical != nil {
		count := summary.ByImpact[models.ImpactCritical]
		if count > *p.Rules.MaxCritical {
			breaches = append(breaches, Breach{
				Rule:    "max_critical",
				Message: fmt.Sprintf("critical violations %d exceed limit %d", count, *p.Rules.MaxCritical),
			})
		}
	}

	// max_serious
	if p.Rules.MaxSerious != nil {
		count := summary.ByImpact[models.ImpactSerious]
		if count > *p.Rules.MaxSerious {
			breaches = append(breaches, Breach{
				Rule:    "max_serious",
				Message: fmt.Sprintf("serious violations %d exceed limit %d", count, *p.Rules.MaxSerious),
			})
		}
	}

	// min_score
	if p.Rules.MinScore != nil && summary.ScorePercent < *p.Rules.MinScore {
		breaches = append(breaches, Breach{
			Rule:    "min_score",
			Message: fmt.Sprintf("score %.1f%% below minimum %.1f%%", summary.ScorePercent, *p.Rules.MinScore),
		})
	}

	// forbid_rules
	if len(p.Rules.ForbidRules) > 0 {
		forbidden := make(map[string]bool, len(p.Rules.ForbidRules))
		for _, id := range p.Rules.ForbidRules {
			forbidden[id] = true
		}
		var hits []string
		nodes := make(map[string]int)
		for _, v := range ranked {
			if forbidden[v.ID] {
				if _, seen := nodes[v.ID]; !seen {
					hits = append(hits, v.ID)
				}
				nodes[v.ID] += v.NumNodes
			}
		}
		sort.Strings(hits)
		for _, id := range hits {
			breaches = append(breaches, Breach{
				Rule:    "forbid_rules",
				Message: fmt.Sprintf("forbidden rule %q fails on %d elements", id, nodes[id]),
			})
		}
	}

	return &Result{
		Pass:     len(breaches) == 0,
		Breaches: breaches,
	}
}
