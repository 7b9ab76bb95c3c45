package models

import (
	"encoding/json"
	"time"

	"github.com/tidwall/gjson"
)

// NodeResult is one DOM node a rule was evaluated against.
// Target is kept raw because axe-core nests selector arrays for shadow DOM
// and iframe targets.
type NodeResult struct {
	HTML           string          `json:"html"`
	Target         json.RawMessage `json:"target,omitempty"`
	FailureSummary string          `json:"failureSummary,omitempty"`
	Impact         string          `json:"impact,omitempty"`
}

// Selectors flattens the node target into printable selector strings.
func (n NodeResult) Selectors() []string {
	if len(n.Target) == 0 {
		return nil
	}
	parsed := gjson.ParseBytes(n.Target)
	if !parsed.IsArray() {
		return []string{parsed.String()}
	}
	var out []string
	for _, item := range parsed.Array() {
		out = append(out, item.String())
	}
	return out
}

// RuleResult is one axe-core rule outcome.
type RuleResult struct {
	ID          string       `json:"id"`
	Impact      string       `json:"impact"` // nullable in axe output; empty means unknown
	Description string       `json:"description,omitempty"`
	Help        string       `json:"help,omitempty"`
	HelpURL     string       `json:"helpUrl,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Nodes       []NodeResult `json:"nodes"`
}

// ImpactOrUnknown returns the rule impact, mapping absence to ImpactUnknown.
func (r RuleResult) ImpactOrUnknown() Impact {
	if r.Impact == "" {
		return ImpactUnknown
	}
	return Impact(r.Impact)
}

// TestEngine identifies the rule engine build that produced a result.
type TestEngine struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// RawAuditResult is the scanner output for one page load.
type RawAuditResult struct {
	URL          string       `json:"url"`
	Timestamp    time.Time    `json:"timestamp"`
	TestEngine   TestEngine   `json:"testEngine"`
	Violations   []RuleResult `json:"violations"`
	Passes       []RuleResult `json:"passes"`
	Incomplete   []RuleResult `json:"incomplete"`
	Inapplicable []RuleResult `json:"inapplicable,omitempty"`

	// Populated from the loaded DOM, not from axe-core.
	PageTitle string `json:"-"`
	PageLang  string `json:"-"`
}

// BrokenRules is the number of rules that failed on the page.
func (r *RawAuditResult) BrokenRules() int {
	if r == nil {
		return 0
	}
	return len(r.Violations)
}

// RankedViolation is a violation with its derived ranking fields.
// Derived fields are recomputed on every run and never persisted.
type RankedViolation struct {
	RuleResult
	NumNodes      int `json:"num_nodes"`
	SeverityScore int `json:"severity_score"`
}
