package reporter

import (
	"encoding/json"
	"time"

	"github.com/ppiankov/a11yspectre/internal/models"
	"github.com/ppiankov/a11yspectre/internal/ranker"
)

var sampleTime = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func node(selector, html string) models.NodeResult {
	target, _ := json.Marshal([]string{selector})
	return models.NodeResult{HTML: html, Target: target, FailureSummary: "Fix this"}
}

func sampleAudit() *models.RawAuditResult {
	return &models.RawAuditResult{
		URL:        "https://example.com",
		Timestamp:  sampleTime,
		TestEngine: models.TestEngine{Name: "axe-core", Version: "4.8.2"},
		Violations: []models.RuleResult{
			{ID: "region", Impact: "moderate", Help: "Content in landmarks", Nodes: []models.NodeResult{node("div.main", "<div class=\"main\">")}},
			{ID: "color-contrast", Impact: "serious", Help: "Contrast", Nodes: []models.NodeResult{node("p", "<p>"), node("span", "<span>")}},
			{ID: "image-alt", Impact: "critical", Help: "Images need alt", HelpURL: "https://dequeuniversity.com/rules/axe/4.8/image-alt", Nodes: []models.NodeResult{node("img", "<img src=\"a.png\">")}},
		},
		Passes:     []models.RuleResult{{ID: "document-title"}, {ID: "html-has-lang"}},
		Incomplete: []models.RuleResult{{ID: "aria-valid-attr-value"}},
		PageTitle:  "Example Domain",
		PageLang:   "en",
	}
}

func sampleDocument() Document {
	raw := sampleAudit()
	return NewDocument(raw.URL, sampleTime, raw, ranker.Rank(raw.Violations))
}

func sampleResult() *CheckResult {
	raw := sampleAudit()
	ranked := ranker.Rank(raw.Violations)
	summary := ranker.Summarize(ranked, raw)
	return &CheckResult{
		URL:           raw.URL,
		Status:        StatusOK,
		GeneratedAt:   sampleTime,
		PageTitle:     raw.PageTitle,
		EngineVersion: raw.TestEngine.Version,
		Summary:       &summary,
		Violations:    ranked,
		Artifacts: []models.ReportArtifact{
			{URL: raw.URL, GeneratedAt: sampleTime, Format: models.FormatHTML, Path: "reports/report_20240501_093000.html"},
		},
	}
}
