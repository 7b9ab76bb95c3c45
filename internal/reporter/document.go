package reporter

import (
	"context"
	"embed"
	"html/template"
	"time"

	"github.com/ppiankov/a11yspectre/internal/models"
	"github.com/ppiankov/a11yspectre/internal/ranker"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// TimeLayout is how generation timestamps appear in rendered reports.
const TimeLayout = "2006-01-02 15:04:05 MST"

// Renderer produces one report format from a Document.
type Renderer interface {
	Format() models.Format
	RenderDocument(ctx context.Context, doc Document) ([]byte, error)
}

// Document is the model both report templates render.
type Document struct {
	URL           string
	GeneratedAt   time.Time
	PageTitle     string
	PageLang      string
	EngineVersion string

	// Violations are rendered in the given order; renderers never re-sort.
	Violations []models.RankedViolation
	Passes     []models.RuleResult
	Incomplete []models.RuleResult

	Summary      ranker.Summary
	ImpactCounts []ImpactCount
}

// ImpactCount is one non-zero entry of the by-impact breakdown.
type ImpactCount struct {
	Impact models.Impact
	Count  int
}

// NewDocument assembles a Document from one audit. raw may be nil.
func NewDocument(url string, generatedAt time.Time, raw *models.RawAuditResult, ranked []models.RankedViolation) Document {
	doc := Document{
		URL:         url,
		GeneratedAt: generatedAt,
		Violations:  ranked,
	}
	if raw != nil {
		doc.PageTitle = raw.PageTitle
		doc.PageLang = raw.PageLang
		doc.EngineVersion = raw.TestEngine.Version
		doc.Passes = raw.Passes
		doc.Incomplete = raw.Incomplete
	}
	doc.Summary = ranker.Summarize(ranked, raw)
	doc.ImpactCounts = impactCounts(doc.Summary)
	return doc
}

func impactCounts(s ranker.Summary) []ImpactCount {
	var counts []ImpactCount
	for _, impact := range models.Impacts {
		if n := s.ByImpact[impact]; n > 0 {
			counts = append(counts, ImpactCount{Impact: impact, Count: n})
		}
	}
	return counts
}

// parseTemplate loads an embedded template with timestamps shown in loc.
func parseTemplate(name string, loc *time.Location) (*template.Template, error) {
	if loc == nil {
		loc = time.Local
	}
	funcs := template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.In(loc).Format(TimeLayout)
		},
		"inc": func(i int) int {
			return i + 1
		},
	}
	return template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/"+name)
}
