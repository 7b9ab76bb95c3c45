package models

import (
	"fmt"
	"strings"
)

// Impact is the severity category axe-core assigns to a rule result.
type Impact string

// Impact levels reported by axe-core. ImpactUnknown covers a missing or
// unrecognised value.
const (
	ImpactCritical Impact = "critical"
	ImpactSerious  Impact = "serious"
	ImpactModerate Impact = "moderate"
	ImpactMinor    Impact = "minor"
	ImpactUnknown  Impact = "unknown"
)

// Impacts lists the impact levels in descending order of severity.
var Impacts = []Impact{ImpactCritical, ImpactSerious, ImpactModerate, ImpactMinor, ImpactUnknown}

// Format is an output document type.
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ParseFormats turns user-supplied format names into a deduplicated list in
// canonical render order (html before pdf). Comma-separated values are
// accepted in each element.
func ParseFormats(values []string) ([]Format, error) {
	seen := make(map[Format]bool)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			name := strings.ToLower(strings.TrimSpace(part))
			if name == "" {
				continue
			}
			switch Format(name) {
			case FormatHTML, FormatPDF:
				seen[Format(name)] = true
			default:
				return nil, fmt.Errorf("unsupported format: %s (use html, pdf, or both)", name)
			}
		}
	}

	var formats []Format
	for _, f := range []Format{FormatHTML, FormatPDF} {
		if seen[f] {
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// FormatNames joins formats for display.
func FormatNames(formats []Format) string {
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}
