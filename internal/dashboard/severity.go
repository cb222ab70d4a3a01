package dashboard

import "vulnboard/internal/fixtures"

// NeutralColor is used for severities outside the known set.
const NeutralColor = "#6b7280"

var severityColors = map[fixtures.Severity]string{
	fixtures.SeverityCritical: "#dc2626",
	fixtures.SeverityHigh:     "#ea580c",
	fixtures.SeverityMedium:   "#ca8a04",
	fixtures.SeverityLow:      "#16a34a",
}

// SeverityColor maps a severity to its hex colour.
func SeverityColor(s fixtures.Severity) string {
	if c, ok := severityColors[s]; ok {
		return c
	}
	return NeutralColor
}
