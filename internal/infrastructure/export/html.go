package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"house-inspect/internal/domain/entity"
	"house-inspect/internal/domain/port"
)

//go:embed templates/report.html.tmpl
var templatesFS embed.FS

var reportTemplate = template.Must(template.ParseFS(templatesFS, "templates/report.html.tmpl"))

var severityColors = map[entity.Severity]string{
	entity.SeverityMinor:    "#10b981",
	entity.SeverityLow:      "#f59e0b",
	entity.SeverityModerate: "#f97316",
	entity.SeverityHigh:     "#ef4444",
	entity.SeverityCritical: "#dc2626",
}

// HTMLFormatter рендерит автономный HTML-документ со встроенными стилями
type HTMLFormatter struct {
	now func() time.Time
}

func NewHTMLFormatter() *HTMLFormatter {
	return &HTMLFormatter{now: time.Now}
}

type htmlProblem struct {
	Description string
	Confidence  string
	Severity    string
	Color       string
	Location    string
	Suggestion  string
	Cost        string
}

type htmlGroup struct {
	Label    string
	Problems []htmlProblem
}

type htmlReport struct {
	ID           string
	Date         string
	Time         string
	PropertyType string
	Address      string
	Summary      entity.ReportSummary
	Groups       []htmlGroup
	TotalCost    string
	GeneratedAt  string
}

func (f *HTMLFormatter) Format(report *entity.Report) ([]byte, error) {
	data := htmlReport{
		ID:           report.ID,
		Date:         report.CreatedAt.Local().Format("02.01.2006"),
		Time:         report.CreatedAt.Local().Format("15:04:05"),
		PropertyType: report.PropertyType.Label(),
		Address:      report.Address,
		Summary:      report.Summary,
		TotalCost:    formatCost(report.Summary.TotalEstimatedCost),
		GeneratedAt:  f.now().Local().Format("02.01.2006 15:04:05"),
	}

	for _, group := range report.ProblemsByCategory() {
		g := htmlGroup{Label: group.Category.Label()}
		for _, p := range group.Problems {
			g.Problems = append(g.Problems, htmlProblem{
				Description: p.Description,
				Confidence:  percent(p.Confidence),
				Severity:    p.Severity.Label(),
				Color:       severityColor(p.Severity),
				Location:    p.Location,
				Suggestion:  p.RepairSuggestion,
				Cost:        formatCost(p.EstimatedCost),
			})
		}
		data.Groups = append(data.Groups, g)
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render HTML report: %w", err)
	}
	return buf.Bytes(), nil
}

func (f *HTMLFormatter) Extension() string { return "html" }

func (f *HTMLFormatter) ContentType() string { return "text/html; charset=utf-8" }

func severityColor(s entity.Severity) string {
	if c, ok := severityColors[s]; ok {
		return c
	}
	return "#64748b"
}

var _ port.ReportFormatter = (*HTMLFormatter)(nil)
