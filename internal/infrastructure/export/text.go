package export

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"house-inspect/internal/domain/entity"
	"house-inspect/internal/domain/port"
)

// TextFormatter краткий отчёт для терминала и чата
type TextFormatter struct {
	colorize bool
}

func NewTextFormatter(colorize bool) *TextFormatter {
	return &TextFormatter{colorize: colorize}
}

func (f *TextFormatter) Format(report *entity.Report) ([]byte, error) {
	var output strings.Builder

	output.WriteString(f.paint(fmt.Sprintf("Отчёт об осмотре %s\n", report.ID), color.FgCyan, color.Bold))
	output.WriteString(fmt.Sprintf("Объект: %s\n", report.PropertyType.Label()))
	if report.Address != "" {
		output.WriteString(fmt.Sprintf("Адрес: %s\n", report.Address))
	}
	output.WriteString(fmt.Sprintf("Дата: %s\n\n", report.CreatedAt.Local().Format("02.01.2006 15:04")))

	s := report.Summary
	output.WriteString(f.paint("Итог:\n", color.FgYellow, color.Bold))
	output.WriteString(fmt.Sprintf("  Оценка: %d/100\n", s.OverallScore))
	output.WriteString(fmt.Sprintf("  Проблем: %d (критических %d, высоких %d, средних %d, низких %d)\n",
		s.TotalProblems, s.CriticalCount, s.HighCount, s.ModerateCount, s.LowCount))
	output.WriteString(fmt.Sprintf("  Стоимость ремонта: %s\n", formatCost(s.TotalEstimatedCost)))

	if len(report.Problems) == 0 {
		output.WriteString("\n")
		output.WriteString(f.paint("Проблем не обнаружено\n", color.FgGreen, color.Bold))
		return []byte(output.String()), nil
	}

	for _, group := range report.ProblemsByCategory() {
		output.WriteString("\n")
		output.WriteString(f.paint(fmt.Sprintf("%s (%d):\n", group.Category.Label(), len(group.Problems)), color.Bold))
		for _, p := range group.Problems {
			severity := fmt.Sprintf("[%s]", p.Severity.Label())
			if c := terminalSeverityColor(p.Severity); f.colorize && c != nil {
				severity = c.Sprint(severity)
			}
			output.WriteString(fmt.Sprintf("  %s %s, %s (%s)\n", severity, p.Description, p.Location, percent(p.Confidence)))
			output.WriteString(fmt.Sprintf("    Рекомендация: %s\n", p.RepairSuggestion))
			output.WriteString(fmt.Sprintf("    Стоимость: %s\n", formatCost(p.EstimatedCost)))
		}
	}

	return []byte(output.String()), nil
}

func (f *TextFormatter) Extension() string { return "txt" }

func (f *TextFormatter) ContentType() string { return "text/plain; charset=utf-8" }

func (f *TextFormatter) paint(s string, attrs ...color.Attribute) string {
	if !f.colorize {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

func terminalSeverityColor(severity entity.Severity) *color.Color {
	var c *color.Color
	switch severity {
	case entity.SeverityCritical:
		c = color.New(color.FgRed, color.Bold)
	case entity.SeverityHigh:
		c = color.New(color.FgRed)
	case entity.SeverityModerate:
		c = color.New(color.FgYellow)
	case entity.SeverityLow, entity.SeverityMinor:
		c = color.New(color.FgBlue)
	default:
		return nil
	}
	c.EnableColor()
	return c
}

var _ port.ReportFormatter = (*TextFormatter)(nil)
