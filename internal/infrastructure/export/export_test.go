package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"house-inspect/internal/domain/entity"
)

func sampleReport() *entity.Report {
	r := entity.NewReport("r-42", time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC), entity.PropertyApartment, "ул. Ленина, 1 <кв. 5>")
	r.AddProblems([]entity.Problem{
		{ID: "0-0", Category: entity.CategoryWallDamage, Description: "Трещина", Severity: entity.SeverityModerate,
			Confidence: 0.88, Location: "вверху слева", RepairSuggestion: "Зашпаклевать", EstimatedCost: 500},
		{ID: "0-1", Category: entity.CategoryMold, Description: "Плесень в углу", Severity: entity.SeverityHigh,
			Confidence: 0.79, Location: "внизу слева", RepairSuggestion: "Антисептик", EstimatedCost: 800},
		{ID: "1-0", Category: entity.CategoryWallDamage, Description: "Скол", Severity: entity.SeverityCritical,
			Confidence: 0.5, Location: "в середине по центру", RepairSuggestion: "Заменить", EstimatedCost: 11350},
	})
	return r
}

func TestFormatters(t *testing.T) {
	r := sampleReport()
	var names []string
	for _, f := range Formatters(false) {
		names = append(names, r.ExportFilename(f.Extension()))
	}
	require.Equal(t, []string{
		"inspection-report-r-42.html",
		"inspection-report-r-42.json",
		"inspection-report-r-42.txt",
	}, names)
}

func TestFormatCost(t *testing.T) {
	require.Equal(t, "0 ₽", formatCost(0))
	require.Equal(t, "500 ₽", formatCost(500))
	require.Equal(t, "12 500 ₽", formatCost(12500))
	require.Equal(t, "1 234 567 ₽", formatCost(1234567))
	require.Equal(t, "-1 000 ₽", formatCost(-1000))
}

func TestJSONFormatter_RoundTrip(t *testing.T) {
	r := sampleReport()
	data, err := NewJSONFormatter().Format(r)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "{\n  \"id\": \"r-42\""))

	var decoded entity.Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.True(t, r.CreatedAt.Equal(decoded.CreatedAt))
	require.Equal(t, r.Problems, decoded.Problems)
	require.Equal(t, r.Summary, decoded.Summary)
}

func TestHTMLFormatter_Format(t *testing.T) {
	f := NewHTMLFormatter()
	f.now = func() time.Time { return time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC) }

	data, err := f.Format(sampleReport())
	require.NoError(t, err)
	html := string(data)

	require.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	require.Contains(t, html, "<style>")
	require.Contains(t, html, "r-42")
	require.Contains(t, html, "Квартира")
	// Пользовательский ввод экранируется
	require.Contains(t, html, "&lt;кв. 5&gt;")
	require.NotContains(t, html, "<кв. 5>")

	require.Contains(t, html, "Повреждение стен<span class=\"category-count\">(2)</span>")
	require.Contains(t, html, "Плесень<span class=\"category-count\">(1)</span>")
	require.Contains(t, html, "Уверенность: 88%")
	require.Contains(t, html, "#dc2626")
	require.Contains(t, html, "12 650 ₽")
	// Категории идут в порядке первого появления
	require.Less(t, strings.Index(html, "Повреждение стен<span"), strings.Index(html, "Плесень<span"))
}

func TestHTMLFormatter_EmptyReport(t *testing.T) {
	r := entity.NewReport("empty", time.Now(), entity.PropertyOffice, "")
	data, err := NewHTMLFormatter().Format(r)
	require.NoError(t, err)
	require.Contains(t, string(data), "Проблем не обнаружено")
	require.NotContains(t, string(data), "Адрес")
}

func TestTextFormatter_Format(t *testing.T) {
	data, err := NewTextFormatter(false).Format(sampleReport())
	require.NoError(t, err)
	text := string(data)

	require.Contains(t, text, "Отчёт об осмотре r-42\n")
	require.Contains(t, text, "Оценка: 65/100")
	require.Contains(t, text, "Проблем: 3 (критических 1, высоких 1, средних 1, низких 0)")
	require.Contains(t, text, "Повреждение стен (2):")
	require.Contains(t, text, "[Критическая] Скол, в середине по центру (50%)")
	require.NotContains(t, text, "\x1b[")
}

func TestTextFormatter_Colorized(t *testing.T) {
	data, err := NewTextFormatter(true).Format(sampleReport())
	require.NoError(t, err)
	require.Contains(t, string(data), "\x1b[")
}
