package export

import (
	"strconv"
	"strings"

	"house-inspect/internal/domain/port"
)

// Formatters возвращает все поддерживаемые форматы выгрузки
func Formatters(colorize bool) []port.ReportFormatter {
	return []port.ReportFormatter{
		NewHTMLFormatter(),
		NewJSONFormatter(),
		NewTextFormatter(colorize),
	}
}

// formatCost печатает сумму с разделителем тысяч: 12 500 ₽
func formatCost(cost int64) string {
	sign := ""
	if cost < 0 {
		sign = "-"
		cost = -cost
	}
	digits := strconv.FormatInt(cost, 10)

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + " ₽"
}

func percent(confidence float64) string {
	return strconv.Itoa(int(confidence*100+0.5)) + "%"
}
