package export

import (
	"encoding/json"
	"fmt"

	"house-inspect/internal/domain/entity"
	"house-inspect/internal/domain/port"
)

// JSONFormatter выгружает отчёт целиком с отступом в два пробела
type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Format(report *entity.Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	return data, nil
}

func (f *JSONFormatter) Extension() string { return "json" }

func (f *JSONFormatter) ContentType() string { return "application/json" }

var _ port.ReportFormatter = (*JSONFormatter)(nil)
