package entity

import (
	"errors"
	"time"
)

// ErrProblemNotFound возвращается при удалении отсутствующей проблемы.
var ErrProblemNotFound = errors.New("problem not found")

// PropertyType тип осматриваемого объекта
type PropertyType string

const (
	PropertyApartment  PropertyType = "apartment"
	PropertyHouse      PropertyType = "house"
	PropertyVilla      PropertyType = "villa"
	PropertyOffice     PropertyType = "office"
	PropertyCommercial PropertyType = "commercial"
)

// PropertyTypes перечисляет типы объектов в порядке показа пользователю
var PropertyTypes = []PropertyType{
	PropertyApartment,
	PropertyHouse,
	PropertyVilla,
	PropertyOffice,
	PropertyCommercial,
}

// IsValid проверяет, что тип объекта известен
func (t PropertyType) IsValid() bool {
	switch t {
	case PropertyApartment, PropertyHouse, PropertyVilla, PropertyOffice, PropertyCommercial:
		return true
	}
	return false
}

// Label возвращает название типа объекта
func (t PropertyType) Label() string {
	switch t {
	case PropertyApartment:
		return "Квартира"
	case PropertyHouse:
		return "Частный дом"
	case PropertyVilla:
		return "Вилла"
	case PropertyOffice:
		return "Офис"
	case PropertyCommercial:
		return "Коммерческое помещение"
	}
	return string(t)
}

// ReportSummary сводка по списку проблем
type ReportSummary struct {
	TotalProblems      int   `json:"totalProblems"`
	CriticalCount      int   `json:"criticalCount"`
	HighCount          int   `json:"highCount"`
	ModerateCount      int   `json:"moderateCount"`
	LowCount           int   `json:"lowCount"`
	TotalEstimatedCost int64 `json:"totalEstimatedCost"`
	OverallScore       int   `json:"overallScore"`
}

// Summarize считает сводку по списку проблем.
// Уровни 2 и 1 попадают в одну корзину LowCount.
func Summarize(problems []Problem) ReportSummary {
	var s ReportSummary
	for _, p := range problems {
		s.TotalEstimatedCost += p.EstimatedCost
		switch p.Severity {
		case SeverityCritical:
			s.CriticalCount++
		case SeverityHigh:
			s.HighCount++
		case SeverityModerate:
			s.ModerateCount++
		case SeverityLow, SeverityMinor:
			s.LowCount++
		}
	}
	s.TotalProblems = len(problems)

	points := s.CriticalCount*20 + s.HighCount*10 + s.ModerateCount*5 + s.LowCount*2
	s.OverallScore = clamp(100-points, 0, 100)
	return s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Report отчёт об осмотре одного объекта.
//
// CreatedAt сериализуется в JSON как строка RFC 3339, поэтому после
// обратного разбора сравнивать его нужно через time.Time.Equal.
type Report struct {
	ID           string        `json:"id"`
	CreatedAt    time.Time     `json:"createdAt"`
	PropertyType PropertyType  `json:"propertyType"`
	Address      string        `json:"address,omitempty"`
	Problems     []Problem     `json:"problems"`
	Summary      ReportSummary `json:"summary"`
}

// NewReport создаёт пустой отчёт со сводкой по нулевому списку
func NewReport(id string, createdAt time.Time, propertyType PropertyType, address string) *Report {
	r := &Report{
		ID:           id,
		CreatedAt:    createdAt,
		PropertyType: propertyType,
		Address:      address,
		Problems:     []Problem{},
	}
	r.recompute()
	return r
}

// AddProblem добавляет проблему в конец списка
func (r *Report) AddProblem(p Problem) {
	r.Problems = append(r.Problems, p)
	r.recompute()
}

// AddProblems добавляет несколько проблем
func (r *Report) AddProblems(problems []Problem) {
	r.Problems = append(r.Problems, problems...)
	r.recompute()
}

// SetProblems заменяет список проблем целиком
func (r *Report) SetProblems(problems []Problem) {
	r.Problems = append(make([]Problem, 0, len(problems)), problems...)
	r.recompute()
}

// RemoveProblem удаляет проблему по идентификатору
func (r *Report) RemoveProblem(id string) error {
	kept := make([]Problem, 0, len(r.Problems))
	for _, p := range r.Problems {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(r.Problems) {
		return ErrProblemNotFound
	}
	r.Problems = kept
	r.recompute()
	return nil
}

func (r *Report) recompute() {
	r.Summary = Summarize(r.Problems)
}

// CategoryGroup проблемы одной категории
type CategoryGroup struct {
	Category ProblemCategory
	Problems []Problem
}

// ProblemsByCategory группирует проблемы по категориям в порядке первого появления.
func (r *Report) ProblemsByCategory() []CategoryGroup {
	index := make(map[ProblemCategory]int)
	var groups []CategoryGroup
	for _, p := range r.Problems {
		i, ok := index[p.Category]
		if !ok {
			i = len(groups)
			index[p.Category] = i
			groups = append(groups, CategoryGroup{Category: p.Category})
		}
		groups[i].Problems = append(groups[i].Problems, p)
	}
	return groups
}

// ExportFilename имя файла выгрузки отчёта
func (r *Report) ExportFilename(ext string) string {
	return "inspection-report-" + r.ID + "." + ext
}
