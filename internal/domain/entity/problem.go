package entity

import (
	"strconv"
)

// ProblemCategory категория проблемы в помещении
type ProblemCategory string

const (
	CategoryWallDamage       ProblemCategory = "wall_damage"
	CategoryFurnitureWear    ProblemCategory = "furniture_wear"
	CategoryPlumbingElectric ProblemCategory = "plumbing_electric"
	CategoryFlooring         ProblemCategory = "flooring"
	CategoryCeiling          ProblemCategory = "ceiling"
	CategoryWindowDoor       ProblemCategory = "window_door"
	CategoryBathroom         ProblemCategory = "bathroom"
	CategoryKitchen          ProblemCategory = "kitchen"
	CategoryLighting         ProblemCategory = "lighting"
	CategoryPainting         ProblemCategory = "painting"
	CategoryMold             ProblemCategory = "mold"
	CategoryWaterDamage      ProblemCategory = "water_damage"
	CategoryPestInfestation  ProblemCategory = "pest_infestation"
	CategorySafetyHazard     ProblemCategory = "safety_hazard"
	CategoryOther            ProblemCategory = "other"
)

// Categories перечисляет все категории в порядке отображения
var Categories = []ProblemCategory{
	CategoryWallDamage,
	CategoryFurnitureWear,
	CategoryPlumbingElectric,
	CategoryFlooring,
	CategoryCeiling,
	CategoryWindowDoor,
	CategoryBathroom,
	CategoryKitchen,
	CategoryLighting,
	CategoryPainting,
	CategoryMold,
	CategoryWaterDamage,
	CategoryPestInfestation,
	CategorySafetyHazard,
	CategoryOther,
}

var categoryLabels = map[ProblemCategory]string{
	CategoryWallDamage:       "Повреждение стен",
	CategoryFurnitureWear:    "Износ мебели",
	CategoryPlumbingElectric: "Сантехника и электрика",
	CategoryFlooring:         "Напольное покрытие",
	CategoryCeiling:          "Потолок",
	CategoryWindowDoor:       "Окна и двери",
	CategoryBathroom:         "Санузел",
	CategoryKitchen:          "Кухня",
	CategoryLighting:         "Освещение",
	CategoryPainting:         "Покраска",
	CategoryMold:             "Плесень",
	CategoryWaterDamage:      "Следы протечек",
	CategoryPestInfestation:  "Вредители",
	CategorySafetyHazard:     "Угроза безопасности",
	CategoryOther:            "Прочее",
}

// IsValid проверяет, что категория известна
func (c ProblemCategory) IsValid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label возвращает человекочитаемое название категории
func (c ProblemCategory) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Severity уровень серьёзности проблемы от 1 до 5
type Severity int

const (
	SeverityMinor    Severity = 1
	SeverityLow      Severity = 2
	SeverityModerate Severity = 3
	SeverityHigh     Severity = 4
	SeverityCritical Severity = 5
)

// IsValid проверяет, что уровень лежит в диапазоне 1..5
func (s Severity) IsValid() bool {
	return s >= SeverityMinor && s <= SeverityCritical
}

// Label возвращает название уровня
func (s Severity) Label() string {
	switch s {
	case SeverityMinor:
		return "Незначительная"
	case SeverityLow:
		return "Низкая"
	case SeverityModerate:
		return "Средняя"
	case SeverityHigh:
		return "Высокая"
	case SeverityCritical:
		return "Критическая"
	}
	return "Неизвестно"
}

// Problem одна обнаруженная проблема
type Problem struct {
	ID               string          `json:"id"`
	Category         ProblemCategory `json:"category"`
	Description      string          `json:"description"`
	Severity         Severity        `json:"severity"`
	Confidence       float64         `json:"confidence"`
	Location         string          `json:"location"`
	Timestamp        float64         `json:"timestamp"`
	BoundingBox      *BoundingBox    `json:"boundingBox,omitempty"`
	RepairSuggestion string          `json:"repairSuggestion"`
	EstimatedCost    int64           `json:"estimatedCost"`
}

// DedupKey ключ, по которому повторные находки одной проблемы склеиваются между кадрами.
func (p Problem) DedupKey() string {
	return string(p.Category) + "|" + p.Description
}

// NewProblemID формирует идентификатор проблемы из времени кадра и номера находки в нём.
func NewProblemID(timestamp float64, index int) string {
	return strconv.FormatFloat(timestamp, 'f', -1, 64) + "-" + strconv.Itoa(index)
}

// Frame один кадр видео
type Frame struct {
	Image     []byte  // JPEG
	Width     int     // ширина в пикселях
	Height    int     // высота в пикселях
	Timestamp float64 // секунды от начала видео
}
