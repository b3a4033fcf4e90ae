package vision

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"math/rand/v2"

	"house-inspect/internal/domain/entity"
	"house-inspect/internal/domain/port"
)

// finding шаблон находки; область задаётся долями кадра
type finding struct {
	threshold   float64 // находка срабатывает, если случайное число больше порога
	category    entity.ProblemCategory
	confidence  float64
	box         [4]float64
	description string
	severity    entity.Severity
	suggestion  string
	cost        int64
}

var catalogue = []finding{
	{0.5, entity.CategoryWallDamage, 0.88, [4]float64{0.2, 0.3, 0.3, 0.2},
		"На стене обнаружены мелкие трещины", entity.SeverityModerate,
		"Заделать трещины шпаклёвкой, зашлифовать и перекрасить", 500},
	{0.7, entity.CategoryWaterDamage, 0.82, [4]float64{0.6, 0.5, 0.25, 0.3},
		"Обнаружены следы протечки", entity.SeverityHigh,
		"Найти и устранить источник протечки, просушить и восстановить отделку", 2000},
	{0.6, entity.CategoryMold, 0.79, [4]float64{0.1, 0.6, 0.2, 0.25},
		"В углу обнаружена плесень", entity.SeverityHigh,
		"Обработать профессиональным антисептиком, улучшить вентиляцию", 800},
	{0.75, entity.CategoryFurnitureWear, 0.86, [4]float64{0.4, 0.7, 0.3, 0.15},
		"Царапины на поверхности мебели", entity.SeverityMinor,
		"Использовать реставрационную пасту или перекрыть лаком", 300},
	{0.8, entity.CategoryPlumbingElectric, 0.80, [4]float64{0.7, 0.2, 0.15, 0.1},
		"Повреждён корпус розетки", entity.SeverityCritical,
		"Немедленно заменить розетку", 150},
	{0.85, entity.CategoryFlooring, 0.78, [4]float64{0.3, 0.8, 0.4, 0.15},
		"Потёртости на полу", entity.SeverityLow,
		"Натереть воском или отполировать покрытие", 600},
	{0.88, entity.CategoryPainting, 0.75, [4]float64{0.5, 0.1, 0.3, 0.2},
		"Отслаивается краска", entity.SeverityModerate,
		"Снять старую краску и перекрасить", 1200},
}

// darkThreshold средняя яркость, ниже которой кадр считается тёмным
const darkThreshold = 80

// SimulatedDetector детектор-заглушка для демонстраций: темнота определяется по кадру,
// остальные находки выпадают случайно. Случайность зависит только от seed и времени
// кадра, поэтому результат не зависит от порядка вызовов.
type SimulatedDetector struct {
	seed uint64
}

// NewSimulatedDetector создаёт детектор с заданным seed
func NewSimulatedDetector(seed int64) *SimulatedDetector {
	return &SimulatedDetector{seed: uint64(seed)}
}

func (d *SimulatedDetector) rolls(timestamp float64) []float64 {
	rnd := rand.New(rand.NewPCG(d.seed, math.Float64bits(timestamp)))
	rolls := make([]float64, len(catalogue))
	for i := range rolls {
		rolls[i] = rnd.Float64()
	}
	return rolls
}

// Detect возвращает находки для одного кадра
func (d *SimulatedDetector) Detect(ctx context.Context, frame entity.Frame) ([]entity.Problem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	width, height := frame.Width, frame.Height
	brightness, decoded := averageBrightness(frame.Image)
	if decoded.X > 0 && (width == 0 || height == 0) {
		width, height = decoded.X, decoded.Y
	}

	var problems []entity.Problem
	add := func(f finding, box entity.BoundingBox) {
		problems = append(problems, entity.Problem{
			ID:               entity.NewProblemID(frame.Timestamp, len(problems)),
			Category:         f.category,
			Description:      f.description,
			Severity:         f.severity,
			Confidence:       f.confidence,
			Location:         LocationDescription(box, width, height),
			Timestamp:        frame.Timestamp,
			BoundingBox:      &box,
			RepairSuggestion: f.suggestion,
			EstimatedCost:    f.cost,
		})
	}

	if decoded.X > 0 && brightness < darkThreshold {
		add(finding{
			category:    entity.CategoryLighting,
			confidence:  0.85,
			description: "Недостаточное освещение мешает визуальному осмотру",
			severity:    entity.SeverityLow,
			suggestion:  "Добавить светильники или использовать более яркий источник света",
			cost:        200,
		}, entity.BoundingBox{Width: float64(width), Height: float64(height)})
	}

	rolls := d.rolls(frame.Timestamp)
	w, h := float64(width), float64(height)
	for i, f := range catalogue {
		if rolls[i] <= f.threshold {
			continue
		}
		add(f, entity.BoundingBox{X: w * f.box[0], Y: h * f.box[1], Width: w * f.box[2], Height: h * f.box[3]})
	}

	return problems, nil
}

// averageBrightness средняя яркость (R+G+B)/3 по кадру с шагом выборки.
// Второе значение: размер кадра, нулевой если декодировать не удалось.
func averageBrightness(data []byte) (float64, image.Point) {
	if len(data) == 0 {
		return 0, image.Point{}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, image.Point{}
	}

	bounds := img.Bounds()
	step := max(1, min(bounds.Dx(), bounds.Dy())/64)

	var sum float64
	var n int
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, _ := img.At(x, y).RGBA()
			sum += float64(r>>8+g>>8+b>>8) / 3
			n++
		}
	}
	if n == 0 {
		return 0, image.Point{}
	}
	return sum / float64(n), bounds.Size()
}

var _ port.ProblemDetector = (*SimulatedDetector)(nil)
