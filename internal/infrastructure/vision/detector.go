//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"image"

	"gocv.io/x/gocv"

	"house-inspect/internal/domain/entity"
	"house-inspect/internal/domain/port"
)

// GoCVDetector эвристический детектор на OpenCV: трещины по контурам Canny,
// тёмные пятна по порогу яркости, плохое освещение по доле тёмных и засвеченных пикселей.
type GoCVDetector struct {
	MinAreaRatio         float64
	CrackAspectRatio     float64
	MaxSide              int
	MaxUnderexposedRatio float64
	MaxGlareRatio        float64
	StainThreshold       float32
}

// NewGoCVDetector создаёт детектор с порогами по умолчанию.
func NewGoCVDetector() *GoCVDetector {
	return &GoCVDetector{
		MinAreaRatio:         0.001,
		CrackAspectRatio:     6.0,
		MaxSide:              1024,
		MaxUnderexposedRatio: 0.45,
		MaxGlareRatio:        0.08,
		StainThreshold:       60,
	}
}

// Detect анализирует кадр и возвращает найденные проблемы.
func (d *GoCVDetector) Detect(ctx context.Context, frame entity.Frame) ([]entity.Problem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := decodeToMat(frame.Image)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	// Приводим изображение к стандартному размеру для стабильных порогов.
	scale := 1.0
	if mat.Cols() > d.MaxSide || mat.Rows() > d.MaxSide {
		scale = float64(d.MaxSide) / float64(max(mat.Cols(), mat.Rows()))
		resized := gocv.NewMat()
		gocv.Resize(mat, &resized, image.Pt(int(float64(mat.Cols())*scale), int(float64(mat.Rows())*scale)), 0, 0, gocv.InterpolationArea)
		mat.Close()
		mat = resized
	}

	width, height := mat.Cols(), mat.Rows()
	var problems []entity.Problem
	add := func(category entity.ProblemCategory, rect image.Rectangle, confidence float64, description, suggestion string, severity entity.Severity, cost int64) {
		// Координаты возвращаем в масштабе исходного кадра
		box := entity.BoundingBox{
			X:      float64(rect.Min.X) / scale,
			Y:      float64(rect.Min.Y) / scale,
			Width:  float64(rect.Dx()) / scale,
			Height: float64(rect.Dy()) / scale,
		}
		problems = append(problems, entity.Problem{
			ID:               entity.NewProblemID(frame.Timestamp, len(problems)),
			Category:         category,
			Description:      description,
			Severity:         severity,
			Confidence:       confidence,
			Location:         LocationDescription(box, int(float64(width)/scale), int(float64(height)/scale)),
			Timestamp:        frame.Timestamp,
			BoundingBox:      &box,
			RepairSuggestion: suggestion,
			EstimatedCost:    cost,
		})
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	full := image.Rect(0, 0, width, height)

	dark := gocv.NewMat()
	defer dark.Close()
	gocv.Threshold(gray, &dark, 20, 255, gocv.ThresholdBinaryInv)
	if ratio := ratioOfMask(dark); ratio > d.MaxUnderexposedRatio {
		add(entity.CategoryLighting, full, min(0.5+ratio/2, 0.95),
			"Недостаточное освещение мешает визуальному осмотру",
			"Добавить светильники или использовать более яркий источник света",
			entity.SeverityLow, 200)
		// На тёмном кадре контуры и пятна дают ложные срабатывания
		return problems, nil
	}

	if ratio := d.glareRatio(mat); ratio > d.MaxGlareRatio {
		add(entity.CategoryLighting, full, min(0.5+ratio, 0.9),
			"Сильные блики и засветка на кадре",
			"Снять повторно без прямого источника света в кадре",
			entity.SeverityMinor, 0)
	}

	blur := gocv.NewMat()
	defer blur.Close()
	gocv.GaussianBlur(gray, &blur, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	minArea := int(float64(width*height) * d.MinAreaRatio)

	if rect, ok := d.findCrack(blur, minArea); ok {
		add(entity.CategoryWallDamage, rect, 0.7,
			"На стене обнаружены трещины",
			"Заделать трещины шпаклёвкой, зашлифовать и перекрасить",
			entity.SeverityModerate, 500)
	}

	if rect, ok := d.findStain(blur, minArea); ok {
		add(entity.CategoryMold, rect, 0.6,
			"Тёмные пятна, похожие на плесень",
			"Обработать профессиональным антисептиком, улучшить вентиляцию",
			entity.SeverityHigh, 800)
	}

	return problems, nil
}

// findCrack возвращает самый крупный вытянутый контур.
func (d *GoCVDetector) findCrack(blur gocv.Mat, minArea int) (image.Rectangle, bool) {
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blur, &edges, 50, 150)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var best image.Rectangle
	for i := 0; i < contours.Size(); i++ {
		rect := gocv.BoundingRect(contours.At(i))
		if rect.Dx()*rect.Dy() < minArea || rect.Dx() == 0 || rect.Dy() == 0 {
			continue
		}
		long, short := float64(max(rect.Dx(), rect.Dy())), float64(min(rect.Dx(), rect.Dy()))
		if long/short < d.CrackAspectRatio {
			continue
		}
		if rect.Dx()*rect.Dy() > best.Dx()*best.Dy() {
			best = rect
		}
	}
	return best, !best.Empty()
}

// findStain возвращает самое крупное компактное тёмное пятно.
func (d *GoCVDetector) findStain(blur gocv.Mat, minArea int) (image.Rectangle, bool) {
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(blur, &mask, d.StainThreshold, 255, gocv.ThresholdBinaryInv)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	total := blur.Cols() * blur.Rows()
	var best image.Rectangle
	for i := 0; i < contours.Size(); i++ {
		rect := gocv.BoundingRect(contours.At(i))
		area := rect.Dx() * rect.Dy()
		// Пятно во весь кадр это тень, а не дефект
		if area < minArea || area > total/4 || rect.Dy() == 0 {
			continue
		}
		aspect := float64(rect.Dx()) / float64(rect.Dy())
		if aspect < 0.3 || aspect > 3 {
			continue
		}
		if area > best.Dx()*best.Dy() {
			best = rect
		}
	}
	return best, !best.Empty()
}

func (d *GoCVDetector) glareRatio(mat gocv.Mat) float64 {
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(mat, &hsv, gocv.ColorBGRToHSV)
	channels := gocv.Split(hsv)
	for i := range channels {
		defer channels[i].Close()
	}
	if len(channels) < 3 {
		return 0
	}

	lowSat := gocv.NewMat()
	defer lowSat.Close()
	gocv.Threshold(channels[1], &lowSat, 40, 255, gocv.ThresholdBinaryInv)

	highVal := gocv.NewMat()
	defer highVal.Close()
	gocv.Threshold(channels[2], &highVal, 245, 255, gocv.ThresholdBinary)

	glare := gocv.NewMat()
	defer glare.Close()
	gocv.BitwiseAnd(lowSat, highVal, &glare)
	return ratioOfMask(glare)
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}

func ratioOfMask(mask gocv.Mat) float64 {
	total := mask.Cols() * mask.Rows()
	if total <= 0 {
		return 0
	}
	return float64(gocv.CountNonZero(mask)) / float64(total)
}

var _ port.ProblemDetector = (*GoCVDetector)(nil)
