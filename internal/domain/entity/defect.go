package entity

// BoundingBox область кадра, в которой найдена проблема
type BoundingBox struct {
	X      float64 `json:"x"`      // координата X левого верхнего угла
	Y      float64 `json:"y"`      // координата Y левого верхнего угла
	Width  float64 `json:"width"`  // ширина области в пикселях
	Height float64 `json:"height"` // высота области в пикселях
}

// Area возвращает площадь области; у рамки с неположительной стороной она нулевая
func (b BoundingBox) Area() float64 {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}
