package vision

import "house-inspect/internal/domain/entity"

// LocationDescription описывает положение области в кадре по третям.
func LocationDescription(box entity.BoundingBox, width, height int) string {
	if width <= 0 || height <= 0 {
		return "в кадре"
	}

	xPercent := box.X / float64(width) * 100
	yPercent := box.Y / float64(height) * 100

	horizontal := "слева"
	if xPercent > 33 && xPercent < 66 {
		horizontal = "по центру"
	} else if xPercent >= 66 {
		horizontal = "справа"
	}

	vertical := "вверху"
	if yPercent > 33 && yPercent < 66 {
		vertical = "в середине"
	} else if yPercent >= 66 {
		vertical = "внизу"
	}

	return vertical + " " + horizontal
}
