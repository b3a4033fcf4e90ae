package vision

// Параметры улучшения кадров при извлечении
const (
	EnhanceContrast   = 1.2
	EnhanceBrightness = 1.05
)

// enhanceParams переводит контраст и яркость в линейное преобразование v*alpha + beta.
// Контраст растягивает значения относительно середины диапазона 128, яркость масштабирует результат.
func enhanceParams(contrast, brightness float64) (alpha, beta float64) {
	alpha = contrast * brightness
	beta = 128 * (1 - contrast) * brightness
	return alpha, beta
}
