//go:build !gocv
// +build !gocv

package vision

import (
	"context"

	"house-inspect/internal/domain/entity"
	"house-inspect/internal/domain/port"
)

type GoCVDetector struct{}

// NewGoCVDetector создаёт детектор-заглушку (без OpenCV).
func NewGoCVDetector() *GoCVDetector {
	return &GoCVDetector{}
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *GoCVDetector) Detect(ctx context.Context, frame entity.Frame) ([]entity.Problem, error) {
	_ = ctx
	_ = frame
	return nil, ErrGoCVDisabled
}

var _ port.ProblemDetector = (*GoCVDetector)(nil)
