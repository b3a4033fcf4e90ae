package port

import (
	"context"

	"house-inspect/internal/domain/entity"
)

// ProblemDetector интерфейс покадрового детектора проблем
type ProblemDetector interface {
	// Detect анализирует один кадр и возвращает найденные на нём проблемы
	Detect(ctx context.Context, frame entity.Frame) ([]entity.Problem, error)
}
