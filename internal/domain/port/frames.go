package port

import (
	"context"
	"time"

	"house-inspect/internal/domain/entity"
)

// FrameExtractor извлекает кадры из видеофайла
type FrameExtractor interface {
	// ExtractFrames возвращает кадры, взятые с шагом interval, в порядке времени
	ExtractFrames(ctx context.Context, videoPath string, interval time.Duration) ([]entity.Frame, error)
}

// VideoRecorder записывает видео с камеры.
// Камера принадлежит одной сессии записи и должна быть освобождена через StopCamera на любом пути выхода.
type VideoRecorder interface {
	StartCamera(ctx context.Context) error
	StopCamera() error
	StartRecording(path string) error
	// StopRecording завершает запись и возвращает путь к файлу
	StopRecording() (string, error)
}
