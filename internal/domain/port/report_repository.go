package port

import (
	"context"
	"errors"

	"house-inspect/internal/domain/entity"
)

// ErrReportNotFound возвращается, если отчёта с таким ID нет.
var ErrReportNotFound = errors.New("report not found")

// ReportRepository коллекция сохранённых отчётов
type ReportRepository interface {
	// Save вставляет отчёт или заменяет существующий с тем же ID
	Save(ctx context.Context, report *entity.Report) error

	// Get возвращает отчёт или ErrReportNotFound
	Get(ctx context.Context, id string) (*entity.Report, error)

	// List возвращает все отчёты, новые первыми
	List(ctx context.Context) ([]*entity.Report, error)

	// Delete удаляет отчёт
	Delete(ctx context.Context, id string) error
}

// BlobStore хранилище бинарных данных (видео)
type BlobStore interface {
	StoreBlob(ctx context.Context, key string, data []byte) error
	GetBlob(ctx context.Context, key string) ([]byte, bool, error)
	RemoveItem(ctx context.Context, key string) error
}

// VideoBlobKey ключ видео, из которого построен отчёт
func VideoBlobKey(reportID string) string {
	return "video_" + reportID
}
