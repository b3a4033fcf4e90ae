package port

import "house-inspect/internal/domain/entity"

// ReportFormatter интерфейс экспорта отчёта
type ReportFormatter interface {
	// Format рендерит отчёт в байты готового файла
	Format(report *entity.Report) ([]byte, error)

	// Extension расширение файла без точки
	Extension() string

	// ContentType MIME-тип результата
	ContentType() string
}
