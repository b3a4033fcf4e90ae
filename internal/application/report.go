package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"house-inspect/internal/domain/entity"
	"house-inspect/internal/domain/port"
	"house-inspect/internal/logger"
)

var (
	ErrReportNotFound = port.ErrReportNotFound
	// ErrUnsupportedFormat запрошен формат, для которого нет форматтера
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// Export готовый файл выгрузки
type Export struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ReportService операции над сохранёнными отчётами
type ReportService struct {
	repo       port.ReportRepository
	formatters map[string]port.ReportFormatter
	log        *logger.Logger
}

func NewReportService(repo port.ReportRepository, log *logger.Logger, formatters ...port.ReportFormatter) *ReportService {
	if log == nil {
		log = logger.Nop()
	}
	byExt := make(map[string]port.ReportFormatter, len(formatters))
	for _, f := range formatters {
		byExt[f.Extension()] = f
	}
	return &ReportService{
		repo:       repo,
		formatters: byExt,
		log:        log.WithComponent("reports"),
	}
}

func (s *ReportService) Get(ctx context.Context, id string) (*entity.Report, error) {
	return s.repo.Get(ctx, id)
}

// List возвращает отчёты, новые первыми
func (s *ReportService) List(ctx context.Context) ([]*entity.Report, error) {
	return s.repo.List(ctx)
}

// Save вставляет или заменяет отчёт
func (s *ReportService) Save(ctx context.Context, report *entity.Report) error {
	return s.repo.Save(ctx, report)
}

// Delete удаляет отчёт вместе с исходным видео
func (s *ReportService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithContext(logger.WithReportID(ctx, id)).Info("report deleted")
	return nil
}

// RemoveProblem удаляет проблему из отчёта и пересчитывает сводку
func (s *ReportService) RemoveProblem(ctx context.Context, reportID, problemID string) (*entity.Report, error) {
	report, err := s.repo.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := report.RemoveProblem(problemID); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// Export рендерит отчёт в указанный формат (html, json, txt)
func (s *ReportService) Export(ctx context.Context, id, format string) (*Export, error) {
	if format == "" {
		format = "html"
	}
	f, ok := s.formatters[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	report, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return Render(report, f)
}

// Render выгружает отчёт через форматтер
func Render(report *entity.Report, f port.ReportFormatter) (*Export, error) {
	content, err := f.Format(report)
	if err != nil {
		return nil, err
	}
	return &Export{
		Filename:    report.ExportFilename(f.Extension()),
		ContentType: f.ContentType(),
		Content:     content,
	}, nil
}
