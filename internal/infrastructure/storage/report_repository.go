package storage

import (
	"context"
	"sort"
	"strings"

	"house-inspect/internal/domain/entity"
	"house-inspect/internal/domain/port"
	"house-inspect/internal/infrastructure/securestore"
	"house-inspect/internal/metrics"
)

const reportKeyPrefix = "report_"

// ReportKey ключ отчёта в защищённом хранилище
func ReportKey(id string) string {
	return reportKeyPrefix + id
}

// SecureReportRepository хранит отчёты в шифрованном хранилище
type SecureReportRepository struct {
	store *securestore.SecureStorage
}

// NewSecureReportRepository создаёт репозиторий отчётов
func NewSecureReportRepository(store *securestore.SecureStorage) *SecureReportRepository {
	return &SecureReportRepository{store: store}
}

// Save вставляет или заменяет отчёт
func (r *SecureReportRepository) Save(ctx context.Context, report *entity.Report) error {
	if err := r.store.SetItem(ctx, ReportKey(report.ID), report); err != nil {
		return err
	}
	metrics.ReportsSavedTotal.Inc()
	return nil
}

// Get возвращает отчёт по ID
func (r *SecureReportRepository) Get(ctx context.Context, id string) (*entity.Report, error) {
	var report entity.Report
	found, err := r.store.GetItem(ctx, ReportKey(id), &report)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, port.ErrReportNotFound
	}
	return &report, nil
}

// List возвращает все отчёты, новые первыми
func (r *SecureReportRepository) List(ctx context.Context) ([]*entity.Report, error) {
	keys, err := r.store.Keys(ctx, reportKeyPrefix)
	if err != nil {
		return nil, err
	}

	reports := make([]*entity.Report, 0, len(keys))
	for _, k := range keys {
		report, err := r.Get(ctx, strings.TrimPrefix(k, reportKeyPrefix))
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

// Delete удаляет отчёт и связанное с ним видео
func (r *SecureReportRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	if err := r.store.RemoveItem(ctx, ReportKey(id)); err != nil {
		return err
	}
	return r.store.RemoveItem(ctx, port.VideoBlobKey(id))
}

var _ port.ReportRepository = (*SecureReportRepository)(nil)
