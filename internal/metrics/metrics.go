package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// FramesProcessedTotal кадры, прошедшие через агрегатор.
	FramesProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "house_inspect",
		Subsystem: "analyzer",
		Name:      "frames_processed_total",
		Help:      "Total number of video frames processed by the aggregator.",
	})

	// DetectorFailuresTotal сбои детектора по причине (error, timeout).
	DetectorFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "house_inspect",
		Subsystem: "analyzer",
		Name:      "detector_failures_total",
		Help:      "Detector calls that were treated as zero problems, labeled by reason.",
	}, []string{"reason"})

	// ProblemsDetectedTotal находки детектора до дедупликации.
	ProblemsDetectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "house_inspect",
		Subsystem: "analyzer",
		Name:      "problems_detected_total",
		Help:      "Raw detector findings before deduplication, labeled by category.",
	}, []string{"category"})

	// AnalysisDurationSeconds длительность анализа одного видео.
	AnalysisDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "house_inspect",
		Subsystem: "analyzer",
		Name:      "analysis_duration_seconds",
		Help:      "Time to aggregate all frames of one video.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	})

	// ReportsSavedTotal сохранённые отчёты.
	ReportsSavedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "house_inspect",
		Subsystem: "reports",
		Name:      "saved_total",
		Help:      "Total number of reports written to the secure store.",
	})
)

// Register регистрирует коллекторы один раз за процесс.
func Register(reg prometheus.Registerer) {
	once.Do(func() {
		reg.MustRegister(
			FramesProcessedTotal,
			DetectorFailuresTotal,
			ProblemsDetectedTotal,
			AnalysisDurationSeconds,
			ReportsSavedTotal,
		)
	})
}
