package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"house-inspect/internal/domain/entity"
	"house-inspect/internal/domain/port"
	"house-inspect/internal/logger"
	"house-inspect/internal/metrics"
)

// ProgressFunc получает число обработанных кадров и их общее количество
type ProgressFunc func(processed, total int)

// Analyzer прогоняет кадры через детектор и склеивает находки между кадрами
type Analyzer struct {
	detector port.ProblemDetector
	timeout  time.Duration
	workers  int
	log      *logger.Logger
}

type AnalyzerOption func(*Analyzer)

// WithDetectTimeout ограничивает время анализа одного кадра; 0 без ограничения
func WithDetectTimeout(d time.Duration) AnalyzerOption {
	return func(a *Analyzer) { a.timeout = d }
}

// WithWorkers задаёт число параллельных вызовов детектора
func WithWorkers(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

func WithAnalyzerLogger(l *logger.Logger) AnalyzerOption {
	return func(a *Analyzer) { a.log = l }
}

func NewAnalyzer(detector port.ProblemDetector, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		detector: detector,
		workers:  1,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.WithComponent("analyzer")
	return a
}

// Aggregate анализирует кадры по порядку и возвращает список уникальных проблем.
// Повтор проблемы заменяет прежнюю запись только при строго большей уверенности.
// После каждого кадра вызывается onProgress. При отмене контекста возвращается
// результат по уже обработанным кадрам вместе с ошибкой контекста.
func (a *Analyzer) Aggregate(ctx context.Context, frames []entity.Frame, onProgress ProgressFunc) ([]entity.Problem, error) {
	acc := newAccumulator()
	if len(frames) == 0 {
		return acc.problems, nil
	}

	start := time.Now()
	defer func() {
		metrics.AnalysisDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	if a.workers > 1 {
		return a.aggregateParallel(ctx, frames, acc, onProgress)
	}

	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return acc.problems, err
		}
		found := a.detect(ctx, frame)
		if err := ctx.Err(); err != nil {
			return acc.problems, err
		}
		acc.merge(found)
		a.frameDone(i+1, len(frames), onProgress)
	}
	return acc.problems, nil
}

// aggregateParallel запускает детектор наперёд, но склеивает результаты строго в порядке кадров
func (a *Analyzer) aggregateParallel(ctx context.Context, frames []entity.Frame, acc *accumulator, onProgress ProgressFunc) ([]entity.Problem, error) {
	results := make([][]entity.Problem, len(frames))
	done := make([]chan struct{}, len(frames))
	for i := range done {
		done[i] = make(chan struct{})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	go func() {
		for i := range frames {
			if gctx.Err() != nil {
				return
			}
			g.Go(func() error {
				defer close(done[i])
				results[i] = a.detect(gctx, frames[i])
				return nil
			})
		}
	}()

	for i := range frames {
		select {
		case <-done[i]:
		case <-ctx.Done():
			return acc.problems, ctx.Err()
		}
		if err := ctx.Err(); err != nil {
			return acc.problems, err
		}
		acc.merge(results[i])
		a.frameDone(i+1, len(frames), onProgress)
	}

	// Все кадры уже склеены, Wait лишь дожидается выхода воркеров
	if err := g.Wait(); err != nil {
		return acc.problems, err
	}
	return acc.problems, nil
}

func (a *Analyzer) frameDone(processed, total int, onProgress ProgressFunc) {
	metrics.FramesProcessedTotal.Inc()
	if onProgress != nil {
		onProgress(processed, total)
	}
}

// detect вызывает детектор; любой сбой означает ноль проблем на кадре
func (a *Analyzer) detect(ctx context.Context, frame entity.Frame) []entity.Problem {
	problems, err := a.callDetector(ctx, frame)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		metrics.DetectorFailuresTotal.WithLabelValues(reason).Inc()
		a.log.WithContext(ctx).Warn("frame skipped",
			"timestamp", frame.Timestamp,
			"reason", reason,
			"error", err)
		return nil
	}

	for _, p := range problems {
		metrics.ProblemsDetectedTotal.WithLabelValues(string(p.Category)).Inc()
	}
	return problems
}

type detectResult struct {
	problems []entity.Problem
	err      error
}

func (a *Analyzer) callDetector(ctx context.Context, frame entity.Frame) ([]entity.Problem, error) {
	if a.timeout <= 0 {
		return a.safeDetect(ctx, frame)
	}

	dctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	// Детектор может не следить за контекстом, поэтому ждём его в отдельной горутине
	ch := make(chan detectResult, 1)
	go func() {
		problems, err := a.safeDetect(dctx, frame)
		ch <- detectResult{problems: problems, err: err}
	}()

	select {
	case res := <-ch:
		return res.problems, res.err
	case <-dctx.Done():
		return nil, dctx.Err()
	}
}

func (a *Analyzer) safeDetect(ctx context.Context, frame entity.Frame) (problems []entity.Problem, err error) {
	defer func() {
		if r := recover(); r != nil {
			problems, err = nil, fmt.Errorf("detector panic: %v", r)
		}
	}()
	return a.detector.Detect(ctx, frame)
}

// accumulator упорядоченный список проблем с индексом по ключу дедупликации
type accumulator struct {
	problems []entity.Problem
	index    map[string]int
}

func newAccumulator() *accumulator {
	return &accumulator{
		problems: []entity.Problem{},
		index:    make(map[string]int),
	}
}

func (a *accumulator) merge(found []entity.Problem) {
	for _, p := range found {
		key := p.DedupKey()
		i, seen := a.index[key]
		if !seen {
			a.index[key] = len(a.problems)
			a.problems = append(a.problems, p)
			continue
		}
		if p.Confidence > a.problems[i].Confidence {
			a.problems[i] = p
		}
	}
}
