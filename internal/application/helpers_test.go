package app

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"house-inspect/internal/domain/entity"
	"house-inspect/internal/infrastructure/securestore"
	"house-inspect/internal/infrastructure/storage"
)

type detectorFunc func(ctx context.Context, frame entity.Frame) ([]entity.Problem, error)

func (f detectorFunc) Detect(ctx context.Context, frame entity.Frame) ([]entity.Problem, error) {
	return f(ctx, frame)
}

// byTimestamp детектор, отдающий заранее заданные находки по времени кадра
func byTimestamp(found map[float64][]entity.Problem) detectorFunc {
	return func(ctx context.Context, frame entity.Frame) ([]entity.Problem, error) {
		return found[frame.Timestamp], nil
	}
}

func problem(ts float64, idx int, category entity.ProblemCategory, desc string, confidence float64, severity entity.Severity, cost int64) entity.Problem {
	return entity.Problem{
		ID:            entity.NewProblemID(ts, idx),
		Category:      category,
		Description:   desc,
		Severity:      severity,
		Confidence:    confidence,
		Timestamp:     ts,
		EstimatedCost: cost,
	}
}

func frames(timestamps ...float64) []entity.Frame {
	out := make([]entity.Frame, 0, len(timestamps))
	for _, ts := range timestamps {
		out = append(out, entity.Frame{Timestamp: ts})
	}
	return out
}

type progressRecorder struct {
	mu    sync.Mutex
	calls [][2]int
}

func (p *progressRecorder) record(processed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, [2]int{processed, total})
}

// fakeExtractor проверяет, что видео записано во временный файл, и отдаёт заданные кадры
type fakeExtractor struct {
	t      *testing.T
	frames []entity.Frame
	err    error
	want   []byte

	mu       sync.Mutex
	interval time.Duration
	calls    int
}

func (e *fakeExtractor) ExtractFrames(ctx context.Context, videoPath string, interval time.Duration) ([]entity.Frame, error) {
	e.mu.Lock()
	e.calls++
	e.interval = interval
	e.mu.Unlock()

	if e.want != nil {
		data, err := os.ReadFile(videoPath)
		require.NoError(e.t, err)
		require.Equal(e.t, e.want, data)
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.frames, nil
}

type testStores struct {
	store   *securestore.SecureStorage
	reports *storage.SecureReportRepository
	users   *UserService
}

func newTestStores(t *testing.T) *testStores {
	t.Helper()
	enc, err := securestore.NewEncryptionService("test-secret")
	require.NoError(t, err)
	store := securestore.New(storage.NewMemoryKV(), enc, "", nil)
	return &testStores{
		store:   store,
		reports: storage.NewSecureReportRepository(store),
		users:   NewUserService(storage.NewMemoryUserRepository()),
	}
}
