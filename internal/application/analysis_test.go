package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"house-inspect/internal/domain/entity"
	"house-inspect/internal/infrastructure/vision"
)

func TestAnalyzer_DedupKeepsHigherConfidence(t *testing.T) {
	tests := []struct {
		name     string
		first    float64
		second   float64
		wantConf float64
		wantID   string
	}{
		{"later frame is more confident", 0.6, 0.9, 0.9, "1-0"},
		{"later frame is less confident", 0.9, 0.6, 0.9, "0-0"},
		{"equal confidence keeps first", 0.8, 0.8, 0.8, "0-0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(byTimestamp(map[float64][]entity.Problem{
				0: {problem(0, 0, entity.CategoryWallDamage, "crack", tt.first, entity.SeverityModerate, 500)},
				1: {problem(1, 0, entity.CategoryWallDamage, "crack", tt.second, entity.SeverityModerate, 500)},
			}))

			got, err := a.Aggregate(context.Background(), frames(0, 1), nil)
			require.NoError(t, err)
			require.Len(t, got, 1)
			require.Equal(t, tt.wantConf, got[0].Confidence)
			require.Equal(t, tt.wantID, got[0].ID)
		})
	}
}

func TestAnalyzer_ReplacementKeepsPosition(t *testing.T) {
	a := NewAnalyzer(byTimestamp(map[float64][]entity.Problem{
		0: {
			problem(0, 0, entity.CategoryWallDamage, "crack", 0.5, entity.SeverityModerate, 500),
			problem(0, 1, entity.CategoryMold, "stain", 0.7, entity.SeverityHigh, 800),
		},
		1: {problem(1, 0, entity.CategoryWallDamage, "crack", 0.9, entity.SeverityModerate, 500)},
	}))

	got, err := a.Aggregate(context.Background(), frames(0, 1), nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "1-0", got[0].ID)
	require.Equal(t, entity.CategoryMold, got[1].Category)
}

func TestAnalyzer_SameFrameDuplicates(t *testing.T) {
	a := NewAnalyzer(byTimestamp(map[float64][]entity.Problem{
		0: {
			problem(0, 0, entity.CategoryMold, "stain", 0.5, entity.SeverityHigh, 800),
			problem(0, 1, entity.CategoryLighting, "dark", 0.8, entity.SeverityLow, 200),
			problem(0, 2, entity.CategoryMold, "stain", 0.7, entity.SeverityHigh, 800),
		},
	}))

	got, err := a.Aggregate(context.Background(), frames(0), nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "0-2", got[0].ID)
	require.Equal(t, 0.7, got[0].Confidence)
	require.Equal(t, entity.CategoryLighting, got[1].Category)
}

func TestAnalyzer_SameDescriptionDifferentCategory(t *testing.T) {
	a := NewAnalyzer(byTimestamp(map[float64][]entity.Problem{
		0: {
			problem(0, 0, entity.CategoryWallDamage, "damage", 0.5, entity.SeverityModerate, 100),
			problem(0, 1, entity.CategoryCeiling, "damage", 0.5, entity.SeverityModerate, 100),
		},
	}))

	got, err := a.Aggregate(context.Background(), frames(0), nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestAnalyzer_ProgressReportedPerFrame(t *testing.T) {
	var progress progressRecorder
	a := NewAnalyzer(byTimestamp(nil))

	got, err := a.Aggregate(context.Background(), frames(0, 0.5, 1, 1.5), progress.record)
	require.NoError(t, err)
	require.Empty(t, got)
	require.Equal(t, [][2]int{{1, 4}, {2, 4}, {3, 4}, {4, 4}}, progress.calls)
}

func TestAnalyzer_EmptyInput(t *testing.T) {
	var progress progressRecorder
	calls := 0
	a := NewAnalyzer(detectorFunc(func(ctx context.Context, frame entity.Frame) ([]entity.Problem, error) {
		calls++
		return nil, nil
	}))

	got, err := a.Aggregate(context.Background(), nil, progress.record)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
	require.Empty(t, progress.calls)
	require.Zero(t, calls)
}

func TestAnalyzer_ThreeFrameScenario(t *testing.T) {
	a := NewAnalyzer(byTimestamp(map[float64][]entity.Problem{
		0: {problem(0, 0, entity.CategoryWallDamage, "crack", 0.7, entity.SeverityModerate, 500)},
		2: {problem(2, 0, entity.CategoryWallDamage, "crack", 0.95, entity.SeverityModerate, 500)},
	}))

	got, err := a.Aggregate(context.Background(), frames(0, 1, 2), nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 0.95, got[0].Confidence)

	summary := entity.Summarize(got)
	require.Equal(t, 1, summary.TotalProblems)
	require.Equal(t, int64(500), summary.TotalEstimatedCost)
	require.Equal(t, 1, summary.ModerateCount)
}

func TestAnalyzer_DetectorFailureMeansNoProblems(t *testing.T) {
	var progress progressRecorder
	a := NewAnalyzer(detectorFunc(func(ctx context.Context, frame entity.Frame) ([]entity.Problem, error) {
		switch frame.Timestamp {
		case 0:
			return nil, errors.New("model crashed")
		case 1:
			panic("bad frame")
		}
		return []entity.Problem{problem(frame.Timestamp, 0, entity.CategoryMold, "stain", 0.6, entity.SeverityHigh, 800)}, nil
	}))

	got, err := a.Aggregate(context.Background(), frames(0, 1, 2), progress.record)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "2-0", got[0].ID)
	require.Len(t, progress.calls, 3)
}

func TestAnalyzer_DetectTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	a := NewAnalyzer(detectorFunc(func(ctx context.Context, frame entity.Frame) ([]entity.Problem, error) {
		if frame.Timestamp == 0 {
			// Детектор не следит за контекстом
			<-release
			return []entity.Problem{problem(0, 0, entity.CategoryOther, "late", 1, entity.SeverityMinor, 1)}, nil
		}
		return []entity.Problem{problem(1, 0, entity.CategoryMold, "stain", 0.6, entity.SeverityHigh, 800)}, nil
	}), WithDetectTimeout(20*time.Millisecond))

	got, err := a.Aggregate(context.Background(), frames(0, 1), nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, entity.CategoryMold, got[0].Category)
}

func TestAnalyzer_CancellationReturnsPrefix(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var progress progressRecorder
	a := NewAnalyzer(detectorFunc(func(ctx context.Context, frame entity.Frame) ([]entity.Problem, error) {
		if frame.Timestamp == 1 {
			cancel()
		}
		return []entity.Problem{problem(frame.Timestamp, 0, entity.CategoryOther, "item", 0.5, entity.SeverityMinor, 10)}, nil
	}))

	// Описания одинаковые, поэтому первая находка остаётся единственной
	got, err := a.Aggregate(ctx, frames(0, 1, 2), progress.record)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, got, 1)
	require.Equal(t, "0-0", got[0].ID)
	require.Equal(t, [][2]int{{1, 3}}, progress.calls)
}

func TestAnalyzer_ParallelMatchesSequential(t *testing.T) {
	detector := detectorFunc(func(ctx context.Context, frame entity.Frame) ([]entity.Problem, error) {
		ts := frame.Timestamp
		// Ранние кадры отвечают дольше, чтобы воркеры завершались не по порядку
		time.Sleep(time.Duration(10-int(ts)) * time.Millisecond)
		conf := 0.5 + ts/20
		if int(ts)%2 == 0 {
			conf = 0.9 - ts/20
		}
		return []entity.Problem{
			problem(ts, 0, entity.CategoryWallDamage, "crack", conf, entity.SeverityModerate, 500),
			problem(ts, 1, entity.CategoryFlooring, "scratch "+string(rune('a'+int(ts)%3)), 0.5, entity.SeverityLow, 100),
		}, nil
	})

	input := frames(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)

	sequential, err := NewAnalyzer(detector).Aggregate(context.Background(), input, nil)
	require.NoError(t, err)

	var progress progressRecorder
	parallel, err := NewAnalyzer(detector, WithWorkers(4)).Aggregate(context.Background(), input, progress.record)
	require.NoError(t, err)

	require.Equal(t, sequential, parallel)
	require.Len(t, progress.calls, len(input))
	for i, call := range progress.calls {
		require.Equal(t, [2]int{i + 1, len(input)}, call)
	}
}

func TestAnalyzer_ParallelMatchesSequentialWithSeededDetector(t *testing.T) {
	input := make([]entity.Frame, 0, 16)
	for i := 0; i < 16; i++ {
		input = append(input, entity.Frame{Width: 640, Height: 480, Timestamp: float64(i) / 2})
	}

	sequential, err := NewAnalyzer(vision.NewSimulatedDetector(7)).Aggregate(context.Background(), input, nil)
	require.NoError(t, err)
	require.NotEmpty(t, sequential)

	for run := 0; run < 10; run++ {
		parallel, err := NewAnalyzer(vision.NewSimulatedDetector(7), WithWorkers(4)).Aggregate(context.Background(), input, nil)
		require.NoError(t, err)
		require.Equal(t, sequential, parallel, "run %d", run)
	}
}
