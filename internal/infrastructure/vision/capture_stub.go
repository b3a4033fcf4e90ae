//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"time"

	"house-inspect/internal/domain/entity"
	"house-inspect/internal/domain/port"
)

type GoCVFrameExtractor struct{}

func NewGoCVFrameExtractor() *GoCVFrameExtractor {
	return &GoCVFrameExtractor{}
}

// ExtractFrames возвращает ошибку, если сборка без тега gocv.
func (e *GoCVFrameExtractor) ExtractFrames(ctx context.Context, videoPath string, interval time.Duration) ([]entity.Frame, error) {
	_ = ctx
	_ = videoPath
	_ = interval
	return nil, ErrGoCVDisabled
}

type GoCVRecorder struct {
	DeviceID int
	FPS      float64
}

func NewGoCVRecorder(deviceID int) *GoCVRecorder {
	return &GoCVRecorder{DeviceID: deviceID}
}

func (r *GoCVRecorder) StartCamera(ctx context.Context) error {
	_ = ctx
	return ErrGoCVDisabled
}

func (r *GoCVRecorder) StopCamera() error { return nil }

func (r *GoCVRecorder) StartRecording(path string) error {
	_ = path
	return ErrGoCVDisabled
}

func (r *GoCVRecorder) StopRecording() (string, error) {
	return "", ErrNotRecording
}

var (
	_ port.FrameExtractor = (*GoCVFrameExtractor)(nil)
	_ port.VideoRecorder  = (*GoCVRecorder)(nil)
)
