//go:build gocv
// +build gocv

package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"house-inspect/internal/domain/entity"
	"house-inspect/internal/domain/port"
)

const defaultFPS = 30

// GoCVFrameExtractor читает видео через OpenCV и берёт кадры с заданным шагом.
type GoCVFrameExtractor struct{}

func NewGoCVFrameExtractor() *GoCVFrameExtractor {
	return &GoCVFrameExtractor{}
}

// ExtractFrames возвращает улучшенные JPEG-кадры в порядке времени.
func (e *GoCVFrameExtractor) ExtractFrames(ctx context.Context, videoPath string, interval time.Duration) ([]entity.Frame, error) {
	vc, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", videoPath, err)
	}
	defer vc.Close()

	fps := vc.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = defaultFPS
	}
	step := interval.Seconds()

	mat := gocv.NewMat()
	defer mat.Close()

	var frames []entity.Frame
	next := 0.0
	for idx := 0; ; idx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ok := vc.Read(&mat); !ok || mat.Empty() {
			break
		}

		ts := float64(idx) / fps
		if ts+1e-9 < next {
			continue
		}
		next = ts + step

		frame, err := encodeFrame(mat, ts)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames could be read from %s", videoPath)
	}
	return frames, nil
}

func encodeFrame(mat gocv.Mat, ts float64) (entity.Frame, error) {
	enhanced := gocv.NewMat()
	defer enhanced.Close()
	alpha, beta := enhanceParams(EnhanceContrast, EnhanceBrightness)
	mat.ConvertToWithParams(&enhanced, mat.Type(), float32(alpha), float32(beta))

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, enhanced)
	if err != nil {
		return entity.Frame{}, fmt.Errorf("failed to encode frame at %.2fs: %w", ts, err)
	}
	defer buf.Close()

	return entity.Frame{
		Image:     bytes.Clone(buf.GetBytes()),
		Width:     enhanced.Cols(),
		Height:    enhanced.Rows(),
		Timestamp: ts,
	}, nil
}

// GoCVRecorder записывает видео с веб-камеры в файл MJPG.
type GoCVRecorder struct {
	DeviceID int
	FPS      float64

	mu     sync.Mutex
	cam    *gocv.VideoCapture
	path   string
	stop   chan struct{}
	done   chan error
	writer *gocv.VideoWriter
}

func NewGoCVRecorder(deviceID int) *GoCVRecorder {
	return &GoCVRecorder{DeviceID: deviceID, FPS: defaultFPS}
}

// StartCamera открывает камеру.
func (r *GoCVRecorder) StartCamera(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cam != nil {
		return nil
	}
	cam, err := gocv.OpenVideoCapture(r.DeviceID)
	if err != nil {
		return fmt.Errorf("%w: device %d: %v", ErrCameraUnavailable, r.DeviceID, err)
	}
	if !cam.IsOpened() {
		cam.Close()
		return fmt.Errorf("%w: device %d is not opened", ErrCameraUnavailable, r.DeviceID)
	}
	r.cam = cam
	return nil
}

// StartRecording начинает писать кадры камеры в path.
func (r *GoCVRecorder) StartRecording(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cam == nil {
		return fmt.Errorf("%w: camera is not started", ErrCameraUnavailable)
	}
	if r.stop != nil {
		return errors.New("recording is already in progress")
	}

	first := gocv.NewMat()
	if ok := r.cam.Read(&first); !ok || first.Empty() {
		first.Close()
		return fmt.Errorf("%w: no frames from device %d", ErrCameraUnavailable, r.DeviceID)
	}

	writer, err := gocv.VideoWriterFile(path, "MJPG", r.FPS, first.Cols(), first.Rows(), true)
	if err != nil {
		first.Close()
		return fmt.Errorf("failed to create video file %s: %w", path, err)
	}

	r.path = path
	r.writer = writer
	r.stop = make(chan struct{})
	r.done = make(chan error, 1)
	go r.loop(first, r.cam, writer, r.stop, r.done)
	return nil
}

func (r *GoCVRecorder) loop(frame gocv.Mat, cam *gocv.VideoCapture, writer *gocv.VideoWriter, stop <-chan struct{}, done chan<- error) {
	defer frame.Close()
	for {
		if err := writer.Write(frame); err != nil {
			done <- err
			return
		}
		select {
		case <-stop:
			done <- nil
			return
		default:
		}
		if ok := cam.Read(&frame); !ok || frame.Empty() {
			done <- fmt.Errorf("%w: camera stopped sending frames", ErrCameraUnavailable)
			return
		}
	}
}

// StopRecording останавливает запись и возвращает путь к файлу.
func (r *GoCVRecorder) StopRecording() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopRecordingLocked()
}

func (r *GoCVRecorder) stopRecordingLocked() (string, error) {
	if r.stop == nil {
		return "", ErrNotRecording
	}
	close(r.stop)
	loopErr := <-r.done
	closeErr := r.writer.Close()

	path := r.path
	r.stop, r.done, r.writer, r.path = nil, nil, nil, ""

	if loopErr != nil {
		return "", loopErr
	}
	if closeErr != nil {
		return "", closeErr
	}
	return path, nil
}

// StopCamera завершает запись, если она идёт, и освобождает камеру.
func (r *GoCVRecorder) StopCamera() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.stop != nil {
		_, err = r.stopRecordingLocked()
	}
	if r.cam != nil {
		if closeErr := r.cam.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		r.cam = nil
	}
	return err
}

var (
	_ port.FrameExtractor = (*GoCVFrameExtractor)(nil)
	_ port.VideoRecorder  = (*GoCVRecorder)(nil)
)
