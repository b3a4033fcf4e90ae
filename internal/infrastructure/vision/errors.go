package vision

import "errors"

// ErrGoCVDisabled возвращается, если бинарник собран без тега gocv.
var ErrGoCVDisabled = errors.New("gocv build tag is not enabled")

// ErrCameraUnavailable камера не открылась или занята; операцию можно повторить.
var ErrCameraUnavailable = errors.New("camera is unavailable")

// ErrNotRecording StopRecording вызван без активной записи.
var ErrNotRecording = errors.New("recording is not started")
