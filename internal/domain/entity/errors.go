package entity

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrInvalidWindow     = errors.New("invalid time window")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrEmptyUpload       = errors.New("uploaded video is empty")
	ErrDecodeOpen        = errors.New("cannot open video stream")
	ErrProbe             = errors.New("cannot probe video stream")
)

// FrameError is a per-frame decode or encode failure. Extraction is best-effort,
// so these are counted and dropped rather than failing the request.
type FrameError struct {
	Stage       string
	TimestampMs int64
	Err         error
}

const (
	StageDecode = "decode"
	StageEncode = "encode"
)

func (e *FrameError) Error() string {
	return fmt.Sprintf("%s frame at %dms: %v", e.Stage, e.TimestampMs, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is caused by the request or the upload
// itself, i.e. retrying the same input can never succeed.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrInvalidWindow) ||
		errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrEmptyUpload)
}
