package port

import (
	"context"
	"errors"
	"image"

	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/entity"
)

// ErrEndOfStream is returned by DecodeNext when the decoder has no more frames
// after the current position.
var ErrEndOfStream = errors.New("end of stream")

// VideoSource is a decodable stream with a single decode cursor. It is owned
// by one extraction at a time and is not safe for concurrent use.
type VideoSource interface {
	Probe(ctx context.Context) (entity.StreamInfo, error)
	// Seek moves the cursor so the next decoded frame is the first one at or
	// after timestampMicros.
	Seek(ctx context.Context, timestampMicros int64) error
	DecodeNext(ctx context.Context) (image.Image, error)
	// CurrentTimestamp is the presentation time of the last decoded frame, in microseconds.
	CurrentTimestamp() int64
	Close() error
}

type VideoOpener interface {
	Open(ctx context.Context, path string) (VideoSource, error)
}
