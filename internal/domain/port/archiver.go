package port

import (
	"context"
	"io"

	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/entity"
)

type FrameArchiver interface {
	WriteZip(ctx context.Context, w io.Writer, samples []entity.FrameSample, format string) error
}
