package port

import (
	"context"

	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/entity"
)

type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg entity.ExtractionStatusMessage) error
}

type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg []byte, reason string) error
}
