package port

import "context"

type VideoStorage interface {
	FetchVideo(ctx context.Context, objectKey string) ([]byte, error)
}
