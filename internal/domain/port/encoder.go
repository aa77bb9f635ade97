package port

import "image"

type ImageEncoder interface {
	Encode(img image.Image, format string, quality int) ([]byte, error)
	SupportsFormat(format string) bool
}
