package imagecodec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"slices"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/entity"
)

var supportedFormats = []string{"jpg", "jpeg", "png", "bmp", "gif", "tif", "tiff", "webp"}

type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode writes img in the requested format. Quality only applies to lossy
// formats (jpg and webp) and is ignored otherwise.
func (e *Encoder) Encode(img image.Image, format string, quality int) ([]byte, error) {
	format = normalize(format)

	var buf bytes.Buffer
	var err error
	switch format {
	case "jpg", "jpeg":
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(clampQuality(quality)))
	case "png":
		err = imaging.Encode(&buf, img, imaging.PNG)
	case "bmp":
		err = imaging.Encode(&buf, img, imaging.BMP)
	case "gif":
		err = imaging.Encode(&buf, img, imaging.GIF)
	case "tif", "tiff":
		err = imaging.Encode(&buf, img, imaging.TIFF)
	case "webp":
		err = webp.Encode(&buf, img, &webp.Options{Quality: float32(clampQuality(quality))})
	default:
		return nil, fmt.Errorf("%w: image format %q", entity.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("encode %s: encoder produced no output", format)
	}
	return buf.Bytes(), nil
}

func (e *Encoder) SupportsFormat(format string) bool {
	return slices.Contains(supportedFormats, normalize(format))
}

func (e *Encoder) SupportedFormats() []string {
	return slices.Clone(supportedFormats)
}

// ToBase64 is the standard alphabet with padding.
func ToBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func normalize(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}

func clampQuality(q int) int {
	return min(max(q, 1), 100)
}
