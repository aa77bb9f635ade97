package imagecodec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
		}
	}
	return img
}

func TestEncoder_RoundTrip(t *testing.T) {
	enc := NewEncoder()
	src := testImage(32, 24)

	for _, format := range []string{"jpg", "JPEG", "png", "bmp", "gif", "tiff"} {
		t.Run(format, func(t *testing.T) {
			data, err := enc.Encode(src, format, 85)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			decoded, err := imaging.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, 32, decoded.Bounds().Dx())
			assert.Equal(t, 24, decoded.Bounds().Dy())
		})
	}
}

func TestEncoder_WebP(t *testing.T) {
	data, err := NewEncoder().Encode(testImage(16, 16), "webp", 70)
	require.NoError(t, err)

	decoded, err := webp.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 16, decoded.Bounds().Dx())
}

func TestEncoder_JPEGQualityAffectsSize(t *testing.T) {
	enc := NewEncoder()
	src := testImage(64, 64)

	low, err := enc.Encode(src, "jpg", 5)
	require.NoError(t, err)
	high, err := enc.Encode(src, "jpg", 100)
	require.NoError(t, err)

	assert.Less(t, len(low), len(high))
}

func TestEncoder_UnsupportedFormat(t *testing.T) {
	enc := NewEncoder()

	_, err := enc.Encode(testImage(4, 4), "xyz", 85)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrUnsupportedFormat))
	assert.False(t, enc.SupportsFormat("xyz"))
	assert.True(t, enc.SupportsFormat(" PNG "))
}

func TestToBase64(t *testing.T) {
	data := []byte{0xff, 0xd8, 0xff, 0x00}
	encoded := ToBase64(data)

	assert.Equal(t, "/9j/AA==", encoded)
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}
