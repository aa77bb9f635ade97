package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"testing"

	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZipper_WriteZip(t *testing.T) {
	samples := []entity.FrameSample{
		{FrameNumber: 1, TimestampSeconds: 0, EncodedData: base64.StdEncoding.EncodeToString([]byte("first"))},
		{FrameNumber: 2, TimestampSeconds: 2.5, EncodedData: base64.StdEncoding.EncodeToString([]byte("second"))},
	}

	var buf bytes.Buffer
	require.NoError(t, NewZipper().WriteZip(context.Background(), &buf, samples, "PNG"))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	assert.Equal(t, "frame_00001_0.000s.png", zr.File[0].Name)
	assert.Equal(t, "frame_00002_2.500s.png", zr.File[1].Name)

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}

func TestZipper_RejectsUnencodedSample(t *testing.T) {
	samples := []entity.FrameSample{{FrameNumber: 3, TimestampSeconds: 1}}

	err := NewZipper().WriteZip(context.Background(), io.Discard, samples, "jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame 3")
}

func TestZipper_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	samples := []entity.FrameSample{{FrameNumber: 1, EncodedData: "AA=="}}
	err := NewZipper().WriteZip(ctx, io.Discard, samples, "jpg")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEntryName_DefaultsExtension(t *testing.T) {
	assert.Equal(t, "frame_00012_1.250s.jpg", EntryName(entity.FrameSample{FrameNumber: 12, TimestampSeconds: 1.25}, ""))
}
