package archive

import (
	"archive/zip"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/entity"
)

type Zipper struct {
	now func() time.Time
}

func NewZipper() *Zipper {
	return &Zipper{now: time.Now}
}

// WriteZip streams the encoded samples into w as a zip archive, one entry per
// frame. Samples without encoded data cannot be archived.
func (z *Zipper) WriteZip(ctx context.Context, w io.Writer, samples []entity.FrameSample, format string) error {
	zw := zip.NewWriter(w)

	for _, s := range samples {
		select {
		case <-ctx.Done():
			zw.Close()
			return ctx.Err()
		default:
		}

		if err := z.addSample(zw, s, format); err != nil {
			zw.Close()
			return fmt.Errorf("add frame %d to zip: %w", s.FrameNumber, err)
		}
	}

	return zw.Close()
}

func (z *Zipper) addSample(zw *zip.Writer, s entity.FrameSample, format string) error {
	if s.EncodedData == "" {
		return fmt.Errorf("frame has no encoded data")
	}
	data, err := base64.StdEncoding.DecodeString(s.EncodedData)
	if err != nil {
		return err
	}

	header := &zip.FileHeader{
		Name:     EntryName(s, format),
		Method:   zip.Deflate,
		Modified: z.now(),
	}
	writer, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = writer.Write(data)
	return err
}

// EntryName is frame_<number>_<seconds>s.<ext>, zero padded so entries sort in
// frame order.
func EntryName(s entity.FrameSample, format string) string {
	ext := strings.ToLower(strings.TrimSpace(format))
	if ext == "" {
		ext = entity.DefaultOutputFormat
	}
	return fmt.Sprintf("frame_%05d_%.3fs.%s", s.FrameNumber, s.TimestampSeconds, ext)
}
