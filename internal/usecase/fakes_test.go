package usecase

import (
	"context"
	"image"

	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/entity"
	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/port"
	"github.com/stretchr/testify/mock"
)

// fakeSource is a constant frame rate stream of count frames.
type fakeSource struct {
	info     entity.StreamInfo
	stepUs   int64
	count    int
	failAt   map[int]error
	probeErr error

	pos     int
	current int64
	seeks   []int64
	decodes int
	closed  int
}

func newFakeSource(fps float64, durationMs int64) *fakeSource {
	stepUs := int64(1e6 / fps)
	return &fakeSource{
		info: entity.StreamInfo{
			DurationMs:      durationMs,
			FrameRate:       fps,
			Width:           4,
			Height:          2,
			ContainerFormat: "mp4",
		},
		stepUs: stepUs,
		count:  int(durationMs * 1000 / stepUs),
		failAt: map[int]error{},
	}
}

func (f *fakeSource) Probe(context.Context) (entity.StreamInfo, error) {
	return f.info, f.probeErr
}

func (f *fakeSource) Seek(_ context.Context, us int64) error {
	f.seeks = append(f.seeks, us)
	f.pos = int((us + f.stepUs - 1) / f.stepUs)
	f.current = us
	return nil
}

func (f *fakeSource) DecodeNext(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.pos >= f.count {
		return nil, port.ErrEndOfStream
	}
	idx := f.pos
	f.pos++
	f.decodes++
	f.current = int64(idx) * f.stepUs
	if err := f.failAt[idx]; err != nil {
		return nil, err
	}
	return image.NewNRGBA(image.Rect(0, 0, f.info.Width, f.info.Height)), nil
}

func (f *fakeSource) CurrentTimestamp() int64 { return f.current }

func (f *fakeSource) Close() error {
	f.closed++
	return nil
}

// stallingSource never produces a frame; DecodeNext blocks until ctx ends.
type stallingSource struct {
	*fakeSource
}

func (s stallingSource) DecodeNext(ctx context.Context) (image.Image, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type mockOpener struct {
	mock.Mock
}

func (m *mockOpener) Open(ctx context.Context, path string) (port.VideoSource, error) {
	args := m.Called(ctx, path)
	src, _ := args.Get(0).(port.VideoSource)
	return src, args.Error(1)
}

type mockEncoder struct {
	mock.Mock
}

func (m *mockEncoder) Encode(img image.Image, format string, quality int) ([]byte, error) {
	args := m.Called(img, format, quality)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *mockEncoder) SupportsFormat(format string) bool {
	return m.Called(format).Bool(0)
}
