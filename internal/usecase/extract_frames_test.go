package usecase

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var videoBytes = []byte("fake video payload")

func newExtractor(t *testing.T, opener *mockOpener, encoder *mockEncoder) (*ExtractFramesUseCase, string) {
	t.Helper()
	tempDir := t.TempDir()
	uc := NewExtractFramesUseCase(opener, encoder, zap.NewNop(), ExtractFramesConfig{
		TempDir:             tempDir,
		SupportedContainers: []string{"mp4", "avi", "mov", "mkv", "wmv", "flv", "webm"},
	})
	return uc, tempDir
}

func assertTempDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary upload must be removed")
}

func TestExtractFrames_AllFramesWithoutEncoding(t *testing.T) {
	src := newFakeSource(30, 1000)
	opener := &mockOpener{}
	encoder := &mockEncoder{}
	uc, tempDir := newExtractor(t, opener, encoder)

	opener.On("Open", mock.Anything, mock.MatchedBy(func(path string) bool {
		return strings.HasPrefix(path, tempDir) && strings.HasSuffix(path, ".mp4")
	})).Return(src, nil).Once()

	req := entity.NewSamplingRequest()
	req.ReturnEncoded = false

	result := uc.Execute(context.Background(), videoBytes, "clip.MP4", req)

	require.True(t, result.Succeeded, result.Message)
	assert.NoError(t, result.Err)
	assert.Equal(t, 30, result.TotalExtracted)
	require.Len(t, result.Samples, 30)
	assert.Empty(t, result.Samples[0].EncodedData)
	assert.Equal(t, 4, result.Samples[0].Width)
	assert.Equal(t, 2, result.Samples[0].Height)

	require.NotNil(t, result.Metadata)
	assert.Equal(t, "clip.MP4", result.Metadata.FileName)
	assert.Equal(t, int64(len(videoBytes)), result.Metadata.FileSizeBytes)
	assert.Equal(t, int64(30), result.Metadata.TotalFrames)

	assert.Equal(t, 1, src.closed)
	assertTempDirEmpty(t, tempDir)
	opener.AssertExpectations(t)
	encoder.AssertNotCalled(t, "SupportsFormat", mock.Anything)
	encoder.AssertNotCalled(t, "Encode", mock.Anything, mock.Anything, mock.Anything)
}

func TestExtractFrames_IntervalWithEncoding(t *testing.T) {
	src := newFakeSource(30, 10_000)
	opener := &mockOpener{}
	encoder := &mockEncoder{}
	uc, tempDir := newExtractor(t, opener, encoder)

	opener.On("Open", mock.Anything, mock.Anything).Return(src, nil)
	encoder.On("SupportsFormat", "jpg").Return(true)
	encoder.On("Encode", mock.Anything, "jpg", 85).Return([]byte("img"), nil)

	req := entity.NewSamplingRequest()
	req.IntervalSeconds = intPtr(2)

	result := uc.Execute(context.Background(), videoBytes, "clip.mp4", req)

	require.True(t, result.Succeeded, result.Message)
	require.Len(t, result.Samples, 5)
	for i, s := range result.Samples {
		assert.Equal(t, i+1, s.FrameNumber)
		assert.Equal(t, float64(2*i), s.TimestampSeconds)
		assert.Equal(t, "aW1n", s.EncodedData)
	}
	assert.Equal(t, 5, result.TotalExtracted)
	assert.Equal(t, 1, src.closed)
	assertTempDirEmpty(t, tempDir)
}

func TestExtractFrames_EncodeFailureDropsFrame(t *testing.T) {
	src := newFakeSource(30, 10_000)
	opener := &mockOpener{}
	encoder := &mockEncoder{}
	uc, _ := newExtractor(t, opener, encoder)

	opener.On("Open", mock.Anything, mock.Anything).Return(src, nil)
	encoder.On("SupportsFormat", "png").Return(true)
	encoder.On("Encode", mock.Anything, "png", 90).Return(nil, errors.New("encoder exploded")).Once()
	encoder.On("Encode", mock.Anything, "png", 90).Return([]byte{1}, nil)

	req := entity.NewSamplingRequest()
	req.IntervalSeconds = intPtr(2)
	req.OutputFormat = "png"
	req.ImageQuality = 90

	result := uc.Execute(context.Background(), videoBytes, "clip.mp4", req)

	require.True(t, result.Succeeded, result.Message)
	require.Len(t, result.Samples, 4)
	for i, s := range result.Samples {
		assert.Equal(t, i+1, s.FrameNumber)
		assert.Equal(t, float64(2*(i+1)), s.TimestampSeconds)
	}
}

func TestExtractFrames_WindowFarPastEndOfStream(t *testing.T) {
	src := newFakeSource(30, 10_000)
	opener := &mockOpener{}
	uc, _ := newExtractor(t, opener, &mockEncoder{})
	opener.On("Open", mock.Anything, mock.Anything).Return(src, nil)

	req := entity.NewSamplingRequest()
	req.ReturnEncoded = false
	req.IntervalSeconds = intPtr(1)
	req.EndSeconds = intPtr(entity.MaxSamplePoints)

	result := uc.Execute(context.Background(), videoBytes, "clip.mp4", req)

	require.True(t, result.Succeeded, result.Message)
	assert.Equal(t, 10, result.TotalExtracted)
	assert.Len(t, src.seeks, 11)
}

func TestExtractFrames_HugeWindowIsRejected(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*entity.SamplingRequest)
	}{
		{name: "end", mutate: func(r *entity.SamplingRequest) { r.EndSeconds = intPtr(math.MaxInt / 1000) }},
		{name: "start", mutate: func(r *entity.SamplingRequest) { r.StartSeconds = math.MaxInt/1000 + 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opener := &mockOpener{}
			uc, tempDir := newExtractor(t, opener, &mockEncoder{})

			req := entity.NewSamplingRequest()
			req.ReturnEncoded = false
			req.IntervalSeconds = intPtr(1)
			tt.mutate(&req)

			var result *entity.ExtractionResult
			require.NotPanics(t, func() {
				result = uc.Execute(context.Background(), videoBytes, "clip.mp4", req)
			})

			assert.False(t, result.Succeeded)
			assert.ErrorIs(t, result.Err, entity.ErrInvalidWindow)
			opener.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
			assertTempDirEmpty(t, tempDir)
		})
	}
}

func TestExtractFrames_ValidationHappensBeforeOpening(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		fileName string
		mutate   func(*entity.SamplingRequest)
		wantErr  error
	}{
		{
			name:     "empty upload",
			data:     nil,
			fileName: "clip.mp4",
			wantErr:  entity.ErrEmptyUpload,
		},
		{
			name:     "unsupported container",
			data:     videoBytes,
			fileName: "notes.txt",
			wantErr:  entity.ErrUnsupportedFormat,
		},
		{
			name:     "quality out of range",
			data:     videoBytes,
			fileName: "clip.mp4",
			mutate:   func(r *entity.SamplingRequest) { r.ImageQuality = 0 },
			wantErr:  entity.ErrInvalidRequest,
		},
		{
			name:     "non positive interval",
			data:     videoBytes,
			fileName: "clip.mp4",
			mutate:   func(r *entity.SamplingRequest) { r.IntervalSeconds = intPtr(0) },
			wantErr:  entity.ErrInvalidRequest,
		},
		{
			name:     "end before start",
			data:     videoBytes,
			fileName: "clip.mp4",
			mutate:   func(r *entity.SamplingRequest) { r.StartSeconds = 5; r.EndSeconds = intPtr(5) },
			wantErr:  entity.ErrInvalidWindow,
		},
		{
			name:     "unsupported output format",
			data:     videoBytes,
			fileName: "clip.mp4",
			mutate:   func(r *entity.SamplingRequest) { r.OutputFormat = "xyz" },
			wantErr:  entity.ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opener := &mockOpener{}
			encoder := &mockEncoder{}
			encoder.On("SupportsFormat", "xyz").Return(false).Maybe()
			encoder.On("SupportsFormat", "jpg").Return(true).Maybe()
			uc, tempDir := newExtractor(t, opener, encoder)

			req := entity.NewSamplingRequest()
			if tt.mutate != nil {
				tt.mutate(&req)
			}

			result := uc.Execute(context.Background(), tt.data, tt.fileName, req)

			assert.False(t, result.Succeeded)
			assert.ErrorIs(t, result.Err, tt.wantErr)
			assert.True(t, entity.IsValidationError(result.Err))
			assert.True(t, strings.HasPrefix(result.Message, "video processing failed: "), result.Message)
			assert.Nil(t, result.Metadata)
			opener.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
			assertTempDirEmpty(t, tempDir)
		})
	}
}

func TestExtractFrames_OutputFormatIgnoredWithoutEncoding(t *testing.T) {
	src := newFakeSource(10, 500)
	opener := &mockOpener{}
	encoder := &mockEncoder{}
	uc, _ := newExtractor(t, opener, encoder)
	opener.On("Open", mock.Anything, mock.Anything).Return(src, nil)

	req := entity.NewSamplingRequest()
	req.ReturnEncoded = false
	req.OutputFormat = "xyz"

	result := uc.Execute(context.Background(), videoBytes, "clip.webm", req)

	require.True(t, result.Succeeded, result.Message)
	assert.Len(t, result.Samples, 5)
}

func TestExtractFrames_OpenFailure(t *testing.T) {
	opener := &mockOpener{}
	uc, tempDir := newExtractor(t, opener, &mockEncoder{})
	opener.On("Open", mock.Anything, mock.Anything).Return(nil, errors.New("no decoder for stream"))

	req := entity.NewSamplingRequest()
	req.ReturnEncoded = false

	result := uc.Execute(context.Background(), videoBytes, "clip.avi", req)

	assert.False(t, result.Succeeded)
	assert.ErrorIs(t, result.Err, entity.ErrDecodeOpen)
	assert.False(t, entity.IsValidationError(result.Err))
	assert.Contains(t, result.Message, "no decoder for stream")
	assertTempDirEmpty(t, tempDir)
}

func TestExtractFrames_ProbeFailureClosesSource(t *testing.T) {
	src := newFakeSource(30, 1000)
	src.probeErr = errors.New("moov atom not found")
	opener := &mockOpener{}
	uc, tempDir := newExtractor(t, opener, &mockEncoder{})
	opener.On("Open", mock.Anything, mock.Anything).Return(src, nil)

	req := entity.NewSamplingRequest()
	req.ReturnEncoded = false

	result := uc.Execute(context.Background(), videoBytes, "clip.mov", req)

	assert.False(t, result.Succeeded)
	assert.ErrorIs(t, result.Err, entity.ErrProbe)
	assert.Equal(t, 1, src.closed)
	assertTempDirEmpty(t, tempDir)
}

func TestExtractFrames_StartBeyondDuration(t *testing.T) {
	src := newFakeSource(30, 10_000)
	opener := &mockOpener{}
	uc, _ := newExtractor(t, opener, &mockEncoder{})
	opener.On("Open", mock.Anything, mock.Anything).Return(src, nil)

	req := entity.NewSamplingRequest()
	req.ReturnEncoded = false
	req.StartSeconds = 20

	result := uc.Execute(context.Background(), videoBytes, "clip.mp4", req)

	assert.False(t, result.Succeeded)
	assert.ErrorIs(t, result.Err, entity.ErrInvalidWindow)
	require.NotNil(t, result.Metadata)
	assert.Equal(t, int64(10_000), result.Metadata.DurationMs)
	assert.Equal(t, 1, src.closed)
}

func TestExtractFrames_EmptyWindowSucceeds(t *testing.T) {
	src := newFakeSource(30, 1000)
	src.count = 0
	opener := &mockOpener{}
	uc, _ := newExtractor(t, opener, &mockEncoder{})
	opener.On("Open", mock.Anything, mock.Anything).Return(src, nil)

	req := entity.NewSamplingRequest()
	req.ReturnEncoded = false

	result := uc.Execute(context.Background(), videoBytes, "clip.mp4", req)

	require.True(t, result.Succeeded, result.Message)
	assert.NotNil(t, result.Samples)
	assert.Empty(t, result.Samples)
	assert.Equal(t, 0, result.TotalExtracted)
}

func TestExtractFrames_CancelledContextFails(t *testing.T) {
	src := newFakeSource(30, 1000)
	opener := &mockOpener{}
	uc, tempDir := newExtractor(t, opener, &mockEncoder{})
	opener.On("Open", mock.Anything, mock.Anything).Return(src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := entity.NewSamplingRequest()
	req.ReturnEncoded = false

	result := uc.Execute(ctx, videoBytes, "clip.mp4", req)

	assert.False(t, result.Succeeded)
	assert.ErrorIs(t, result.Err, context.Canceled)
	assert.Equal(t, 1, src.closed)
	assertTempDirEmpty(t, tempDir)
}

func TestExtractFrames_TimeoutAbandonsSampling(t *testing.T) {
	src := newFakeSource(30, 1000)
	opener := &mockOpener{}
	opener.On("Open", mock.Anything, mock.Anything).Return(stallingSource{src}, nil)

	tempDir := t.TempDir()
	uc := NewExtractFramesUseCase(opener, &mockEncoder{}, zap.NewNop(), ExtractFramesConfig{
		TempDir:             tempDir,
		SupportedContainers: []string{"mp4"},
		Timeout:             50 * time.Millisecond,
	})

	req := entity.NewSamplingRequest()
	req.ReturnEncoded = false

	started := time.Now()
	result := uc.Execute(context.Background(), videoBytes, "clip.mp4", req)

	assert.Less(t, time.Since(started), 5*time.Second)
	assert.False(t, result.Succeeded)
	assert.ErrorIs(t, result.Err, context.DeadlineExceeded)
	assert.False(t, entity.IsValidationError(result.Err))
	assert.Empty(t, result.Samples)
	assert.Equal(t, 1, src.closed)
	assertTempDirEmpty(t, tempDir)
}

func TestExtractFrames_Inspect(t *testing.T) {
	src := newFakeSource(25, 4000)
	src.info.ContainerFormat = ""
	opener := &mockOpener{}
	uc, tempDir := newExtractor(t, opener, &mockEncoder{})
	opener.On("Open", mock.Anything, mock.Anything).Return(src, nil)

	meta, err := uc.Inspect(context.Background(), videoBytes, "holiday.mkv")
	require.NoError(t, err)

	assert.Equal(t, int64(4000), meta.DurationMs)
	assert.Equal(t, 25.0, meta.FrameRate)
	assert.Equal(t, int64(100), meta.TotalFrames)
	assert.Equal(t, "mkv", meta.ContainerFormat)
	assert.Equal(t, 0, src.decodes)
	assert.Equal(t, 1, src.closed)
	assertTempDirEmpty(t, tempDir)

	_, err = uc.Inspect(context.Background(), videoBytes, filepath.Join("dir", "clip.exe"))
	assert.ErrorIs(t, err, entity.ErrUnsupportedFormat)
}

func TestExtractFrames_WindowPastEndOfStreamIsEmptySuccess(t *testing.T) {
	src := newFakeSource(30, 10_000)
	opener := &mockOpener{}
	uc, _ := newExtractor(t, opener, &mockEncoder{})
	opener.On("Open", mock.Anything, mock.Anything).Return(src, nil)

	req := entity.NewSamplingRequest()
	req.ReturnEncoded = false
	req.IntervalSeconds = intPtr(5)
	req.StartSeconds = 20
	req.EndSeconds = intPtr(30)

	result := uc.Execute(context.Background(), videoBytes, "clip.mp4", req)

	require.True(t, result.Succeeded, result.Message)
	assert.Empty(t, result.Samples)
	assert.Equal(t, []int64{20_000_000}, src.seeks)
}
