package usecase

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/entity"
	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/port"
	"github.com/petrichar777/Video-Frame-Extractor/internal/infra/imagecodec"
	"github.com/petrichar777/Video-Frame-Extractor/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ExtractFramesUseCase struct {
	opener  port.VideoOpener
	encoder port.ImageEncoder
	sampler *FrameSampler
	logger  *zap.Logger
	cfg     ExtractFramesConfig
}

type ExtractFramesConfig struct {
	TempDir             string
	SupportedContainers []string
	DefaultOutputFormat string
	Timeout             time.Duration
}

func NewExtractFramesUseCase(
	opener port.VideoOpener,
	encoder port.ImageEncoder,
	logger *zap.Logger,
	cfg ExtractFramesConfig,
) *ExtractFramesUseCase {
	if cfg.DefaultOutputFormat == "" {
		cfg.DefaultOutputFormat = entity.DefaultOutputFormat
	}
	return &ExtractFramesUseCase{
		opener:  opener,
		encoder: encoder,
		sampler: NewFrameSampler(),
		logger:  logger,
		cfg:     cfg,
	}
}

// Execute runs one extraction end to end. It never returns an error: failures
// are reported through the result, with the cause kept in result.Err.
func (uc *ExtractFramesUseCase) Execute(ctx context.Context, data []byte, fileName string, req entity.SamplingRequest) *entity.ExtractionResult {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ExtractFramesUseCase.Execute")
	defer span.End()

	started := time.Now()

	if uc.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.cfg.Timeout)
		defer cancel()
	}

	metrics.ActiveExtractions.Inc()
	defer metrics.ActiveExtractions.Dec()

	if req.OutputFormat == "" {
		req.OutputFormat = uc.cfg.DefaultOutputFormat
	}

	span.SetAttributes(
		attribute.String("video.file_name", fileName),
		attribute.Int("video.size_bytes", len(data)),
		attribute.Bool("request.return_encoded", req.ReturnEncoded),
	)

	log := uc.logger.With(zap.String("file_name", fileName), zap.Int("size_bytes", len(data)))

	result := &entity.ExtractionResult{}
	if err := uc.extract(ctx, data, fileName, req, result, log); err != nil {
		result.Succeeded = false
		result.Message = "video processing failed: " + err.Error()
		result.Err = err
		result.ProcessingTimeMs = time.Since(started).Milliseconds()

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.ExtractionsTotal.WithLabelValues("failed").Inc()

		if entity.IsValidationError(err) {
			log.Info("extraction rejected", zap.Error(err))
		} else {
			log.Error("extraction failed", zap.Error(err))
		}
		return result
	}

	result.Succeeded = true
	result.Message = "frames extracted successfully"
	result.TotalExtracted = len(result.Samples)
	result.ProcessingTimeMs = time.Since(started).Milliseconds()

	metrics.ExtractionsTotal.WithLabelValues("succeeded").Inc()
	metrics.FramesExtractedTotal.Add(float64(result.TotalExtracted))
	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(started).Seconds())

	log.Info("extraction completed",
		zap.Int("frame_count", result.TotalExtracted),
		zap.Int64("processing_ms", result.ProcessingTimeMs),
	)

	return result
}

// Inspect stores and probes the upload without decoding any frame.
func (uc *ExtractFramesUseCase) Inspect(ctx context.Context, data []byte, fileName string) (*entity.VideoMetadata, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "ExtractFramesUseCase.Inspect")
	defer span.End()

	if err := uc.validateUpload(data, fileName); err != nil {
		return nil, err
	}

	log := uc.logger.With(zap.String("file_name", fileName))

	var meta entity.VideoMetadata
	err := uc.withSource(ctx, data, fileName, log, func(_ port.VideoSource, m entity.VideoMetadata) error {
		meta = m
		return nil
	})
	if err != nil {
		span.RecordError(err)
		log.Error("video inspection failed", zap.Error(err))
		return nil, err
	}
	return &meta, nil
}

func (uc *ExtractFramesUseCase) extract(
	ctx context.Context,
	data []byte,
	fileName string,
	req entity.SamplingRequest,
	result *entity.ExtractionResult,
	log *zap.Logger,
) error {
	if err := uc.validateUpload(data, fileName); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if req.ReturnEncoded && !uc.encoder.SupportsFormat(req.OutputFormat) {
		return fmt.Errorf("%w: output format %q", entity.ErrUnsupportedFormat, req.OutputFormat)
	}

	return uc.withSource(ctx, data, fileName, log, func(src port.VideoSource, meta entity.VideoMetadata) error {
		result.Metadata = &meta

		plan, err := PlanSamples(meta, req)
		if err != nil {
			return err
		}

		log.Debug("sampling planned",
			zap.Stringer("mode", plan.Mode),
			zap.Int64("start_ms", plan.StartMs),
			zap.Int64("end_ms", plan.EndMs),
			zap.Int("points", len(plan.TimestampsMs)),
		)

		sampleStart := time.Now()
		sampleCtx, span := otel.Tracer("usecase").Start(ctx, "sample_frames")
		defer span.End()

		samples, err := uc.collect(sampleCtx, uc.encodeSamples(uc.sampler.Sample(sampleCtx, src, plan), req), log)
		metrics.StageDuration.WithLabelValues("sample").Observe(time.Since(sampleStart).Seconds())
		if err != nil {
			span.RecordError(err)
			return err
		}
		span.SetAttributes(attribute.Int("frames.count", len(samples)))

		result.Samples = samples
		return nil
	})
}

func (uc *ExtractFramesUseCase) validateUpload(data []byte, fileName string) error {
	if len(data) == 0 {
		return entity.ErrEmptyUpload
	}
	ext := containerExtension(fileName)
	if !slices.ContainsFunc(uc.cfg.SupportedContainers, func(c string) bool {
		return strings.EqualFold(strings.TrimSpace(c), ext)
	}) {
		return fmt.Errorf("%w: %q, supported: %s", entity.ErrUnsupportedFormat, ext, strings.Join(uc.cfg.SupportedContainers, ", "))
	}
	return nil
}

// withSource persists the upload, opens and probes it, then hands the source to
// fn. The temporary file and the source are released on every path.
func (uc *ExtractFramesUseCase) withSource(
	ctx context.Context,
	data []byte,
	fileName string,
	log *zap.Logger,
	fn func(src port.VideoSource, meta entity.VideoMetadata) error,
) error {
	tracer := otel.Tracer("usecase")

	persistStart := time.Now()
	_, spanPersist := tracer.Start(ctx, "persist_upload")
	path, err := uc.persistUpload(data, fileName)
	spanPersist.End()
	if err != nil {
		return fmt.Errorf("persist upload: %w", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("failed to remove temporary video", zap.String("path", path), zap.Error(err))
		}
	}()
	metrics.StageDuration.WithLabelValues("persist").Observe(time.Since(persistStart).Seconds())

	src, err := uc.opener.Open(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %w", entity.ErrDecodeOpen, err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.Warn("failed to close video source", zap.Error(err))
		}
	}()

	probeStart := time.Now()
	probeCtx, spanProbe := tracer.Start(ctx, "probe")
	info, err := src.Probe(probeCtx)
	spanProbe.End()
	if err != nil {
		return fmt.Errorf("%w: %w", entity.ErrProbe, err)
	}
	metrics.StageDuration.WithLabelValues("probe").Observe(time.Since(probeStart).Seconds())

	if info.ContainerFormat == "" {
		info.ContainerFormat = containerExtension(fileName)
	}

	return fn(src, entity.NewVideoMetadata(fileName, int64(len(data)), info))
}

func (uc *ExtractFramesUseCase) persistUpload(data []byte, fileName string) (string, error) {
	if err := os.MkdirAll(uc.cfg.TempDir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(uc.cfg.TempDir, uuid.NewString()+"."+containerExtension(fileName))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// encodeSamples turns raw frames into response samples, encoding them when the
// request asks for it. Encode failures surface as *entity.FrameError.
func (uc *ExtractFramesUseCase) encodeSamples(raw iter.Seq2[entity.RawSample, error], req entity.SamplingRequest) iter.Seq2[entity.FrameSample, error] {
	return func(yield func(entity.FrameSample, error) bool) {
		for sample, err := range raw {
			if err != nil {
				if !yield(entity.FrameSample{}, err) {
					return
				}
				continue
			}
			if !yield(uc.toFrameSample(sample, req)) {
				return
			}
		}
	}
}

func (uc *ExtractFramesUseCase) toFrameSample(raw entity.RawSample, req entity.SamplingRequest) (entity.FrameSample, error) {
	tsMs := int64(math.Round(raw.TimestampSeconds * 1000))
	if raw.Image == nil {
		return entity.FrameSample{}, &entity.FrameError{Stage: entity.StageEncode, TimestampMs: tsMs, Err: errors.New("empty frame")}
	}

	bounds := raw.Image.Bounds()
	sample := entity.FrameSample{
		FrameNumber:      raw.FrameNumber,
		TimestampSeconds: raw.TimestampSeconds,
		Width:            bounds.Dx(),
		Height:           bounds.Dy(),
	}
	if !req.ReturnEncoded {
		return sample, nil
	}

	encoded, err := uc.encoder.Encode(raw.Image, req.OutputFormat, req.ImageQuality)
	if err != nil {
		return entity.FrameSample{}, &entity.FrameError{Stage: entity.StageEncode, TimestampMs: tsMs, Err: err}
	}
	sample.EncodedData = imagecodec.ToBase64(encoded)
	return sample, nil
}

// collect drains the sequence, dropping per-frame failures. Any other error
// aborts the extraction. Frames are numbered over the samples kept, so a frame
// dropped at the encode stage leaves no gap.
func (uc *ExtractFramesUseCase) collect(ctx context.Context, seq iter.Seq2[entity.FrameSample, error], log *zap.Logger) ([]entity.FrameSample, error) {
	samples := make([]entity.FrameSample, 0)
	for sample, err := range seq {
		if err != nil {
			var frameErr *entity.FrameError
			if !errors.As(err, &frameErr) {
				return nil, err
			}
			metrics.FramesDroppedTotal.WithLabelValues(frameErr.Stage).Inc()
			trace.SpanFromContext(ctx).AddEvent("frame_dropped", trace.WithAttributes(
				attribute.String("stage", frameErr.Stage),
				attribute.Int64("timestamp_ms", frameErr.TimestampMs),
			))
			log.Debug("frame dropped", zap.String("stage", frameErr.Stage), zap.Int64("timestamp_ms", frameErr.TimestampMs), zap.Error(frameErr.Err))
			continue
		}
		sample.FrameNumber = len(samples) + 1
		samples = append(samples, sample)
	}
	return samples, nil
}

func containerExtension(fileName string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
}
