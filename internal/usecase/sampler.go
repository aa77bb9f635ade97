package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"iter"

	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/entity"
	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/port"
)

// FrameSampler drives a VideoSource according to a SamplePlan.
type FrameSampler struct{}

func NewFrameSampler() *FrameSampler {
	return &FrameSampler{}
}

// Sample returns a lazy sequence of decoded frames. Per-frame failures are
// yielded as *entity.FrameError and the caller is free to skip them; any other
// error is terminal and ends the sequence.
//
// The source is owned by the sequence while it is being ranged over. Seeks are
// issued in non-decreasing timestamp order.
func (s *FrameSampler) Sample(ctx context.Context, src port.VideoSource, plan entity.SamplePlan) iter.Seq2[entity.RawSample, error] {
	return func(yield func(entity.RawSample, error) bool) {
		switch plan.Mode {
		case entity.PlanIntervalPoints:
			s.sampleIntervalPoints(ctx, src, plan, yield)
		default:
			s.sampleAllFrames(ctx, src, plan, yield)
		}
	}
}

func (s *FrameSampler) sampleAllFrames(ctx context.Context, src port.VideoSource, plan entity.SamplePlan, yield func(entity.RawSample, error) bool) {
	if plan.StartMs > 0 {
		if err := src.Seek(ctx, plan.StartMs*1000); err != nil {
			yield(entity.RawSample{}, fmt.Errorf("seek to %dms: %w", plan.StartMs, err))
			return
		}
	}

	frameNumber := 0
	for {
		if err := ctx.Err(); err != nil {
			yield(entity.RawSample{}, err)
			return
		}

		img, err := src.DecodeNext(ctx)
		if errors.Is(err, port.ErrEndOfStream) {
			return
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield(entity.RawSample{}, ctxErr)
				return
			}
			// The decoder cannot resume past a broken region; keep what we have.
			yield(entity.RawSample{}, &entity.FrameError{
				Stage:       entity.StageDecode,
				TimestampMs: src.CurrentTimestamp() / 1000,
				Err:         err,
			})
			return
		}

		tsMs := src.CurrentTimestamp() / 1000
		if tsMs > plan.EndMs {
			return
		}
		if tsMs < plan.StartMs {
			continue
		}

		frameNumber++
		sample := entity.RawSample{
			FrameNumber:      frameNumber,
			TimestampSeconds: float64(tsMs) / 1000,
			Image:            img,
		}
		if !yield(sample, nil) {
			return
		}
	}
}

func (s *FrameSampler) sampleIntervalPoints(ctx context.Context, src port.VideoSource, plan entity.SamplePlan, yield func(entity.RawSample, error) bool) {
	frameNumber := 0
	for _, tsMs := range plan.TimestampsMs {
		if err := ctx.Err(); err != nil {
			yield(entity.RawSample{}, err)
			return
		}

		img, err := decodeAt(ctx, src, tsMs)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield(entity.RawSample{}, ctxErr)
				return
			}
			frameErr := &entity.FrameError{Stage: entity.StageDecode, TimestampMs: tsMs, Err: err}
			if !yield(entity.RawSample{}, frameErr) {
				return
			}
			// Points are increasing, so every later seek is past the end too.
			if errors.Is(err, port.ErrEndOfStream) {
				return
			}
			continue
		}

		frameNumber++
		sample := entity.RawSample{
			FrameNumber:      frameNumber,
			TimestampSeconds: float64(tsMs) / 1000,
			Image:            img,
		}
		if !yield(sample, nil) {
			return
		}
	}
}

func decodeAt(ctx context.Context, src port.VideoSource, tsMs int64) (image.Image, error) {
	if err := src.Seek(ctx, tsMs*1000); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}
	return src.DecodeNext(ctx)
}
