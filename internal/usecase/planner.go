package usecase

import (
	"fmt"

	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/entity"
)

// PlanSamples turns a request window into a sample plan. It is pure: the plan
// depends only on the metadata and the request, never on decode outcomes.
//
// The window end defaults to the stream duration. Interval points are
// generated over the half-open window [start, end).
func PlanSamples(meta entity.VideoMetadata, req entity.SamplingRequest) (entity.SamplePlan, error) {
	if req.StartSeconds < 0 {
		return entity.SamplePlan{}, fmt.Errorf("%w: start time cannot be negative", entity.ErrInvalidRequest)
	}
	if req.StartSeconds > entity.MaxTimestampSeconds ||
		(req.EndSeconds != nil && *req.EndSeconds > entity.MaxTimestampSeconds) {
		return entity.SamplePlan{}, fmt.Errorf("%w: times must be at most %d seconds", entity.ErrInvalidWindow, entity.MaxTimestampSeconds)
	}

	startMs := int64(req.StartSeconds) * 1000
	endMs := meta.DurationMs
	if req.EndSeconds != nil {
		endMs = int64(*req.EndSeconds) * 1000
	}

	if startMs >= endMs {
		return entity.SamplePlan{}, fmt.Errorf("%w: start %dms is not before end %dms", entity.ErrInvalidWindow, startMs, endMs)
	}

	if req.IntervalSeconds == nil {
		return entity.SamplePlan{
			Mode:    entity.PlanAllFrames,
			StartMs: startMs,
			EndMs:   endMs,
		}, nil
	}

	if *req.IntervalSeconds <= 0 || *req.IntervalSeconds > entity.MaxTimestampSeconds {
		return entity.SamplePlan{}, fmt.Errorf("%w: interval must be between 1 and %d seconds", entity.ErrInvalidRequest, entity.MaxTimestampSeconds)
	}
	intervalMs := int64(*req.IntervalSeconds) * 1000

	count := (endMs - startMs + intervalMs - 1) / intervalMs
	if count > entity.MaxSamplePoints {
		return entity.SamplePlan{}, fmt.Errorf("%w: window yields %d sample points, at most %d allowed", entity.ErrInvalidRequest, count, entity.MaxSamplePoints)
	}

	points := make([]int64, 0, count)
	for ts := startMs; ts < endMs; ts += intervalMs {
		points = append(points, ts)
	}

	return entity.SamplePlan{
		Mode:         entity.PlanIntervalPoints,
		StartMs:      startMs,
		EndMs:        endMs,
		TimestampsMs: points,
	}, nil
}
