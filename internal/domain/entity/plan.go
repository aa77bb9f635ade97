package entity

type PlanMode int

const (
	PlanAllFrames PlanMode = iota
	PlanIntervalPoints
)

func (m PlanMode) String() string {
	switch m {
	case PlanAllFrames:
		return "all_frames"
	case PlanIntervalPoints:
		return "interval_points"
	default:
		return "unknown"
	}
}

// SamplePlan is computed before any decoding and never changes with decode
// outcomes. StartMs/EndMs are set in both modes; TimestampsMs only for
// PlanIntervalPoints.
type SamplePlan struct {
	Mode         PlanMode
	StartMs      int64
	EndMs        int64
	TimestampsMs []int64
}
