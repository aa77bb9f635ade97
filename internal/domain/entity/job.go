package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// Job tracks an asynchronous extraction. Only the outcome summary is kept;
// extracted frames travel with the status message and are never stored.
type Job struct {
	ID               uuid.UUID
	UserID           string
	VideoKey         string
	FileName         string
	Status           JobStatus
	FrameCount       int
	FileSize         int64
	VideoDurationMs  int64
	ProcessingTimeMs int64
	Attempt          int
	MaxAttempts      int
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time
}

func NewJob(userID, videoKey, fileName string, fileSize int64, maxAttempts int) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:          uuid.New(),
		UserID:      userID,
		VideoKey:    videoKey,
		FileName:    fileName,
		FileSize:    fileSize,
		Status:      JobStatusPending,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *Job) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) MarkCompleted(result *ExtractionResult) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.FrameCount = result.TotalExtracted
	j.ProcessingTimeMs = result.ProcessingTimeMs
	if result.Metadata != nil {
		j.VideoDurationMs = result.Metadata.DurationMs
	}
	j.ErrorMessage = ""
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *Job) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
