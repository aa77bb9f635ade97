package entity

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ExtractionJobMessage is the inbound message from the frames.extract queue.
type ExtractionJobMessage struct {
	JobID     uuid.UUID       `json:"job_id"`
	UserID    string          `json:"user_id"`
	VideoKey  string          `json:"video_key"`
	FileName  string          `json:"file_name"`
	FileSize  int64           `json:"file_size"`
	UserEmail string          `json:"user_email"`
	Options   json.RawMessage `json:"options,omitempty"`
}

// Request decodes the message options on top of the default sampling request,
// so producers only need to send what they change.
func (m ExtractionJobMessage) Request() (SamplingRequest, error) {
	req := NewSamplingRequest()
	if len(m.Options) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(m.Options, &req); err != nil {
		return req, fmt.Errorf("%w: options: %v", ErrInvalidRequest, err)
	}
	return req, nil
}

// ExtractionStatusMessage is the outbound message published to the frames.status queue.
type ExtractionStatusMessage struct {
	JobID            uuid.UUID         `json:"job_id"`
	UserID           string            `json:"user_id"`
	Status           JobStatus         `json:"status"`
	VideoKey         string            `json:"video_key"`
	FrameCount       int               `json:"frame_count,omitempty"`
	DurationMs       int64             `json:"duration_ms,omitempty"`
	ProcessingTimeMs int64             `json:"processing_time_ms,omitempty"`
	ErrorMessage     string            `json:"error_message,omitempty"`
	Attempt          int               `json:"attempt"`
	MaxAttempts      int               `json:"max_attempts"`
	Result           *ExtractionResult `json:"result,omitempty"`
}
