package entity

import "fmt"

const (
	DefaultOutputFormat = "jpg"
	DefaultImageQuality = 85

	// MaxTimestampSeconds bounds every time value in a request (one week).
	MaxTimestampSeconds = 7 * 24 * 60 * 60
	// MaxSamplePoints bounds how many seeks a single interval plan may issue.
	MaxSamplePoints = 100_000
)

// SamplingRequest describes which part of the video to sample and how to encode
// the frames. A nil IntervalSeconds selects every frame in the window; a nil
// EndSeconds extends the window to the end of the stream.
type SamplingRequest struct {
	IntervalSeconds *int   `json:"intervalSeconds,omitempty"`
	StartSeconds    int    `json:"startTimeSeconds"`
	EndSeconds      *int   `json:"endTimeSeconds,omitempty"`
	OutputFormat    string `json:"outputFormat"`
	ImageQuality    int    `json:"imageQuality"`
	ReturnEncoded   bool   `json:"returnBase64"`
}

func NewSamplingRequest() SamplingRequest {
	return SamplingRequest{
		OutputFormat:  DefaultOutputFormat,
		ImageQuality:  DefaultImageQuality,
		ReturnEncoded: true,
	}
}

func (r SamplingRequest) Validate() error {
	if r.IntervalSeconds != nil && *r.IntervalSeconds <= 0 {
		return fmt.Errorf("%w: interval must be greater than 0 seconds", ErrInvalidRequest)
	}
	if r.IntervalSeconds != nil && *r.IntervalSeconds > MaxTimestampSeconds {
		return fmt.Errorf("%w: interval must be at most %d seconds", ErrInvalidRequest, MaxTimestampSeconds)
	}
	if r.StartSeconds < 0 {
		return fmt.Errorf("%w: start time cannot be negative", ErrInvalidRequest)
	}
	if r.StartSeconds > MaxTimestampSeconds {
		return fmt.Errorf("%w: start time must be at most %d seconds", ErrInvalidWindow, MaxTimestampSeconds)
	}
	if r.EndSeconds != nil && *r.EndSeconds > MaxTimestampSeconds {
		return fmt.Errorf("%w: end time must be at most %d seconds", ErrInvalidWindow, MaxTimestampSeconds)
	}
	if r.EndSeconds != nil && *r.EndSeconds <= r.StartSeconds {
		return fmt.Errorf("%w: end time must be greater than start time", ErrInvalidWindow)
	}
	if r.ImageQuality < 1 || r.ImageQuality > 100 {
		return fmt.Errorf("%w: image quality must be between 1 and 100", ErrInvalidRequest)
	}
	return nil
}
