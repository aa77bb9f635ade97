package entity

import "image"

// RawSample is a decoded frame tagged with its position in the response.
type RawSample struct {
	FrameNumber      int
	TimestampSeconds float64
	Image            image.Image
}

type FrameSample struct {
	FrameNumber      int     `json:"frameNumber"`
	TimestampSeconds float64 `json:"timestampSeconds"`
	EncodedData      string  `json:"base64Data,omitempty"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
}

type ExtractionResult struct {
	Succeeded        bool           `json:"success"`
	Message          string         `json:"message"`
	Metadata         *VideoMetadata `json:"videoInfo,omitempty"`
	Samples          []FrameSample  `json:"frames"`
	TotalExtracted   int            `json:"totalFramesExtracted"`
	ProcessingTimeMs int64          `json:"processingTimeMs"`

	// Err is the cause of a failed extraction. It never crosses the wire.
	Err error `json:"-"`
}
