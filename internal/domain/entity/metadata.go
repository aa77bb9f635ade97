package entity

import "math"

// StreamInfo is what a probe of the decodable stream reports.
type StreamInfo struct {
	DurationMs      int64
	FrameRate       float64
	Width           int
	Height          int
	ContainerFormat string
}

type VideoMetadata struct {
	FileName        string  `json:"fileName"`
	DurationMs      int64   `json:"duration"`
	FrameRate       float64 `json:"frameRate"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	FileSizeBytes   int64   `json:"fileSize"`
	ContainerFormat string  `json:"format"`
	TotalFrames     int64   `json:"totalFrames"`
}

func NewVideoMetadata(fileName string, fileSize int64, info StreamInfo) VideoMetadata {
	return VideoMetadata{
		FileName:        fileName,
		DurationMs:      info.DurationMs,
		FrameRate:       info.FrameRate,
		Width:           info.Width,
		Height:          info.Height,
		FileSizeBytes:   fileSize,
		ContainerFormat: info.ContainerFormat,
		TotalFrames:     int64(math.Floor(float64(info.DurationMs) * info.FrameRate / 1000)),
	}
}
