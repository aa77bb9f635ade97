package ffmpeg

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/entity"
)

type ffprobeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	AvgFrameRate string `json:"avg_frame_rate,omitempty"`
	RFrameRate   string `json:"r_frame_rate,omitempty"`
	Duration     string `json:"duration,omitempty"`
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
}

var errNoVideoStream = errors.New("no video stream")

func probeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
}

// parseProbeOutput reads ffprobe's JSON. Missing duration or frame rate
// are reported as zero rather than failing the probe.
func parseProbeOutput(data []byte, path string) (entity.StreamInfo, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return entity.StreamInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	idx := slices.IndexFunc(out.Streams, func(s ffprobeStream) bool {
		return s.CodecType == "video"
	})
	if idx < 0 {
		return entity.StreamInfo{}, errNoVideoStream
	}
	stream := out.Streams[idx]

	info := entity.StreamInfo{
		Width:           stream.Width,
		Height:          stream.Height,
		ContainerFormat: containerFormat(out.Format.FormatName, path),
	}

	info.FrameRate = parseRational(stream.AvgFrameRate)
	if info.FrameRate == 0 {
		info.FrameRate = parseRational(stream.RFrameRate)
	}

	if secs, ok := parseSeconds(out.Format.Duration); ok {
		info.DurationMs = secondsToMillis(secs)
	} else if secs, ok := parseSeconds(stream.Duration); ok {
		info.DurationMs = secondsToMillis(secs)
	}

	return info, nil
}

// parseRational handles ffprobe's "num/den" rates. "0/0" means unknown.
func parseRational(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 {
			return 0
		}
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d <= 0 || n < 0 {
		return 0
	}
	return n / d
}

func parseSeconds(s string) (float64, bool) {
	if s == "" || s == "N/A" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func secondsToMillis(secs float64) int64 {
	return int64(math.Round(secs*1e6)) / 1000
}

// containerFormat picks a single name out of ffprobe's demuxer list
// ("mov,mp4,m4a,3gp,3g2,mj2"), preferring the one matching the file extension.
func containerFormat(formatName, path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if formatName == "" {
		return ext
	}
	names := strings.Split(formatName, ",")
	if ext != "" && slices.Contains(names, ext) {
		return ext
	}
	return names[0]
}
