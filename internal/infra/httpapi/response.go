package httpapi

import "github.com/petrichar777/Video-Frame-Extractor/internal/domain/entity"

type errorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type dataResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp int64  `json:"timestamp"`
}

type supportedFormats struct {
	VideoFormats []string `json:"videoFormats"`
	ImageFormats []string `json:"imageFormats"`
}

type base64OnlyResponse struct {
	Success              bool     `json:"success"`
	Message              string   `json:"message"`
	Base64Frames         []string `json:"base64Frames"`
	TotalFramesExtracted int      `json:"totalFramesExtracted"`
	ProcessingTimeMs     int64    `json:"processingTimeMs"`
	Timestamp            int64    `json:"timestamp"`
}

// contentBlock is one entry of a chat-style multimodal message.
type contentBlock struct {
	Type  string `json:"type"`
	Image string `json:"image,omitempty"`
	Text  string `json:"text,omitempty"`
}

type chatContent struct {
	Content []contentBlock `json:"content"`
}

type chatFormatResponse struct {
	Success              bool        `json:"success"`
	Message              string      `json:"message"`
	JSONFormat           chatContent `json:"jsonFormat"`
	TotalFramesExtracted int         `json:"totalFramesExtracted"`
	ProcessingTimeMs     int64       `json:"processingTimeMs"`
	Timestamp            int64       `json:"timestamp"`
}

func base64Frames(samples []entity.FrameSample) []string {
	out := make([]string, 0, len(samples))
	for _, s := range samples {
		out = append(out, s.EncodedData)
	}
	return out
}

// chatBlocks lists every frame as an image block followed by a single text
// block carrying the prompt.
func chatBlocks(samples []entity.FrameSample, prompt string) []contentBlock {
	out := make([]contentBlock, 0, len(samples)+1)
	for _, s := range samples {
		out = append(out, contentBlock{Type: "image", Image: s.EncodedData})
	}
	return append(out, contentBlock{Type: "text", Text: prompt})
}
