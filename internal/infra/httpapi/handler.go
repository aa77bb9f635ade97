package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/entity"
	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/port"
	"go.uber.org/zap"
)

const serviceName = "Video Frame Extractor"

// Extractor is satisfied by usecase.ExtractFramesUseCase.
type Extractor interface {
	Execute(ctx context.Context, data []byte, fileName string, req entity.SamplingRequest) *entity.ExtractionResult
	Inspect(ctx context.Context, data []byte, fileName string) (*entity.VideoMetadata, error)
}

type HandlerConfig struct {
	VideoFormats []string
	ImageFormats []string
	Defaults     entity.SamplingRequest
	PromptText   string
}

type Handler struct {
	extractor Extractor
	archiver  port.FrameArchiver
	cfg       HandlerConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewHandler(extractor Extractor, archiver port.FrameArchiver, cfg HandlerConfig, logger *zap.Logger) *Handler {
	return &Handler{
		extractor: extractor,
		archiver:  archiver,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (h *Handler) Register(e *echo.Echo) {
	g := e.Group("/video")
	g.GET("/health", h.Health)
	g.GET("/supported-formats", h.SupportedFormats)
	g.POST("/info", h.Info)
	g.POST("/extract-frames", h.ExtractFrames)
	g.POST("/extract-frames-json", h.ExtractFramesJSON)
	g.POST("/extract-frames-base64-only", h.ExtractFramesBase64Only)
	g.POST("/extract-frames-json-format", h.ExtractFramesChatFormat)
	g.POST("/extract-frames-zip", h.ExtractFramesZip)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:    "UP",
		Service:   serviceName,
		Timestamp: h.timestamp(),
	})
}

func (h *Handler) SupportedFormats(c echo.Context) error {
	return c.JSON(http.StatusOK, dataResponse{
		Success: true,
		Message: "supported formats",
		Data: supportedFormats{
			VideoFormats: h.cfg.VideoFormats,
			ImageFormats: h.cfg.ImageFormats,
		},
		Timestamp: h.timestamp(),
	})
}

func (h *Handler) Info(c echo.Context) error {
	data, fileName, err := readUpload(c)
	if err != nil {
		return h.badRequest(c, err)
	}

	meta, err := h.extractor.Inspect(c.Request().Context(), data, fileName)
	if err != nil {
		if entity.IsValidationError(err) {
			return h.badRequest(c, err)
		}
		h.logger.Error("video info failed", zap.String("file_name", fileName), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, h.errorBody("failed to read video info: "+err.Error()))
	}

	return c.JSON(http.StatusOK, dataResponse{
		Success:   true,
		Message:   "video info retrieved",
		Data:      meta,
		Timestamp: h.timestamp(),
	})
}

func (h *Handler) ExtractFrames(c echo.Context) error {
	req, err := formRequest(c, h.cfg.Defaults)
	if err != nil {
		return h.badRequest(c, err)
	}
	result, done, err := h.extract(c, req)
	if done {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) ExtractFramesJSON(c echo.Context) error {
	req, err := jsonRequest(c, h.cfg.Defaults)
	if err != nil {
		return h.badRequest(c, err)
	}
	result, done, err := h.extract(c, req)
	if done {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) ExtractFramesBase64Only(c echo.Context) error {
	req, err := formRequest(c, h.cfg.Defaults)
	if err != nil {
		return h.badRequest(c, err)
	}
	req.ReturnEncoded = true

	result, done, err := h.extract(c, req)
	if done {
		return err
	}
	return c.JSON(http.StatusOK, base64OnlyResponse{
		Success:              true,
		Message:              "frames extracted successfully",
		Base64Frames:         base64Frames(result.Samples),
		TotalFramesExtracted: result.TotalExtracted,
		ProcessingTimeMs:     result.ProcessingTimeMs,
		Timestamp:            h.timestamp(),
	})
}

// ExtractFramesChatFormat samples one frame per second and wraps them as
// image blocks followed by the prompt text.
func (h *Handler) ExtractFramesChatFormat(c echo.Context) error {
	prompt := strings.TrimSpace(c.FormValue("promptText"))
	if prompt == "" {
		prompt = h.cfg.PromptText
	}

	interval := 1
	req := entity.NewSamplingRequest()
	req.IntervalSeconds = &interval

	result, done, err := h.extract(c, req)
	if done {
		return err
	}
	return c.JSON(http.StatusOK, chatFormatResponse{
		Success:              true,
		Message:              "chat format generated",
		JSONFormat:           chatContent{Content: chatBlocks(result.Samples, prompt)},
		TotalFramesExtracted: result.TotalExtracted,
		ProcessingTimeMs:     result.ProcessingTimeMs,
		Timestamp:            h.timestamp(),
	})
}

func (h *Handler) ExtractFramesZip(c echo.Context) error {
	req, err := formRequest(c, h.cfg.Defaults)
	if err != nil {
		return h.badRequest(c, err)
	}
	req.ReturnEncoded = true

	result, done, err := h.extract(c, req)
	if done {
		return err
	}

	var buf bytes.Buffer
	if err := h.archiver.WriteZip(c.Request().Context(), &buf, result.Samples, req.OutputFormat); err != nil {
		h.logger.Error("zip creation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, h.errorBody("zip creation failed: "+err.Error()))
	}

	name := "video"
	if result.Metadata != nil {
		base := filepath.Base(result.Metadata.FileName)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name+"_frames.zip"))
	return c.Blob(http.StatusOK, "application/zip", buf.Bytes())
}

// extract validates and runs one extraction. When done is true the response
// has already been written and err is what the handler must return.
func (h *Handler) extract(c echo.Context, req entity.SamplingRequest) (*entity.ExtractionResult, bool, error) {
	data, fileName, err := readUpload(c)
	if err != nil {
		return nil, true, h.badRequest(c, err)
	}
	if err := req.Validate(); err != nil {
		return nil, true, h.badRequest(c, err)
	}

	result := h.extractor.Execute(c.Request().Context(), data, fileName, req)
	if !result.Succeeded {
		status := http.StatusInternalServerError
		if entity.IsValidationError(result.Err) {
			status = http.StatusBadRequest
		}
		return nil, true, c.JSON(status, result)
	}
	return result, false, nil
}

func readUpload(c echo.Context) ([]byte, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("%w: video file is required", entity.ErrInvalidRequest)
	}
	if fh.Size == 0 {
		return nil, "", entity.ErrEmptyUpload
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, "", entity.ErrEmptyUpload
	}
	return data, fh.Filename, nil
}

func (h *Handler) badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, h.errorBody(err.Error()))
}

func (h *Handler) errorBody(message string) errorResponse {
	return errorResponse{Success: false, Message: message, Timestamp: h.timestamp()}
}

func (h *Handler) timestamp() int64 {
	return h.now().UnixMilli()
}
