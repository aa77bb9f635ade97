package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/entity"
)

const maxRequestPartBytes = 64 << 10

// formRequest applies the multipart form options on top of defaults.
func formRequest(c echo.Context, defaults entity.SamplingRequest) (entity.SamplingRequest, error) {
	req := defaults

	interval, err := formInt(c, "intervalSeconds")
	if err != nil {
		return req, err
	}
	if interval != nil {
		req.IntervalSeconds = interval
	}

	start, err := formInt(c, "startTimeSeconds")
	if err != nil {
		return req, err
	}
	if start != nil {
		req.StartSeconds = *start
	}

	end, err := formInt(c, "endTimeSeconds")
	if err != nil {
		return req, err
	}
	if end != nil {
		req.EndSeconds = end
	}

	if format := strings.TrimSpace(c.FormValue("outputFormat")); format != "" {
		req.OutputFormat = format
	}

	quality, err := formInt(c, "imageQuality")
	if err != nil {
		return req, err
	}
	if quality != nil {
		req.ImageQuality = *quality
	}

	if raw := strings.TrimSpace(c.FormValue("returnBase64")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return req, fmt.Errorf("%w: returnBase64 must be true or false", entity.ErrInvalidRequest)
		}
		req.ReturnEncoded = v
	}

	return req, nil
}

func formInt(c echo.Context, name string) (*int, error) {
	raw := strings.TrimSpace(c.FormValue(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", entity.ErrInvalidRequest, name)
	}
	return &v, nil
}

// jsonRequest reads the "request" part, sent either as a plain form field or
// as a file part with a JSON content type.
func jsonRequest(c echo.Context, defaults entity.SamplingRequest) (entity.SamplingRequest, error) {
	req := defaults

	raw := []byte(c.FormValue("request"))
	if len(raw) == 0 {
		fh, err := c.FormFile("request")
		if err != nil {
			return req, fmt.Errorf("%w: request part is required", entity.ErrInvalidRequest)
		}
		f, err := fh.Open()
		if err != nil {
			return req, fmt.Errorf("%w: cannot read request part", entity.ErrInvalidRequest)
		}
		defer f.Close()
		if raw, err = io.ReadAll(io.LimitReader(f, maxRequestPartBytes)); err != nil {
			return req, fmt.Errorf("%w: cannot read request part", entity.ErrInvalidRequest)
		}
	}

	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("%w: malformed request JSON: %v", entity.ErrInvalidRequest, err)
	}
	return req, nil
}
