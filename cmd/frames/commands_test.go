package main

import (
	"testing"

	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func parseRequest(t *testing.T, args ...string) entity.SamplingRequest {
	t.Helper()
	var got entity.SamplingRequest
	app := &cli.App{
		Commands: []*cli.Command{{
			Name:  "extract",
			Flags: samplingFlags(),
			Action: func(c *cli.Context) error {
				got = requestFromFlags(c)
				return nil
			},
		}},
	}
	require.NoError(t, app.Run(append([]string{"frames", "extract"}, args...)))
	return got
}

func TestRequestFromFlags(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		got := parseRequest(t, "clip.mp4")

		assert.Equal(t, entity.NewSamplingRequest(), got)
	})

	t.Run("all options", func(t *testing.T) {
		got := parseRequest(t, "--interval", "2", "--start", "1", "--end", "9", "-f", "png", "-q", "60", "--no-base64", "clip.mp4")

		require.NotNil(t, got.IntervalSeconds)
		require.NotNil(t, got.EndSeconds)
		assert.Equal(t, 2, *got.IntervalSeconds)
		assert.Equal(t, 1, got.StartSeconds)
		assert.Equal(t, 9, *got.EndSeconds)
		assert.Equal(t, "png", got.OutputFormat)
		assert.Equal(t, 60, got.ImageQuality)
		assert.False(t, got.ReturnEncoded)
	})

	t.Run("explicit zero interval is kept for validation", func(t *testing.T) {
		got := parseRequest(t, "--interval", "0", "clip.mp4")

		require.NotNil(t, got.IntervalSeconds)
		assert.Error(t, got.Validate())
	})
}
