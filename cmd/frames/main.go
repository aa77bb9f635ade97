package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "frames",
		Usage: "Sample still frames from a local video",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "ffmpeg",
				Value:   "ffmpeg",
				Usage:   "Path to the ffmpeg binary",
				EnvVars: []string{"FFMPEG_PATH"},
			},
			&cli.StringFlag{
				Name:    "ffprobe",
				Value:   "ffprobe",
				Usage:   "Path to the ffprobe binary",
				EnvVars: []string{"FFPROBE_PATH"},
			},
		},
		Commands: []*cli.Command{
			infoCommand(),
			extractCommand(),
			enqueueCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
