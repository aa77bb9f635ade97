package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/entity"
	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/port"
	"go.uber.org/zap"
)

const (
	stderrTailLines = 8
	maxFramePixels  = 16384 * 16384
)

var errSourceClosed = errors.New("video source is closed")

// Decoder opens files as VideoSources backed by the ffmpeg and ffprobe
// binaries.
type Decoder struct {
	ffmpegPath  string
	ffprobePath string
	logger      *zap.Logger
}

func NewDecoder(ffmpegPath, ffprobePath string, logger *zap.Logger) *Decoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Decoder{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath, logger: logger}
}

func (d *Decoder) Open(ctx context.Context, path string) (port.VideoSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	ffmpegBin, err := exec.LookPath(d.ffmpegPath)
	if err != nil {
		return nil, fmt.Errorf("locate ffmpeg: %w", err)
	}
	ffprobeBin, err := exec.LookPath(d.ffprobePath)
	if err != nil {
		return nil, fmt.Errorf("locate ffprobe: %w", err)
	}

	return &Source{
		path:        path,
		ffmpegPath:  ffmpegBin,
		ffprobePath: ffprobeBin,
		logger:      d.logger.With(zap.String("component", "ffmpeg")),
	}, nil
}

// Source decodes the first video stream of a file by piping raw RGBA frames
// out of an ffmpeg process. A seek restarts the process at the new position.
type Source struct {
	path        string
	ffmpegPath  string
	ffprobePath string
	logger      *zap.Logger

	seekMicros int64
	lastMicros int64
	proc       *decodeProcess
	closed     bool
}

func (s *Source) Probe(ctx context.Context) (entity.StreamInfo, error) {
	if s.closed {
		return entity.StreamInfo{}, errSourceClosed
	}

	cmd := exec.CommandContext(ctx, s.ffprobePath, probeArgs(s.path)...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return entity.StreamInfo{}, fmt.Errorf("ffprobe: %w: %s", err, firstLine(exitErr.Stderr))
		}
		return entity.StreamInfo{}, fmt.Errorf("ffprobe: %w", err)
	}

	info, err := parseProbeOutput(output, s.path)
	if err != nil {
		return entity.StreamInfo{}, err
	}

	s.logger.Debug("video probed",
		zap.Int64("duration_ms", info.DurationMs),
		zap.Float64("frame_rate", info.FrameRate),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
		zap.String("format", info.ContainerFormat),
	)
	return info, nil
}

func (s *Source) Seek(ctx context.Context, timestampMicros int64) error {
	if s.closed {
		return errSourceClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.stopProcess()
	s.seekMicros = max(timestampMicros, 0)
	s.lastMicros = timestampMicros
	return nil
}

func (s *Source) DecodeNext(ctx context.Context) (image.Image, error) {
	if s.closed {
		return nil, errSourceClosed
	}
	if s.proc == nil {
		proc, err := s.startProcess()
		if err != nil {
			return nil, err
		}
		s.proc = proc
	}

	img, pts, err := s.proc.next(ctx)
	if err != nil {
		return nil, err
	}
	s.lastMicros = s.seekMicros + pts
	return img, nil
}

func (s *Source) CurrentTimestamp() int64 {
	return s.lastMicros
}

func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stopProcess()
	return nil
}

func (s *Source) stopProcess() {
	if s.proc != nil {
		s.proc.stop()
		s.proc = nil
	}
}

func (s *Source) decodeArgs() []string {
	args := []string{"-hide_banner", "-nostdin", "-loglevel", "info"}
	if s.seekMicros > 0 {
		args = append(args, "-ss", strconv.FormatFloat(float64(s.seekMicros)/1e6, 'f', 6, 64))
	}
	return append(args,
		"-i", s.path,
		"-map", "0:v:0",
		"-an", "-sn",
		"-vf", "showinfo",
		"-fps_mode", "passthrough",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1",
	)
}

func (s *Source) startProcess() (*decodeProcess, error) {
	// The process outlives any single DecodeNext call, so it gets its own
	// context. next() kills it if the caller's context ends mid-read.
	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, s.ffmpegPath, s.decodeArgs()...)
	cmd.WaitDelay = 2 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("ffmpeg stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	s.logger.Debug("ffmpeg started", zap.Int64("seek_us", s.seekMicros), zap.Int("pid", cmd.Process.Pid))

	p := &decodeProcess{
		cmd:        cmd,
		cancel:     cancel,
		stdout:     bufio.NewReaderSize(stdout, 1<<20),
		infos:      make(chan frameInfo, 64),
		quit:       make(chan struct{}),
		stderrDone: make(chan struct{}),
		stderrLog:  newStderrLog(64),
	}
	go p.readStderr(stderr)
	return p, nil
}

type frameInfo struct {
	ptsMicros int64
	ptsKnown  bool
	width     int
	height    int
}

type decodeProcess struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stdout *bufio.Reader
	infos  chan frameInfo

	quit       chan struct{}
	quitOnce   sync.Once
	stderrDone chan struct{}
	stderrLog  *stderrLog

	waitOnce sync.Once
	waitErr  error

	lastPts int64
	doneErr error
}

func (p *decodeProcess) readStderr(r io.Reader) {
	defer close(p.stderrDone)
	defer close(p.infos)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		info, ok := parseShowinfo(line)
		if !ok {
			p.stderrLog.add(line)
			continue
		}
		select {
		case p.infos <- info:
		case <-p.quit:
			return
		}
	}
	if err := sc.Err(); err != nil {
		p.stderrLog.add("stderr: " + err.Error())
		p.cancel()
	}
}

func (p *decodeProcess) next(ctx context.Context) (image.Image, int64, error) {
	if p.doneErr != nil {
		return nil, 0, p.doneErr
	}

	var info frameInfo
	select {
	case i, ok := <-p.infos:
		if !ok {
			p.doneErr = p.exitError()
			return nil, 0, p.doneErr
		}
		info = i
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	}

	if info.width <= 0 || info.height <= 0 || info.width*info.height > maxFramePixels {
		return nil, 0, fmt.Errorf("invalid frame size %dx%d", info.width, info.height)
	}

	stopKill := context.AfterFunc(ctx, p.cancel)
	defer stopKill()

	img := image.NewNRGBA(image.Rect(0, 0, info.width, info.height))
	if _, err := io.ReadFull(p.stdout, img.Pix); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			p.doneErr = ctxErr
			p.stop()
			return nil, 0, ctxErr
		}
		p.stop()
		p.doneErr = fmt.Errorf("read frame: %w: %s", err, p.stderrLog.last(stderrTailLines))
		return nil, 0, p.doneErr
	}

	if info.ptsKnown {
		p.lastPts = info.ptsMicros
	}
	return img, p.lastPts, nil
}

// exitError is called once stderr is exhausted, which means ffmpeg is done.
func (p *decodeProcess) exitError() error {
	if err := p.wait(); err != nil {
		return fmt.Errorf("ffmpeg exited: %w: %s", err, p.stderrLog.last(stderrTailLines))
	}
	return port.ErrEndOfStream
}

func (p *decodeProcess) wait() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
	})
	<-p.stderrDone
	return p.waitErr
}

func (p *decodeProcess) stop() {
	p.cancel()
	p.quitOnce.Do(func() { close(p.quit) })
	_ = p.wait()
}

var (
	showinfoRe = regexp.MustCompile(`Parsed_showinfo.*\bn:\s*\d+.*\bpts_time:(\S+)`)
	sizeRe     = regexp.MustCompile(`\ss:(\d+)x(\d+)`)
)

// parseShowinfo extracts the per-frame line the showinfo filter logs, e.g.
//
//	[Parsed_showinfo_0 @ 0x5581] n:   3 pts:  1536 pts_time:0.12 ... fmt:yuv420p sar:1/1 s:320x240 i:P ...
func parseShowinfo(line string) (frameInfo, bool) {
	m := showinfoRe.FindStringSubmatch(line)
	if m == nil {
		return frameInfo{}, false
	}
	sm := sizeRe.FindStringSubmatch(line)
	if sm == nil {
		return frameInfo{}, false
	}

	var info frameInfo
	info.width, _ = strconv.Atoi(sm[1])
	info.height, _ = strconv.Atoi(sm[2])
	if secs, err := strconv.ParseFloat(m[1], 64); err == nil && !math.IsNaN(secs) && !math.IsInf(secs, 0) {
		info.ptsMicros = int64(math.Round(secs * 1e6))
		info.ptsKnown = true
	}
	return info, true
}

func firstLine(b []byte) string {
	for i, c := range b {
		if c == '\n' {
			return string(b[:i])
		}
	}
	return string(b)
}
