package ffmpeg

import "strings"

// stderrLog keeps the newest diagnostic lines ffmpeg printed. It is written
// only by the stderr reader goroutine and read once that goroutine is done.
type stderrLog struct {
	max   int
	lines []string
}

func newStderrLog(max int) *stderrLog {
	return &stderrLog{max: max}
}

func (l *stderrLog) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" || l.max <= 0 {
		return
	}
	if len(l.lines) == l.max {
		l.lines = append(l.lines[:0], l.lines[1:]...)
	}
	l.lines = append(l.lines, line)
}

// last joins up to n of the newest lines, oldest first.
func (l *stderrLog) last(n int) string {
	n = min(n, len(l.lines))
	if n <= 0 {
		return ""
	}
	return strings.Join(l.lines[len(l.lines)-n:], " | ")
}
