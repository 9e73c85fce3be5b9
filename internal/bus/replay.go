package bus

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"gitlab.com/d21d3q/goktmcan/internal/frame"
)

// LogSource replays frames from a text log, one frame per line. Blank lines
// and lines starting with '#' are skipped.
type LogSource struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
	closed  bool
}

// NewLogSource reads frames from r. If r is an io.Closer it is closed with
// the source.
func NewLogSource(r io.Reader) *LogSource {
	s := &LogSource{scanner: bufio.NewScanner(r)}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Receive returns the next frame or io.EOF once the log is exhausted.
func (s *LogSource) Receive(ctx context.Context) (frame.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if err := ctx.Err(); err != nil {
			return frame.Frame{}, err
		}
		if s.closed {
			return frame.Frame{}, ErrClosed
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return frame.Frame{}, fmt.Errorf("bus: read log: %w", err)
			}
			return frame.Frame{}, io.EOF
		}
		s.line++
		text := strings.TrimSpace(s.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		f, err := frame.Parse(text)
		if err != nil {
			return frame.Frame{}, fmt.Errorf("bus: line %d: %w", s.line, err)
		}
		return f, nil
	}
}

// Close stops the replay.
func (s *LogSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
