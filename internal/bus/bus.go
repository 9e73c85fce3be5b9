// Package bus provides the frame sources the decoder is fed from: recorded
// candump logs and, on Linux, a live SocketCAN interface.
package bus

import (
	"context"
	"errors"
	"io"

	"gitlab.com/d21d3q/goktmcan/internal/frame"
)

// Source yields CAN frames one at a time.
type Source interface {
	// Receive blocks until a frame is available, the source is exhausted
	// (io.EOF) or ctx is done.
	Receive(ctx context.Context) (frame.Frame, error)
	// Close releases resources. Further Receive calls return ErrClosed.
	Close() error
}

// ErrClosed indicates the source has been closed.
var ErrClosed = errors.New("bus: closed")

// IsEndOfStream reports whether err means the source has nothing more to
// deliver, as opposed to a fault.
func IsEndOfStream(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, ErrClosed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
