//go:build !linux

package bus

import (
	"context"
	"errors"

	"gitlab.com/d21d3q/goktmcan/internal/frame"
)

var errUnsupported = errors.New("bus: SocketCAN requires linux")

// SocketCAN is unavailable on this platform.
type SocketCAN struct{}

// OpenSocketCAN always fails outside linux.
func OpenSocketCAN(SocketCANConfig) (*SocketCAN, error) {
	return nil, errUnsupported
}

// Receive implements Source.
func (*SocketCAN) Receive(context.Context) (frame.Frame, error) {
	return frame.Frame{}, errUnsupported
}

// Close implements Source.
func (*SocketCAN) Close() error { return nil }
