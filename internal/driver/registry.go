package driver

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gitlab.com/d21d3q/goktmcan/internal/frame"
)

// Detection identifies the frames a driver handles.
type Detection struct {
	ID uint32
}

// Field is a single named value extracted from a payload.
type Field struct {
	Name  string
	Value any
}

// Driver decodes the payload of one CAN identifier.
type Driver interface {
	Name() string
	Process(context.Context, *frame.Frame) ([]Field, error)
}

// CoverageReporter exposes which payload offsets a driver accounts for.
type CoverageReporter interface {
	Consumed() ByteMask
}

var (
	regMu    sync.RWMutex
	registry = map[uint32]Driver{}
)

// Register stores a driver for the detection key. Registering the same
// identifier twice panics.
func Register(det Detection, drv Driver) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, dup := registry[det.ID]; dup {
		panic(fmt.Sprintf("driver: identifier 0x%03X registered twice", det.ID))
	}
	registry[det.ID] = drv
}

// Lookup returns the driver registered for a standard frame identifier.
func Lookup(f *frame.Frame) (Driver, error) {
	if f.Extended {
		return nil, fmt.Errorf("%w: extended 0x%08X", ErrUnknownIdentifier, f.ID)
	}
	regMu.RLock()
	defer regMu.RUnlock()
	drv, ok := registry[f.ID]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%03X", ErrUnknownIdentifier, f.ID)
	}
	return drv, nil
}

// Detections lists the registered identifiers in ascending order.
func Detections() []Detection {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]Detection, 0, len(registry))
	for id := range registry {
		out = append(out, Detection{ID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
