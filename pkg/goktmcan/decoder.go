package goktmcan

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"gitlab.com/d21d3q/goktmcan/internal/driver"
	_ "gitlab.com/d21d3q/goktmcan/internal/driver/duke790" // register drivers
	"gitlab.com/d21d3q/goktmcan/internal/frame"
)

// Frame is a CAN frame as handed to the decoder.
type Frame = frame.Frame

// UnmappedField is the name of the optional field listing undecoded bytes.
const UnmappedField = "unmapped"

// Field is one decoded value. Value holds a uint, bool or float64; the
// unmapped report is a string.
type Field struct {
	ID    uint32
	Name  string
	Value any
}

// String renders the field as id/name=value.
func (f Field) String() string {
	return fmt.Sprintf("0x%03X/%s=%v", f.ID, f.Name, f.Value)
}

// Decoder turns frames into fields. The zero value decodes without
// assertions or unmapped reporting. A Decoder holds no per-frame state and is
// safe for concurrent use.
type Decoder struct {
	opts Options
}

// New returns a decoder configured by opts.
func New(opts Options) Decoder {
	return Decoder{opts: opts}
}

// Options returns the decoder configuration.
func (d Decoder) Options() Options { return d.opts }

// Decode returns the fields of f in their fixed order, followed by the
// unmapped report when enabled. Frames with an unknown identifier and remote
// (RTR) frames yield no fields and no error.
func (d Decoder) Decode(f Frame) ([]Field, error) {
	return d.decode(d.opts.context(context.Background()), f)
}

// Fields is the sequence form of Decode. On failure it yields a single
// zero Field with the error; fields of a failed frame are never yielded.
func (d Decoder) Fields(f Frame) iter.Seq2[Field, error] {
	return func(yield func(Field, error) bool) {
		fields, err := d.Decode(f)
		if err != nil {
			yield(Field{}, err)
			return
		}
		for _, field := range fields {
			if !yield(field, nil) {
				return
			}
		}
	}
}

func (d Decoder) decode(ctx context.Context, f Frame) ([]Field, error) {
	// A remote request carries a DLC but no data.
	if f.RTR {
		return nil, nil
	}
	drv, err := driver.Lookup(&f)
	if err != nil {
		if errors.Is(err, driver.ErrUnknownIdentifier) {
			return nil, nil
		}
		return nil, err
	}
	raw, err := drv.Process(ctx, &f)
	if err != nil {
		return nil, err
	}
	fields := make([]Field, 0, len(raw)+1)
	for _, r := range raw {
		fields = append(fields, Field{ID: f.ID, Name: r.Name, Value: r.Value})
	}
	if d.opts.EmitUnmapped {
		var mask driver.ByteMask
		if cr, ok := drv.(driver.CoverageReporter); ok {
			mask = cr.Consumed()
		}
		fields = append(fields, Field{ID: f.ID, Name: UnmappedField, Value: mask.Unmapped(f.Payload())})
	}
	return fields, nil
}

// Known reports whether id is a decodable standard identifier.
func Known(id uint32) bool {
	f := Frame{ID: id}
	_, err := driver.Lookup(&f)
	return err == nil
}

// Name returns the human-readable name of id, or "Unknown (0x...)".
func Name(id uint32) string {
	f := Frame{ID: id}
	drv, err := driver.Lookup(&f)
	if err != nil {
		return fmt.Sprintf("Unknown (0x%02X)", id)
	}
	return drv.Name()
}

// Identifiers lists the known identifiers in ascending order.
func Identifiers() []uint32 {
	dets := driver.Detections()
	ids := make([]uint32, len(dets))
	for i, det := range dets {
		ids[i] = det.ID
	}
	return ids
}
