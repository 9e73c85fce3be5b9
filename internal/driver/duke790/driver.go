package duke790

import (
	"context"

	"gitlab.com/d21d3q/goktmcan/internal/driver"
	"gitlab.com/d21d3q/goktmcan/internal/driver/canbits"
	"gitlab.com/d21d3q/goktmcan/internal/frame"
	"gitlab.com/d21d3q/goktmcan/internal/options"
)

// CAN identifiers broadcast on the 790 Duke bus.
const (
	IDThrottleMode  = 0x120
	IDGearClutch    = 0x129
	IDThrottleState = 0x12A
	IDWheelSpeed    = 0x12B
	IDBrakes        = 0x290
	IDTCButton      = 0x450
	IDSensor        = 0x540
	IDKillSwitch    = 0x550
	IDFuelLevel     = 0x552
	IDLights        = 0x650
)

type decodeFunc func(ctx context.Context, data []byte) ([]driver.Field, error)

// Driver decodes a single identifier. reads covers the offsets the decode
// function indexes; reserved covers offsets that carry no signal but are
// accounted for.
type Driver struct {
	id       uint32
	name     string
	reads    driver.ByteMask
	reserved driver.ByteMask
	decode   decodeFunc
}

var _ driver.CoverageReporter = Driver{}

var layouts = []Driver{
	{
		id:       IDThrottleMode,
		name:     "Throttle/Mode",
		reads:    driver.MaskOf(0, 1, 2, 3),
		reserved: driver.MaskOf(7),
		decode:   decodeThrottleMode,
	},
	{
		id:       IDGearClutch,
		name:     "Gear/Clutch",
		reads:    driver.MaskOf(0),
		reserved: driver.MaskOf(7),
		decode:   decodeGearClutch,
	},
	{
		id:     IDThrottleState,
		name:   "Throttle State",
		reads:  driver.MaskOf(0, 1, 2),
		decode: decodeThrottleState,
	},
	{
		id:     IDWheelSpeed,
		name:   "Wheel/Lean",
		reads:  driver.MaskOf(0, 1, 2, 3, 4, 5, 6, 7),
		decode: decodeWheelSpeed,
	},
	{
		id:     IDBrakes,
		name:   "Brakes",
		reads:  driver.MaskOf(0, 1, 2, 3),
		decode: decodeBrakes,
	},
	{
		id:     IDTCButton,
		name:   "TC Button",
		reads:  driver.MaskOf(0),
		decode: decodeTractionControl,
	},
	{
		id:     IDSensor,
		name:   "Sensor",
		reads:  driver.MaskOf(1, 2, 3, 4, 5, 6, 7),
		decode: decodeSensor,
	},
	{
		id:     IDKillSwitch,
		name:   "Kill Switch",
		reads:  driver.MaskOf(0),
		decode: decodeKillSwitch,
	},
	{
		id:     IDFuelLevel,
		name:   "Fuel Level",
		reads:  driver.MaskOf(0),
		decode: decodeFuelLevel,
	},
	{
		id:     IDLights,
		name:   "Lights/LED Status",
		reads:  driver.MaskOf(0),
		decode: decodeLights,
	},
}

func init() {
	for _, l := range layouts {
		driver.Register(driver.Detection{ID: l.id}, l)
	}
}

// Name returns the human-readable name of the identifier.
func (d Driver) Name() string { return d.name }

// Consumed implements driver.CoverageReporter.
func (d Driver) Consumed() driver.ByteMask { return d.reads | d.reserved }

// Process extracts the identifier's fields in their fixed order. Nothing is
// returned when the payload is too short or a layout check fails.
func (d Driver) Process(ctx context.Context, f *frame.Frame) ([]driver.Field, error) {
	payload := f.Payload()
	if need := d.reads.Span(); len(payload) < need {
		return nil, &driver.MalformedPayloadError{ID: d.id, Need: need, Got: len(payload)}
	}
	return d.decode(ctx, payload)
}

func be16(data []byte, offset int) uint {
	return uint(canbits.BigEndianU16(data[offset], data[offset+1]))
}

// angle decodes a 12-bit signed tenth-of-a-degree value.
func angle(data []byte, offset int) float64 {
	raw := canbits.BigEndianU16(data[offset], data[offset+1]) & 0x0FFF
	return float64(canbits.SignExtend12(raw)) / 10.0
}

// expectByte checks a constant byte when assertions are enabled.
func expectByte(ctx context.Context, id uint32, data []byte, offset int, want byte) error {
	if !options.AssertionsEnabled(ctx) {
		return nil
	}
	if got := data[offset]; got != want {
		return &driver.LayoutViolationError{ID: id, Offset: offset, Expected: want, Actual: got}
	}
	return nil
}
