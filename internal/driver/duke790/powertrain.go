package duke790

import (
	"context"

	"gitlab.com/d21d3q/goktmcan/internal/driver"
	"gitlab.com/d21d3q/goktmcan/internal/driver/canbits"
)

func decodeThrottleMode(_ context.Context, d []byte) ([]driver.Field, error) {
	return []driver.Field{
		{Name: "rpm", Value: be16(d, 0)},
		{Name: "throttle", Value: uint(d[2])},
		{Name: "kill_switch", Value: canbits.Bit(d[3], 7)},
		{Name: "throttle_map", Value: uint(canbits.LowNibble(d[3]))},
	}, nil
}

func decodeGearClutch(_ context.Context, d []byte) ([]driver.Field, error) {
	return []driver.Field{
		{Name: "gear", Value: uint(canbits.HighNibble(d[0]))},
		{Name: "clutch_in", Value: canbits.Bit(d[0], 3)},
	}, nil
}

func decodeThrottleState(_ context.Context, d []byte) ([]driver.Field, error) {
	return []driver.Field{
		{Name: "throttle_open", Value: uint(d[0])},
		{Name: "requested_throttle_map", Value: uint(d[1])},
		{Name: "ride_mode", Value: uint(d[2])},
	}, nil
}

// Byte 0 of 0x540 is not decoded; the recorded frames carry 0x02 there.
// Byte 5 is expected to stay zero, its meaning is unknown.
func decodeSensor(ctx context.Context, d []byte) ([]driver.Field, error) {
	if err := expectByte(ctx, IDSensor, d, 5, 0x00); err != nil {
		return nil, err
	}
	return []driver.Field{
		{Name: "rpm", Value: be16(d, 1)},
		{Name: "gear", Value: uint(canbits.LowNibble(d[3]))},
		{Name: "kickstand_up", Value: canbits.Bit(d[4], 0)},
		{Name: "kickstand_err", Value: canbits.Bit(d[4], 7)},
		{Name: "coolant_temp", Value: float64(be16(d, 6)) / 10.0},
	}, nil
}
