package duke790

import (
	"context"

	"gitlab.com/d21d3q/goktmcan/internal/driver"
	"gitlab.com/d21d3q/goktmcan/internal/driver/canbits"
)

func decodeWheelSpeed(_ context.Context, d []byte) ([]driver.Field, error) {
	return []driver.Field{
		{Name: "front_wheel_speed", Value: be16(d, 0)},
		{Name: "rear_wheel_speed", Value: be16(d, 2)},
		{Name: "lean_angle", Value: angle(d, 4)},
		{Name: "tilt_angle", Value: angle(d, 6)},
	}, nil
}

func decodeBrakes(_ context.Context, d []byte) ([]driver.Field, error) {
	return []driver.Field{
		{Name: "front_brake_pressure", Value: be16(d, 0)},
		{Name: "rear_brake_pressure", Value: be16(d, 2)},
	}, nil
}

func decodeTractionControl(_ context.Context, d []byte) ([]driver.Field, error) {
	return []driver.Field{
		{Name: "traction_control_button", Value: canbits.Bit(d[0], 0)},
	}, nil
}
