package duke790

import (
	"context"

	"gitlab.com/d21d3q/goktmcan/internal/driver"
	"gitlab.com/d21d3q/goktmcan/internal/driver/canbits"
)

const fuelFullScale = 2.55

var lightBits = []struct {
	bit  uint
	name string
}{
	{0, "low_beam_on"},
	{1, "high_beam_on"},
	{2, "brake_light_on"},
	{3, "turn_signal_left"},
	{4, "turn_signal_right"},
}

func decodeKillSwitch(_ context.Context, d []byte) ([]driver.Field, error) {
	return []driver.Field{
		{Name: "kill_switch_on", Value: canbits.Bit(d[0], 0)},
	}, nil
}

func decodeFuelLevel(_ context.Context, d []byte) ([]driver.Field, error) {
	return []driver.Field{
		{Name: "fuel_level_percent", Value: float64(d[0]) / fuelFullScale},
	}, nil
}

func decodeLights(_ context.Context, d []byte) ([]driver.Field, error) {
	fields := make([]driver.Field, 0, len(lightBits))
	for _, lb := range lightBits {
		fields = append(fields, driver.Field{Name: lb.name, Value: canbits.Bit(d[0], lb.bit)})
	}
	return fields, nil
}
