package duke790

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gitlab.com/d21d3q/goktmcan/internal/driver"
	"gitlab.com/d21d3q/goktmcan/internal/frame"
	"gitlab.com/d21d3q/goktmcan/internal/options"
)

func TestRegistryCoversAllLayouts(t *testing.T) {
	dets := driver.Detections()
	want := []uint32{
		IDThrottleMode, IDGearClutch, IDThrottleState, IDWheelSpeed, IDBrakes,
		IDTCButton, IDSensor, IDKillSwitch, IDFuelLevel, IDLights,
	}
	if len(dets) != len(want) {
		t.Fatalf("expected %d detections, got %d", len(want), len(dets))
	}
	for i, id := range want {
		if dets[i].ID != id {
			t.Fatalf("detection %d: got 0x%03X want 0x%03X", i, dets[i].ID, id)
		}
	}
}

func TestProcessThrottleMode(t *testing.T) {
	f := mustLoadFrame(t, "throttle_mode.frame")
	fields := mustProcess(t, context.Background(), f)
	expectNames(t, fields, "rpm", "throttle", "kill_switch", "throttle_map")
	if fields[0].Value != uint(1657) {
		t.Fatalf("unexpected rpm: %v", fields[0].Value)
	}
	if fields[2].Value != false {
		t.Fatalf("unexpected kill_switch: %v", fields[2].Value)
	}
}

func TestProcessWheelSpeedAngles(t *testing.T) {
	f := mustLoadFrame(t, "wheel_speed.frame")
	fields := mustProcess(t, context.Background(), f)
	expectNames(t, fields, "front_wheel_speed", "rear_wheel_speed", "lean_angle", "tilt_angle")
	if fields[1].Value != uint(534) {
		t.Fatalf("unexpected rear_wheel_speed: %v", fields[1].Value)
	}
	if lean := fields[2].Value.(float64); math.Abs(lean-0.2) > 1e-9 {
		t.Fatalf("unexpected lean_angle: %v", lean)
	}
	if tilt := fields[3].Value.(float64); math.Abs(tilt+0.3) > 1e-9 {
		t.Fatalf("unexpected tilt_angle: %v", tilt)
	}
}

func TestProcessSensorWithAssertions(t *testing.T) {
	ctx := options.WithAssertions(context.Background(), true)
	f := mustLoadFrame(t, "sensor.frame")
	fields := mustProcess(t, ctx, f)
	expectNames(t, fields, "rpm", "gear", "kickstand_up", "kickstand_err", "coolant_temp")
	if fields[0].Value != uint(1637) {
		t.Fatalf("unexpected rpm: %v", fields[0].Value)
	}
	if temp := fields[4].Value.(float64); math.Abs(temp-47.7) > 1e-9 {
		t.Fatalf("unexpected coolant_temp: %v", temp)
	}
}

func TestProcessSensorLayoutViolation(t *testing.T) {
	f := frame.Must(IDSensor, 0x02, 0x06, 0x65, 0x00, 0x01, 0x7F, 0x01, 0xDD)
	drv, err := driver.Lookup(&f)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	ctx := options.WithAssertions(context.Background(), true)
	fields, err := drv.Process(ctx, &f)
	var lv *driver.LayoutViolationError
	if !errors.As(err, &lv) {
		t.Fatalf("expected layout violation, got %v", err)
	}
	if lv.ID != IDSensor || lv.Offset != 5 || lv.Expected != 0x00 || lv.Actual != 0x7F {
		t.Fatalf("unexpected violation: %+v", lv)
	}
	if fields != nil {
		t.Fatalf("expected no fields on violation, got %v", fields)
	}

	fields, err = drv.Process(context.Background(), &f)
	if err != nil {
		t.Fatalf("Process without assertions: %v", err)
	}
	if len(fields) != 5 {
		t.Fatalf("expected 5 fields, got %d", len(fields))
	}
}

func TestProcessShortPayload(t *testing.T) {
	f := frame.Must(IDWheelSpeed, 0x00, 0x10, 0x00, 0x20)
	drv, err := driver.Lookup(&f)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	_, err = drv.Process(context.Background(), &f)
	var mp *driver.MalformedPayloadError
	if !errors.As(err, &mp) {
		t.Fatalf("expected malformed payload, got %v", err)
	}
	if mp.Need != 8 || mp.Got != 4 {
		t.Fatalf("unexpected bounds: %+v", mp)
	}

	short := frame.Must(IDGearClutch, 0x30)
	fields := mustProcess(t, context.Background(), short)
	expectNames(t, fields, "gear", "clutch_in")
}

func TestProcessLights(t *testing.T) {
	f := mustLoadFrame(t, "lights.frame")
	fields := mustProcess(t, context.Background(), f)
	expectNames(t, fields, "low_beam_on", "high_beam_on", "brake_light_on", "turn_signal_left", "turn_signal_right")
	want := []bool{true, false, true, false, true}
	for i, w := range want {
		if fields[i].Value != w {
			t.Fatalf("%s: got %v want %v", fields[i].Name, fields[i].Value, w)
		}
	}
}

func TestConsumedMasks(t *testing.T) {
	cases := map[uint32]string{
		IDThrottleMode: "__ __ __ __ 00 00 00 __",
		IDGearClutch:   "__ 00 00 00 00 00 00 __",
		IDWheelSpeed:   "__ __ __ __ __ __ __ __",
		IDSensor:       "00 __ __ __ __ __ __ __",
		IDLights:       "__ 00 00 00 00 00 00 00",
	}
	for id, want := range cases {
		f := frame.Must(id, 0, 0, 0, 0, 0, 0, 0, 0)
		drv, err := driver.Lookup(&f)
		if err != nil {
			t.Fatalf("Lookup 0x%03X: %v", id, err)
		}
		got := drv.(driver.CoverageReporter).Consumed().Unmapped(f.Payload())
		if got != want {
			t.Fatalf("0x%03X: got %q want %q", id, got, want)
		}
	}
}

func mustProcess(t *testing.T, ctx context.Context, f frame.Frame) []driver.Field {
	t.Helper()
	drv, err := driver.Lookup(&f)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	fields, err := drv.Process(ctx, &f)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	return fields
}

func expectNames(t *testing.T, fields []driver.Field, names ...string) {
	t.Helper()
	if len(fields) != len(names) {
		t.Fatalf("expected %d fields, got %d: %v", len(names), len(fields), fields)
	}
	for i, name := range names {
		if fields[i].Name != name {
			t.Fatalf("field %d: got %s want %s", i, fields[i].Name, name)
		}
	}
}

func mustLoadFrame(t *testing.T, name string) frame.Frame {
	t.Helper()
	path := filepath.Join("..", "..", "..", "testdata", "duke790", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	f, err := frame.Parse(strings.TrimSpace(string(data)))
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return f
}
