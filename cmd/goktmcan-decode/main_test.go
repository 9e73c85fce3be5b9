package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestDecodeSingleFrame(t *testing.T) {
	out, err := execute(t, "", "120,06,79,00,00,00,00,00,3F")
	require.NoError(t, err)
	require.Equal(t, "120#067900000000003F [Throttle/Mode] rpm=1657 throttle=0 kill_switch=false throttle_map=0\n", out)
}

func TestDecodeSingleFrameUnmapped(t *testing.T) {
	out, err := execute(t, "", "--unmapped", "129#3000000000000030")
	require.NoError(t, err)
	require.Contains(t, out, "unmapped=__ 00 00 00 00 00 00 __")
}

func TestDecodeSingleFrameAssertion(t *testing.T) {
	_, err := execute(t, "", "--assert", "540#0206650001FF01DD")
	require.Error(t, err)
	require.Contains(t, err.Error(), "byte 5")
}

func TestIDs(t *testing.T) {
	out, err := execute(t, "", "ids")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 10)
	require.Equal(t, "0x120  Throttle/Mode", lines[0])
	require.Equal(t, "0x650  Lights/LED Status", lines[9])
}

func TestReplayFileJSON(t *testing.T) {
	log := filepath.Join("..", "..", "testdata", "logs", "ride.log")
	out, err := execute(t, "", "--file", log, "--json", "--only", "0x12B,0x552")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	require.Equal(t, "0x12B", record["id"])
	require.Equal(t, "Wheel/Lean", record["name"])
	fields := record["fields"].(map[string]any)
	require.InDelta(t, 534, fields["rear_wheel_speed"], 1e-9)
	require.InDelta(t, -0.3, fields["tilt_angle"], 1e-9)
}

func TestReplayWithConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "goktmcan.toml")
	log, err := filepath.Abs(filepath.Join("..", "..", "testdata", "logs", "ride.log"))
	require.NoError(t, err)
	body := "[decoder]\nenable_assertions = true\nstop_on_error = true\n\n[source]\nfile = \"" +
		filepath.ToSlash(log) + "\"\n\n[log]\nlevel = \"error\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o600))

	out, err := execute(t, "", "--config", cfgPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "layout violation")
	require.Equal(t, 4, strings.Count(out, "\n"))

	out, err = execute(t, "", "--config", cfgPath, "--assert=false")
	require.NoError(t, err)
	require.Equal(t, 7, strings.Count(out, "\n"))
}

func TestInteractive(t *testing.T) {
	out, err := execute(t, "450#0100000000000000\n\nnot-a-frame\n")
	require.NoError(t, err)
	require.Contains(t, out, "traction_control_button=true")
}

func TestMutuallyExclusiveSources(t *testing.T) {
	_, err := execute(t, "", "--file", "a.log", "--iface", "can0")
	require.Error(t, err)
}

func TestReplayWithMetrics(t *testing.T) {
	log := filepath.Join("..", "..", "testdata", "logs", "ride.log")
	out, err := execute(t, "", "--file", log, "--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)
	require.Equal(t, 7, strings.Count(out, "\n"))

	_, err = execute(t, "", "--file", log, "--metrics-addr", "9108")
	require.Error(t, err)
}

func TestReplayStdin(t *testing.T) {
	stdin := "# piped capture\n120#067900000000003F\n120#R\n7DF#0201000000000000\n552#8000000000000000\n"
	out, err := execute(t, stdin, "--file", "-")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "120#067900000000003F [Throttle/Mode]"))
	require.True(t, strings.HasPrefix(lines[1], "552#8000000000000000 [Fuel Level]"))
}
