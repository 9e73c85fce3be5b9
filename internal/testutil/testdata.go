package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gitlab.com/d21d3q/goktmcan/internal/frame"
)

// LoadJSON loads a JSON fixture from testdata relative to the repo root.
func LoadJSON(t *testing.T, rel string, v any) {
	t.Helper()
	data := readTestdata(t, rel)
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", rel, err)
	}
}

// LoadLine returns a trimmed single-line fixture.
func LoadLine(t *testing.T, rel string) string {
	t.Helper()
	data := readTestdata(t, rel)
	return strings.TrimSpace(string(data))
}

// LoadFrame parses a single-line frame fixture.
func LoadFrame(t *testing.T, rel string) frame.Frame {
	t.Helper()
	f, err := frame.Parse(LoadLine(t, rel))
	if err != nil {
		t.Fatalf("parse %s: %v", rel, err)
	}
	return f
}

// Open returns a reader for a fixture; the file is closed at test cleanup.
func Open(t *testing.T, rel string) *os.File {
	t.Helper()
	for _, path := range candidates(rel) {
		if f, err := os.Open(path); err == nil {
			t.Cleanup(func() { _ = f.Close() })
			return f
		}
	}
	t.Fatalf("unable to locate testdata file %s", rel)
	return nil
}

func readTestdata(t *testing.T, rel string) []byte {
	t.Helper()
	for _, path := range candidates(rel) {
		if data, err := os.ReadFile(path); err == nil {
			return data
		}
	}
	t.Fatalf("unable to locate testdata file %s", rel)
	return nil
}

func candidates(rel string) []string {
	return []string{
		filepath.Join("testdata", rel),
		filepath.Join("..", "testdata", rel),
		filepath.Join("..", "..", "testdata", rel),
	}
}
