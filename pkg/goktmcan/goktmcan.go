package goktmcan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gitlab.com/d21d3q/goktmcan/internal/frame"
)

// Result captures the outcome of AnalyzeLine.
type Result struct {
	ID       uint32
	Name     string
	Known    bool
	RawFrame string
	Frame    Frame
	Fields   []Field
}

// String renders a human-readable representation of the result.
func (r Result) String() string {
	summary := map[string]any{
		"id":    fmt.Sprintf("0x%03X", r.ID),
		"name":  r.Name,
		"frame": r.RawFrame,
	}
	if len(r.Fields) > 0 {
		summary["fields"] = r.FieldSet().Map()
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Sprintf("id: 0x%03X name: %s frame: %s (marshal error: %v)", r.ID, r.Name, r.RawFrame, err)
	}
	return string(data)
}

// Line renders the result on a single line: frame, name and name=value pairs.
func (r Result) Line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]", r.RawFrame, r.Name)
	for _, f := range r.Fields {
		fmt.Fprintf(&b, " %s=%v", f.Name, f.Value)
	}
	return b.String()
}

// AnalyzeLine parses one text frame and decodes it with default options.
func AnalyzeLine(ctx context.Context, line string) (Result, error) {
	return AnalyzeLineWithOptions(ctx, line, Options{})
}

// AnalyzeLineWithOptions parses one text frame and decodes it with opts.
func AnalyzeLineWithOptions(ctx context.Context, line string, opts Options) (Result, error) {
	f, err := frame.Parse(line)
	if err != nil {
		return Result{}, err
	}
	return New(opts).Analyze(ctx, f)
}

// Analyze decodes f into a Result. The result carries the frame metadata
// even when decoding fails.
func (d Decoder) Analyze(ctx context.Context, f Frame) (Result, error) {
	result := Result{
		ID:       f.ID,
		Name:     Name(f.ID),
		Known:    !f.Extended && Known(f.ID),
		RawFrame: f.String(),
		Frame:    f,
	}
	if f.Extended {
		result.Name = fmt.Sprintf("Unknown (0x%08X)", f.ID)
	}
	fields, err := d.decode(d.opts.context(ctx), f)
	if err != nil {
		return result, err
	}
	result.Fields = fields
	return result, nil
}
