package goktmcan

import (
	"context"

	internalopts "gitlab.com/d21d3q/goktmcan/internal/options"
)

// Options configures decoding.
type Options struct {
	// EmitUnmapped appends an "unmapped" field to frames of known
	// identifiers listing the bytes no field consumed.
	EmitUnmapped bool
	// EnableAssertions turns on layout consistency checks.
	EnableAssertions bool
}

func (opts Options) context(ctx context.Context) context.Context {
	return internalopts.WithAssertions(ctx, opts.EnableAssertions)
}
