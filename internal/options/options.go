package options

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type assertionsKey struct{}

// WithAssertions records whether layout consistency checks should run.
func WithAssertions(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, assertionsKey{}, enabled)
}

// AssertionsEnabled reports whether layout checks were requested. Checks are
// off unless explicitly enabled.
func AssertionsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(assertionsKey{}).(bool); ok {
		return v
	}
	return false
}

// ParseIdentifier accepts a hexadecimal CAN identifier with or without a
// 0x prefix, e.g. "0x12B" or "12b".
func ParseIdentifier(input string) (uint32, error) {
	clean := stripWhitespace(input)
	clean = strings.TrimPrefix(strings.TrimPrefix(clean, "0x"), "0X")
	if clean == "" {
		return 0, fmt.Errorf("identifier must not be empty")
	}
	id, err := strconv.ParseUint(clean, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid identifier %q: %w", input, err)
	}
	if id > 0x1FFFFFFF {
		return 0, fmt.Errorf("identifier %q exceeds 29 bits", input)
	}
	return uint32(id), nil
}

// ParseIdentifiers parses a comma separated identifier list.
func ParseIdentifiers(inputs ...string) ([]uint32, error) {
	var ids []uint32
	for _, input := range inputs {
		for _, part := range strings.Split(input, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id, err := ParseIdentifier(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func stripWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
