package driver

import (
	"fmt"
	"strings"

	"gitlab.com/d21d3q/goktmcan/internal/frame"
)

// ByteMask marks payload offsets 0..7, bit n standing for offset n.
type ByteMask uint8

// MaskOf builds a mask from payload offsets.
func MaskOf(offsets ...int) ByteMask {
	var m ByteMask
	for _, off := range offsets {
		if off < 0 || off >= frame.MaxDataLen {
			panic(fmt.Sprintf("driver: offset %d outside payload", off))
		}
		m |= 1 << uint(off)
	}
	return m
}

// Has reports whether offset is part of the mask.
func (m ByteMask) Has(offset int) bool {
	if offset < 0 || offset >= frame.MaxDataLen {
		return false
	}
	return m&(1<<uint(offset)) != 0
}

// Span is one past the highest offset in the mask.
func (m ByteMask) Span() int {
	for off := frame.MaxDataLen - 1; off >= 0; off-- {
		if m.Has(off) {
			return off + 1
		}
	}
	return 0
}

// Placeholder stands in for consumed bytes in an unmapped report.
const Placeholder = "__"

// Unmapped renders payload bytes not covered by the mask as uppercase hex,
// consumed positions as Placeholder, space separated in offset order.
func (m ByteMask) Unmapped(payload []byte) string {
	parts := make([]string, len(payload))
	for i, b := range payload {
		if m.Has(i) {
			parts[i] = Placeholder
			continue
		}
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}
