package driver

import (
	"errors"
	"fmt"
)

// ErrUnknownIdentifier is returned by Lookup for identifiers without a driver.
var ErrUnknownIdentifier = errors.New("unknown identifier")

// LayoutViolationError reports a payload byte that contradicts the documented
// layout of its identifier. Only raised when assertions are enabled.
type LayoutViolationError struct {
	ID       uint32
	Offset   int
	Expected byte
	Actual   byte
}

func (e *LayoutViolationError) Error() string {
	return fmt.Sprintf("layout violation on 0x%03X: byte %d is 0x%02X, expected 0x%02X",
		e.ID, e.Offset, e.Actual, e.Expected)
}

// MalformedPayloadError reports a payload too short for the offsets a
// driver reads.
type MalformedPayloadError struct {
	ID   uint32
	Need int
	Got  int
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed payload on 0x%03X: need %d bytes, got %d", e.ID, e.Need, e.Got)
}
