package goktmcan

import "gitlab.com/d21d3q/goktmcan/internal/driver"

// LayoutViolationError is returned when assertions are enabled and a payload
// byte contradicts its identifier's layout.
type LayoutViolationError = driver.LayoutViolationError

// MalformedPayloadError is returned when a payload is shorter than the
// offsets its identifier needs.
type MalformedPayloadError = driver.MalformedPayloadError
