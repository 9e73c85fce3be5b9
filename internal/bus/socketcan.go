package bus

import "time"

// Filter is a SocketCAN receive filter: a frame passes when
// (can_id & Mask) == (ID & Mask), can_id including the EFF/RTR flag bits.
type Filter struct {
	ID   uint32
	Mask uint32
}

const (
	canSFFMask uint32 = 0x000007FF
	canEFFFlag uint32 = 0x80000000
	canRTRFlag uint32 = 0x40000000
)

// StdFilter matches standard data frames with exactly the given identifier.
func StdFilter(id uint32) Filter {
	return Filter{
		ID:   id & canSFFMask,
		Mask: canSFFMask | canEFFFlag | canRTRFlag,
	}
}

// SocketCANConfig configures OpenSocketCAN.
type SocketCANConfig struct {
	Interface string
	Filters   []Filter
	// ReadTimeout bounds each blocking read so cancellation is noticed.
	ReadTimeout time.Duration
	// RequireUp rejects interfaces whose link is administratively down.
	RequireUp bool
}

const defaultReadTimeout = 200 * time.Millisecond
