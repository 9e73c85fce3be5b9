package canbits

// LowNibble returns bits 0-3 of b.
func LowNibble(b byte) uint8 {
	return b & 0x0F
}

// HighNibble returns bits 4-7 of b.
func HighNibble(b byte) uint8 {
	return (b >> 4) & 0x0F
}

// SignExtend12 interprets the low 12 bits of v as a two's-complement value.
// The result lies in [-2048, 2047].
func SignExtend12(v uint16) int {
	return int(v&0x07FF) - int(v&0x0800)
}

// InvertByte returns the bitwise complement of b.
func InvertByte(b byte) byte {
	return ^b
}

// BigEndianU16 assembles a 16-bit value from its high and low bytes.
func BigEndianU16(high, low byte) uint16 {
	return uint16(high)<<8 | uint16(low)
}

// Bit reports whether bit n (0 = least significant) of b is set.
func Bit(b byte, n uint) bool {
	return (b>>n)&0x01 == 1
}
