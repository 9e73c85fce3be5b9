package frame

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Frame represents a classical CAN frame as read from the bus. Only the
// identifier and the payload take part in decoding.
type Frame struct {
	ID       uint32 // 11-bit (standard) or 29-bit (extended)
	Extended bool
	RTR      bool
	Len      uint8 // 0..8
	Data     [MaxDataLen]byte
}

const (
	// MaxDataLen is the payload size of a classical CAN frame.
	MaxDataLen = 8
	// BinaryLen is the size of the Linux SocketCAN struct can_frame.
	BinaryLen = 16

	maxStdID = 0x7FF
	maxExtID = 0x1FFFFFFF

	canEffFlag uint32 = 0x80000000
	canRtrFlag uint32 = 0x40000000
	canErrFlag uint32 = 0x20000000
)

var (
	ErrInvalidID  = errors.New("frame: invalid identifier")
	ErrInvalidLen = errors.New("frame: invalid data length")
)

// New builds a standard or extended frame from id and data. IDs above
// 0x7FF are treated as extended.
func New(id uint32, data []byte) (Frame, error) {
	if len(data) > MaxDataLen {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrInvalidLen, len(data))
	}
	f := Frame{ID: id, Extended: id > maxStdID, Len: uint8(len(data))}
	copy(f.Data[:], data)
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// Must is New that panics on error. Intended for tests and tables.
func Must(id uint32, data ...byte) Frame {
	f, err := New(id, data)
	if err != nil {
		panic(err)
	}
	return f
}

// Validate returns an error if the frame is not a valid classical CAN frame.
func (f Frame) Validate() error {
	if f.Len > MaxDataLen {
		return fmt.Errorf("%w: %d", ErrInvalidLen, f.Len)
	}
	limit := uint32(maxStdID)
	if f.Extended {
		limit = maxExtID
	}
	if f.ID > limit {
		return fmt.Errorf("%w: 0x%X", ErrInvalidID, f.ID)
	}
	return nil
}

// Payload returns the valid data bytes.
func (f Frame) Payload() []byte {
	n := int(f.Len)
	if n > MaxDataLen {
		n = MaxDataLen
	}
	return f.Data[:n]
}

// String renders the frame in candump compact form, e.g. 120#067900000000003F.
func (f Frame) String() string {
	var b strings.Builder
	if f.Extended {
		fmt.Fprintf(&b, "%08X#", f.ID)
	} else {
		fmt.Fprintf(&b, "%03X#", f.ID)
	}
	if f.RTR {
		b.WriteString("R")
		return b.String()
	}
	b.WriteString(strings.ToUpper(hex.EncodeToString(f.Payload())))
	return b.String()
}

// MarshalBinary encodes the frame as a Linux struct can_frame:
//
//	0..3  can_id with EFF/RTR flags (little-endian)
//	4     can_dlc
//	5..7  padding
//	8..15 data
func (f Frame) MarshalBinary() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	id := f.ID
	if f.Extended {
		id |= canEffFlag
	}
	if f.RTR {
		id |= canRtrFlag
	}
	buf := make([]byte, BinaryLen)
	binary.LittleEndian.PutUint32(buf[0:4], id)
	buf[4] = f.Len
	copy(buf[8:], f.Data[:])
	return buf, nil
}

// UnmarshalBinary decodes a Linux struct can_frame. Error frames are rejected.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < BinaryLen {
		return fmt.Errorf("frame: need %d bytes, got %d", BinaryLen, len(data))
	}
	id := binary.LittleEndian.Uint32(data[0:4])
	if id&canErrFlag != 0 {
		return fmt.Errorf("frame: error frame 0x%08X", id)
	}
	f.Extended = id&canEffFlag != 0
	f.RTR = id&canRtrFlag != 0
	if f.Extended {
		f.ID = id & maxExtID
	} else {
		f.ID = id & maxStdID
	}
	f.Len = data[4]
	copy(f.Data[:], data[8:BinaryLen])
	return f.Validate()
}

// Parse reads a frame from one line of text. Supported layouts:
//
//	120#067900000000003F              candump compact, optionally prefixed by
//	(1700000000.000000) can0 120#...  a candump -l timestamp and interface
//	120,06,79,00,00,00,00,00,3F       comma separated fixture form
//	can0  120   [8]  06 79 00 ...     candump default output
func Parse(line string) (Frame, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Frame{}, fmt.Errorf("frame: empty line")
	}
	fields := strings.Fields(line)
	for _, field := range fields {
		if strings.Contains(field, "#") {
			return parseCompact(field)
		}
	}
	if strings.Contains(line, ",") {
		return parseCSV(line)
	}
	return parseCandump(fields)
}

func parseCompact(s string) (Frame, error) {
	idPart, dataPart, _ := strings.Cut(s, "#")
	id, extended, err := parseID(idPart)
	if err != nil {
		return Frame{}, err
	}
	f := Frame{ID: id, Extended: extended}
	if strings.HasPrefix(strings.ToUpper(dataPart), "R") {
		f.RTR = true
		return f, f.Validate()
	}
	data, err := decodeHex(strings.ReplaceAll(dataPart, ".", ""))
	if err != nil {
		return Frame{}, err
	}
	return fill(f, data)
}

func parseCSV(line string) (Frame, error) {
	parts := strings.Split(line, ",")
	id, extended, err := parseID(strings.TrimSpace(parts[0]))
	if err != nil {
		return Frame{}, err
	}
	data := make([]byte, 0, len(parts)-1)
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		b, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return Frame{}, fmt.Errorf("frame: invalid data byte %q: %w", p, err)
		}
		data = append(data, byte(b))
	}
	return fill(Frame{ID: id, Extended: extended}, data)
}

func parseCandump(fields []string) (Frame, error) {
	// can0  120   [8]  06 79 00 00 00 00 00 3F
	dlcAt := -1
	for i, field := range fields {
		if strings.HasPrefix(field, "[") && strings.HasSuffix(field, "]") {
			dlcAt = i
			break
		}
	}
	if dlcAt < 1 {
		return Frame{}, fmt.Errorf("frame: unrecognised line %q", strings.Join(fields, " "))
	}
	id, extended, err := parseID(fields[dlcAt-1])
	if err != nil {
		return Frame{}, err
	}
	dlc, err := strconv.Atoi(strings.Trim(fields[dlcAt], "[]"))
	if err != nil {
		return Frame{}, fmt.Errorf("frame: invalid length %s: %w", fields[dlcAt], err)
	}
	f := Frame{ID: id, Extended: extended}
	rest := fields[dlcAt+1:]
	if len(rest) > 0 && strings.EqualFold(rest[0], "remote") {
		f.RTR = true
		f.Len = uint8(dlc)
		return f, f.Validate()
	}
	data, err := decodeHex(strings.Join(rest, ""))
	if err != nil {
		return Frame{}, err
	}
	if len(data) != dlc {
		return Frame{}, fmt.Errorf("frame: length %d does not match %d data bytes", dlc, len(data))
	}
	return fill(f, data)
}

func parseID(s string) (uint32, bool, error) {
	clean := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if clean == "" {
		return 0, false, fmt.Errorf("%w: empty", ErrInvalidID)
	}
	id, err := strconv.ParseUint(clean, 16, 32)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	extended := len(clean) > 3 || id > maxStdID
	return uint32(id), extended, nil
}

func decodeHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("frame: hex payload must contain an even number of digits, got %d", len(s))
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("frame: decode hex: %w", err)
	}
	return data, nil
}

func fill(f Frame, data []byte) (Frame, error) {
	if len(data) > MaxDataLen {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrInvalidLen, len(data))
	}
	f.Len = uint8(len(data))
	copy(f.Data[:], data)
	return f, f.Validate()
}
