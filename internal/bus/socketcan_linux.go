//go:build linux

package bus

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"

	"gitlab.com/d21d3q/goktmcan/internal/frame"
)

// SocketCAN receives frames from a raw CAN socket bound to one interface.
type SocketCAN struct {
	fd     int
	iface  *net.Interface
	closed atomic.Bool
}

// OpenSocketCAN binds a CAN_RAW socket to cfg.Interface.
func OpenSocketCAN(cfg SocketCANConfig) (*SocketCAN, error) {
	iface, err := net.InterfaceByName(cfg.Interface)
	if err != nil {
		return nil, fmt.Errorf("bus: interface %s: %w", cfg.Interface, err)
	}
	up, err := linkUp(iface.Index)
	if err != nil {
		return nil, fmt.Errorf("bus: link state of %s: %w", cfg.Interface, err)
	}
	if cfg.RequireUp && !up {
		return nil, fmt.Errorf("bus: interface %s is down", cfg.Interface)
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("bus: socket: %w", err)
	}
	s := &SocketCAN{fd: fd, iface: iface}
	if err := s.setup(cfg); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return s, nil
}

func (s *SocketCAN) setup(cfg SocketCANConfig) error {
	if len(cfg.Filters) > 0 {
		filters := make([]unix.CanFilter, len(cfg.Filters))
		for i, f := range cfg.Filters {
			filters[i] = unix.CanFilter{Id: f.ID, Mask: f.Mask}
		}
		if err := unix.SetsockoptCanRawFilter(s.fd, unix.SOL_CAN_RAW, unix.CAN_RAW_FILTER, filters); err != nil {
			return fmt.Errorf("bus: set filter: %w", err)
		}
	}
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = defaultReadTimeout
	}
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	if err := unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		return fmt.Errorf("bus: set receive timeout: %w", err)
	}
	if err := unix.Bind(s.fd, &unix.SockaddrCAN{Ifindex: s.iface.Index}); err != nil {
		return fmt.Errorf("bus: bind: %w", err)
	}
	return nil
}

// Receive blocks until a data frame arrives or ctx is done. Error frames are
// dropped.
func (s *SocketCAN) Receive(ctx context.Context) (frame.Frame, error) {
	buf := make([]byte, frame.BinaryLen)
	for {
		if err := ctx.Err(); err != nil {
			return frame.Frame{}, err
		}
		if s.closed.Load() {
			return frame.Frame{}, ErrClosed
		}
		n, err := unix.Read(s.fd, buf)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}
			if s.closed.Load() {
				return frame.Frame{}, ErrClosed
			}
			return frame.Frame{}, fmt.Errorf("bus: read: %w", err)
		}
		if n != frame.BinaryLen {
			return frame.Frame{}, fmt.Errorf("bus: short read %d bytes", n)
		}
		if binary.LittleEndian.Uint32(buf[0:4])&unix.CAN_ERR_FLAG != 0 {
			continue
		}
		var f frame.Frame
		if err := f.UnmarshalBinary(buf); err != nil {
			return frame.Frame{}, err
		}
		return f, nil
	}
}

// Close closes the socket.
func (s *SocketCAN) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return unix.Close(s.fd)
}

// linkUp queries rtnetlink for the interface and reports IFF_UP. Non-CAN
// interfaces are rejected.
func linkUp(index int) (bool, error) {
	c, err := netlink.Dial(unix.NETLINK_ROUTE, &netlink.Config{})
	if err != nil {
		return false, fmt.Errorf("couldn't dial netlink socket: %w", err)
	}
	defer c.Close()

	req := netlink.Message{
		Header: netlink.Header{
			Flags: netlink.Request,
			Type:  unix.RTM_GETLINK,
		},
		Data: marshalIfInfoMsg(int32(index)),
	}
	res, err := c.Execute(req)
	if err != nil {
		return false, fmt.Errorf("couldn't retrieve link info: %w", err)
	}
	if len(res) == 0 {
		return false, fmt.Errorf("no link info returned")
	}
	data := res[0].Data
	if len(data) < unix.SizeofIfInfomsg {
		return false, fmt.Errorf("link info truncated: %d bytes", len(data))
	}
	if typ := nlenc.Uint16(data[2:4]); typ != unix.ARPHRD_CAN {
		return false, fmt.Errorf("not a CAN interface (type %d)", typ)
	}
	return nlenc.Uint32(data[8:12])&unix.IFF_UP != 0, nil
}

func marshalIfInfoMsg(index int32) []byte {
	buf := make([]byte, unix.SizeofIfInfomsg)
	buf[0] = unix.AF_UNSPEC
	nlenc.PutInt32(buf[4:8], index)
	return buf
}
