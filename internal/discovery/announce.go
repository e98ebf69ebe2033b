package discovery

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"unicode/utf8"
)

// Announcement packet layout
const (
	AnnounceLength = 54   // Exact size of a keep-alive announcement
	AnnounceType   = 0x06 // Packet type byte for announcements

	offsetType = 0x0A
	offsetName = 0x0C
	offsetID   = 0x24
	offsetMAC  = 0x26
	offsetIP   = 0x2C
	offsetKind = 0x34

	NameLength = 20 // Bytes reserved for the device name
	macLength  = 6
)

// Magic is the fixed signature at the start of every Pro DJ Link packet
var Magic = []byte("Qspt1WmJOL")

// Rejection reasons returned by ParseAnnounceErr
var (
	ErrBadLength   = errors.New("packet has wrong length")
	ErrBadMagic    = errors.New("packet signature mismatch")
	ErrNotAnnounce = errors.New("packet is not an announcement")
)

// ParseAnnounce decodes an announcement packet. It reports false for anything
// that is not a well-formed announcement and never returns a partial Device.
func ParseAnnounce(buf []byte) (Device, bool) {
	d, err := ParseAnnounceErr(buf)
	return d, err == nil
}

// ParseAnnounceErr is ParseAnnounce with the rejection reason attached
func ParseAnnounceErr(buf []byte) (Device, error) {
	if len(buf) != AnnounceLength {
		return Device{}, fmt.Errorf("%w: got %d bytes, want %d", ErrBadLength, len(buf), AnnounceLength)
	}

	if !bytes.Equal(buf[:len(Magic)], Magic) {
		return Device{}, ErrBadMagic
	}

	if buf[offsetType] != AnnounceType {
		return Device{}, fmt.Errorf("%w: type 0x%02x", ErrNotAnnounce, buf[offsetType])
	}

	// Copy the MAC so the Device never aliases the receive buffer
	mac := make(net.HardwareAddr, macLength)
	copy(mac, buf[offsetMAC:offsetMAC+macLength])

	return Device{
		Name: decodeName(buf[offsetName : offsetName+NameLength]),
		ID:   buf[offsetID],
		MAC:  mac,
		IP:   netip.AddrFrom4([4]byte{buf[offsetIP], buf[offsetIP+1], buf[offsetIP+2], buf[offsetIP+3]}),
		Kind: buf[offsetKind],
	}, nil
}

// decodeName converts the NUL-padded name field. Each ill-formed sequence
// becomes one U+FFFD.
func decodeName(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw))
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		if r == utf8.RuneError && size <= 1 {
			b.WriteRune(utf8.RuneError)
			raw = raw[invalidPrefixLen(raw):]
			continue
		}
		b.Write(raw[:size])
		raw = raw[size:]
	}
	return strings.TrimRight(b.String(), "\x00")
}

// invalidPrefixLen returns how many bytes of p one replacement character
// covers: a lead byte plus the continuation bytes still valid after it.
// p must start with an ill-formed sequence.
func invalidPrefixLen(p []byte) int {
	var n int
	lo, hi := byte(0x80), byte(0xBF)
	switch c := p[0]; {
	case c >= 0xC2 && c <= 0xDF:
		n = 2
	case c == 0xE0:
		n, lo = 3, 0xA0
	case c == 0xED:
		n, hi = 3, 0x9F
	case c >= 0xE1 && c <= 0xEF:
		n = 3
	case c == 0xF0:
		n, lo = 4, 0x90
	case c == 0xF4:
		n, hi = 4, 0x8F
	case c >= 0xF1 && c <= 0xF3:
		n = 4
	default:
		return 1
	}

	i := 1
	for i < n && i < len(p) && p[i] >= lo && p[i] <= hi {
		lo, hi = 0x80, 0xBF
		i++
	}
	return i
}

// EncodeAnnounce builds a well-formed announcement packet for d.
// Names longer than the field are truncated.
func EncodeAnnounce(d Device) []byte {
	buf := make([]byte, AnnounceLength)
	copy(buf, Magic)
	buf[offsetType] = AnnounceType
	copy(buf[offsetName:offsetName+NameLength], d.Name)
	buf[offsetID] = d.ID
	copy(buf[offsetMAC:offsetMAC+macLength], d.MAC)
	if d.IP.Is4() {
		ip := d.IP.As4()
		copy(buf[offsetIP:offsetIP+4], ip[:])
	}
	buf[offsetKind] = d.Kind
	return buf
}
