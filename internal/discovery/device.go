package discovery

import (
	"fmt"
	"net"
	"net/netip"
)

// Device kinds seen in the announcement's kind byte. The core does not
// interpret them; KindName only maps them to labels for display.
const (
	KindCDJ    = 0x01
	KindMixer  = 0x02
	KindRekord = 0x03
)

// Device is one decoded presence announcement. It is a value type and is never
// modified after ParseAnnounce returns it.
type Device struct {
	// Name is the player name from the announcement (e.g., "CDJ-2000")
	Name string

	// ID is the player number. Unique per source address, not globally.
	ID uint8

	// MAC is the link-layer address reported by the player
	MAC net.HardwareAddr

	// IP is the IPv4 address the player reports for itself
	IP netip.Addr

	// Kind is the raw device kind tag
	Kind uint8
}

// Key identifies a tracked device: the sender address plus its player number.
type Key struct {
	IP netip.Addr
	ID uint8
}

// Key returns the presence key for the device
func (d Device) Key() Key {
	return Key{IP: d.IP, ID: d.ID}
}

// String returns a human-readable representation of the device
func (d Device) String() string {
	return fmt.Sprintf("%s #%d (%s) at %s [%s]", d.Name, d.ID, KindName(d.Kind), d.IP, d.MAC)
}

// KindName returns a display label for a device kind tag
func KindName(kind uint8) string {
	switch kind {
	case KindCDJ:
		return "cdj"
	case KindMixer:
		return "mixer"
	case KindRekord:
		return "rekordbox"
	default:
		return fmt.Sprintf("kind(0x%02x)", kind)
	}
}
