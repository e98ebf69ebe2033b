package sink

import (
	"time"

	"github.com/muurk/prolink/internal/discovery"
)

// Event is the JSON form of a fresh device sighting
type Event struct {
	Name     string    `json:"name"`
	ID       uint8     `json:"id"`
	MAC      string    `json:"mac"`
	IP       string    `json:"ip"`
	Kind     uint8     `json:"kind"`
	KindName string    `json:"kind_name"`
	Nickname string    `json:"nickname,omitempty"`
	SeenAt   time.Time `json:"seen_at"`
}

// Namer resolves a nickname for a MAC address
type Namer interface {
	Nickname(mac string) string
}

// NewEvent builds the event for d. namer may be nil.
func NewEvent(d discovery.Device, seenAt time.Time, namer Namer) Event {
	e := Event{
		Name:     d.Name,
		ID:       d.ID,
		MAC:      d.MAC.String(),
		IP:       d.IP.String(),
		Kind:     d.Kind,
		KindName: discovery.KindName(d.Kind),
		SeenAt:   seenAt,
	}
	if namer != nil {
		e.Nickname = namer.Nickname(e.MAC)
	}
	return e
}
