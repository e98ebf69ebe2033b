package discovery

import (
	"sort"
	"time"

	"github.com/benbjohnson/clock"
)

// TTL is how long a sighting stays fresh. A device re-announcing within the
// window is a duplicate; one reappearing after a longer gap is rediscovered.
const TTL = 10 * time.Second

// entry is a Store record: the last device seen for a key and when
type entry struct {
	device   Device
	lastSeen time.Time
}

// Store tracks which devices are currently present.
//
// Store is not safe for concurrent use. A Listener owns exactly one Store and
// is the only code that touches it.
type Store struct {
	clock   clock.Clock
	entries map[Key]*entry
}

// NewStore creates an empty store. A nil clock uses the wall clock.
func NewStore(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.New()
	}
	return &Store{
		clock:   clk,
		entries: make(map[Key]*entry),
	}
}

// Upsert records a sighting of d and reports whether it is fresh: either the
// key was unknown, or its previous sighting is older than TTL.
//
// Every sighting refreshes the timestamp, so a steady stream of duplicates
// keeps the entry alive without reporting it again.
func (s *Store) Upsert(d Device) bool {
	now := s.clock.Now()
	key := d.Key()

	e, ok := s.entries[key]
	if !ok {
		s.entries[key] = &entry{device: d, lastSeen: now}
		return true
	}

	if now.Sub(e.lastSeen) > TTL {
		e.device = d
		e.lastSeen = now
		return true
	}

	e.lastSeen = now
	return false
}

// PurgeStale removes every entry older than TTL and returns how many were removed
func (s *Store) PurgeStale() int {
	now := s.clock.Now()
	removed := 0
	for key, e := range s.entries {
		if now.Sub(e.lastSeen) > TTL {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked devices
func (s *Store) Len() int {
	return len(s.entries)
}

// Devices returns a snapshot of tracked devices ordered by address, then ID
func (s *Store) Devices() []Device {
	devices := make([]Device, 0, len(s.entries))
	for _, e := range s.entries {
		devices = append(devices, e.device)
	}
	sort.Slice(devices, func(i, j int) bool {
		if c := devices[i].IP.Compare(devices[j].IP); c != 0 {
			return c < 0
		}
		return devices[i].ID < devices[j].ID
	})
	return devices
}
