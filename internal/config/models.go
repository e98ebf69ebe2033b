package config

import (
	"sort"
	"sync"
	"time"
)

// Registry represents the entire user configuration file.
// It stores user-defined metadata for players and listener preferences.
//
// The methods are safe for concurrent use: a recorder may write sightings
// while a view looks up nicknames.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by MAC address (aa:bb:cc:dd:ee:ff)
	Preferences *Preferences       `yaml:"preferences,omitempty"`

	mu sync.RWMutex
}

// Device represents what we remember about a single player.
// Keyed by the player's MAC address in the Registry, since player numbers and
// IP addresses change between sets.
type Device struct {
	Nickname  string    `yaml:"nickname,omitempty"`  // User-friendly name (e.g., "Booth left")
	LastName  string    `yaml:"last_name,omitempty"` // Name the player last announced
	LastIP    string    `yaml:"last_ip,omitempty"`   // Last known IP address
	LastID    int       `yaml:"last_id,omitempty"`   // Last player number
	Kind      int       `yaml:"kind,omitempty"`      // Device kind tag
	LastSeen  time.Time `yaml:"last_seen,omitempty"` // Last fresh sighting
	Sightings int       `yaml:"sightings"`           // Number of fresh sightings recorded
}

// Preferences represents listener defaults. Command-line flags override them.
type Preferences struct {
	Interface    string `yaml:"interface,omitempty"` // Interface name or IPv4 to bind
	ReuseAddress bool   `yaml:"reuse_address"`       // Share port 50000 with other software
	Format       string `yaml:"format,omitempty"`    // Output format (detailed, compact, json)
}

// Sighting is one fresh device observation to record
type Sighting struct {
	MAC  string
	Name string
	IP   string
	ID   int
	Kind int
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Devices:     make(map[string]*Device),
		Preferences: defaultPreferences(),
	}
}

func defaultPreferences() *Preferences {
	return &Preferences{
		ReuseAddress: true,
		Format:       "detailed",
	}
}

// GetDevice returns a copy of the device metadata for a MAC address.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(mac string) *Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	device, ok := r.Devices[mac]
	if !ok {
		return nil
	}
	cp := *device
	return &cp
}

// EnsureDevice ensures a device entry exists in the registry.
// Returns the device entry (existing or newly created). The entry is shared;
// use the Registry methods to change it while other goroutines are active.
func (r *Registry) EnsureDevice(mac string) *Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensureDeviceLocked(mac)
}

func (r *Registry) ensureDeviceLocked(mac string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}

	if device, exists := r.Devices[mac]; exists {
		return device
	}

	device := &Device{}
	r.Devices[mac] = device
	return device
}

// RecordSighting updates the registry with a fresh sighting
func (r *Registry) RecordSighting(s Sighting, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	device := r.ensureDeviceLocked(s.MAC)
	device.LastName = s.Name
	device.LastIP = s.IP
	device.LastID = s.ID
	device.Kind = s.Kind
	device.LastSeen = at
	device.Sightings++
}

// SetDeviceNickname sets a user-friendly nickname for a device.
func (r *Registry) SetDeviceNickname(mac, nickname string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	device := r.ensureDeviceLocked(mac)
	device.Nickname = nickname
}

// Nickname returns the nickname for a MAC address, or "" if none is set
func (r *Registry) Nickname(mac string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if device, ok := r.Devices[mac]; ok {
		return device.Nickname
	}
	return ""
}

// MACs returns the MAC addresses of every remembered device, sorted
func (r *Registry) MACs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	macs := make([]string, 0, len(r.Devices))
	for mac := range r.Devices {
		macs = append(macs, mac)
	}
	sort.Strings(macs)
	return macs
}
