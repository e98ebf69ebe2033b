package sink

import (
	"time"

	"go.uber.org/zap"

	"github.com/muurk/prolink/internal/config"
	"github.com/muurk/prolink/internal/discovery"
	"github.com/muurk/prolink/internal/logging"
)

// Recorder remembers every fresh device in the config registry
type Recorder struct {
	registry *config.Registry
	path     string
	now      func() time.Time
}

// NewRecorder records sightings into registry and saves it to path
func NewRecorder(registry *config.Registry, path string) *Recorder {
	return &Recorder{
		registry: registry,
		path:     path,
		now:      time.Now,
	}
}

// Handle implements Handler. Save failures are logged, not returned, so a
// read-only config directory does not stop discovery.
func (r *Recorder) Handle(d discovery.Device) error {
	r.registry.RecordSighting(config.Sighting{
		MAC:  d.MAC.String(),
		Name: d.Name,
		IP:   d.IP.String(),
		ID:   int(d.ID),
		Kind: int(d.Kind),
	}, r.now())

	if err := r.registry.SaveTo(r.path); err != nil {
		logging.Warn("Failed to save device registry",
			zap.String("path", r.path),
			zap.Error(err),
		)
	}
	return nil
}
