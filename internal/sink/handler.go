package sink

import (
	"context"
	"fmt"

	"github.com/muurk/prolink/internal/discovery"
)

// Handler consumes fresh devices
type Handler interface {
	Handle(d discovery.Device) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(d discovery.Device) error

// Handle calls f(d)
func (f HandlerFunc) Handle(d discovery.Device) error {
	return f(d)
}

// Drain reads devices from in and passes each to every handler in order,
// until in is closed or ctx is cancelled. A handler error stops the drain.
func Drain(ctx context.Context, in <-chan discovery.Device, handlers ...Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-in:
			if !ok {
				return nil
			}
			for _, h := range handlers {
				if err := h.Handle(d); err != nil {
					return fmt.Errorf("failed to handle %s: %w", d.Key().IP, err)
				}
			}
		}
	}
}
