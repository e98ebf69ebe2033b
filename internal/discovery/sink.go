package discovery

import (
	"context"
	"sync"
)

// DefaultSinkCapacity is the queue depth between the listener and its consumer
const DefaultSinkCapacity = 16

// Sink is a bounded queue of fresh devices from one Listener to one consumer.
//
// The consumer reads from C and calls Close when it no longer wants devices.
// A full queue blocks the listener, which in turn stops reading the socket.
type Sink struct {
	ch        chan Device
	done      chan struct{}
	closeOnce sync.Once
}

// NewSink creates a sink holding up to capacity devices.
// A capacity below 1 uses DefaultSinkCapacity.
func NewSink(capacity int) *Sink {
	if capacity < 1 {
		capacity = DefaultSinkCapacity
	}
	return &Sink{
		ch:   make(chan Device, capacity),
		done: make(chan struct{}),
	}
}

// C returns the channel the consumer drains
func (s *Sink) C() <-chan Device {
	return s.ch
}

// Close tells the producer the consumer is gone. Safe to call more than once.
func (s *Sink) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Done is closed once the consumer has called Close
func (s *Sink) Done() <-chan struct{} {
	return s.done
}

// send queues d, blocking while the queue is full
func (s *Sink) send(ctx context.Context, d Device) error {
	// A closed sink wins over free capacity
	select {
	case <-s.done:
		return ErrSinkClosed
	default:
	}

	select {
	case s.ch <- d:
		return nil
	case <-s.done:
		return ErrSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish closes the data channel so range loops over C end.
// Only the producer calls it, once, when Run returns.
func (s *Sink) finish() {
	close(s.ch)
}
