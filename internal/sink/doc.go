// Package sink provides consumers for devices reported by a discovery
// Listener.
//
// Each consumer implements Handler. Drain reads a Sink's channel and hands
// every fresh device to a list of handlers in order:
//
//	printer, _ := sink.NewPrinter(os.Stdout, sink.FormatCompact, registry)
//	recorder := sink.NewRecorder(registry, path)
//	err := sink.Drain(ctx, devices.C(), printer, recorder)
//
// # Handlers
//
//   - Printer writes detailed, compact or JSON lines
//   - Recorder remembers sightings in the config registry
//   - Hub publishes sightings to websocket clients over HTTP
//   - Publisher publishes sightings to NATS, one subject per device kind
package sink
