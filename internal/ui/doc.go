// Package ui provides terminal presentation for prolink.
//
// It holds the shared lipgloss palette and styles, the header banner printed
// by the listen and serve commands, and the Bubble Tea live view used by the
// watch command.
//
// The live view consumes the same channel a Listener's Sink exposes:
//
//	sink := discovery.NewSink(discovery.DefaultSinkCapacity)
//	go listener.Run(ctx, sink)
//	err := ui.RunLive(ctx, sink.C(), "0.0.0.0:50000", registry)
package ui
