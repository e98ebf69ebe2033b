// Package discovery finds Pro DJ Link players on the local network.
//
// Players (CDJs, mixers, rekordbox) broadcast a 54-byte keep-alive
// announcement on UDP port 50000 roughly every 1.5 seconds. This package
// decodes those announcements and reports each player once per appearance.
//
// # Components
//
//   - ParseAnnounce decodes one packet into a Device, or rejects it
//   - Store remembers which (address, player number) pairs are present
//   - Listener owns the socket and a Store, and forwards fresh sightings
//   - Sink is the bounded queue between a Listener and its consumer
//   - SendAnnounce emits one announcement, for testing a listener without a player
//
// # Freshness
//
// A sighting is fresh when its key has not been seen before, or when the
// previous sighting is more than TTL (10 seconds) old. Every sighting, fresh
// or not, refreshes the timestamp, so a player that keeps announcing is
// reported exactly once.
//
// # Usage Example
//
//	addr, err := discovery.ResolveBindAddress("eth0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := discovery.DefaultConfig()
//	cfg.BindAddress = addr
//
//	listener, err := discovery.Listen(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sink := discovery.NewSink(discovery.DefaultSinkCapacity)
//	go func() {
//	    for device := range sink.C() {
//	        fmt.Println("Found:", device)
//	    }
//	}()
//
//	err = listener.Run(ctx, sink)
//
// # Errors
//
// Socket setup failures are returned from Listen as *SetupError. Run only
// returns on a fatal condition: a *ReceiveError from the socket,
// ErrSinkClosed once the consumer calls Sink.Close, or the context error.
// Packets that fail to decode are dropped and never surface as errors.
//
// # Thread Safety
//
// Sink is safe to use from the producer and consumer goroutines. Store and
// Listener are not; each Listener must be run by one goroutine.
package discovery
