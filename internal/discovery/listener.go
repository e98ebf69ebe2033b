package discovery

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"strconv"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/muurk/prolink/internal/logging"
)

const (
	// DiscoveryPort is the UDP port players broadcast announcements on
	DiscoveryPort = 50000

	// DefaultBufferSize is the receive buffer; larger than any Pro DJ Link packet
	DefaultBufferSize = 2048
)

// Config is the socket capability set for a Listener
type Config struct {
	// BindAddress is the local IPv4 address to bind (0.0.0.0 for all)
	BindAddress netip.Addr

	// Port to bind. Zero picks an ephemeral port.
	Port int

	// EnableBroadcast sets SO_BROADCAST on the socket
	EnableBroadcast bool

	// EnableReuseAddress lets other listeners share the port
	EnableReuseAddress bool

	// BufferSize is the datagram read buffer size
	BufferSize int
}

// DefaultConfig listens on all interfaces on the discovery port with
// broadcast and address reuse enabled
func DefaultConfig() Config {
	return Config{
		BindAddress:        netip.IPv4Unspecified(),
		Port:               DiscoveryPort,
		EnableBroadcast:    true,
		EnableReuseAddress: true,
		BufferSize:         DefaultBufferSize,
	}
}

// Listener receives announcements on one socket and forwards fresh sightings.
//
// A Listener is driven by a single goroutine calling Run; its Store is never
// shared.
type Listener struct {
	conn       net.PacketConn
	store      *Store
	bufferSize int
}

// Listen binds a UDP socket according to cfg
func Listen(ctx context.Context, cfg Config) (*Listener, error) {
	if !cfg.BindAddress.IsValid() {
		cfg.BindAddress = netip.IPv4Unspecified()
	}
	if !cfg.BindAddress.Is4() {
		return nil, &SetupError{Op: "resolve", Addr: cfg.BindAddress.String(), Err: errors.New("bind address must be IPv4")}
	}

	addr := net.JoinHostPort(cfg.BindAddress.String(), strconv.Itoa(cfg.Port))
	lc := net.ListenConfig{Control: control(cfg)}

	conn, err := lc.ListenPacket(ctx, "udp4", addr)
	if err != nil {
		return nil, &SetupError{Op: "listen", Addr: addr, Err: err}
	}

	logging.Info("Listening for announcements",
		zap.String("addr", conn.LocalAddr().String()),
		zap.Bool("broadcast", cfg.EnableBroadcast),
		zap.Bool("reuse_address", cfg.EnableReuseAddress),
	)

	l := NewListener(conn, nil)
	if cfg.BufferSize > 0 {
		l.bufferSize = cfg.BufferSize
	}
	return l, nil
}

// NewListener wraps an already open packet connection. A nil clock uses the
// wall clock for the presence store.
func NewListener(conn net.PacketConn, clk clock.Clock) *Listener {
	return &Listener{
		conn:       conn,
		store:      NewStore(clk),
		bufferSize: DefaultBufferSize,
	}
}

// LocalAddr returns the bound socket address
func (l *Listener) LocalAddr() net.Addr {
	return l.conn.LocalAddr()
}

// Close releases the socket
func (l *Listener) Close() error {
	return l.conn.Close()
}

// Run receives datagrams until a fatal condition and sends each fresh device
// to sink. Packets that are not announcements are dropped.
//
// Run returns a *ReceiveError if the socket fails, ErrSinkClosed if the
// consumer closed the sink, or ctx.Err() when ctx is cancelled. The socket is
// closed and sink.C is closed when Run returns. A Sink serves a single Run.
func (l *Listener) Run(ctx context.Context, sink *Sink) error {
	defer sink.finish()
	defer l.conn.Close()

	// Closing the socket is the only way to interrupt a blocked read
	stop := context.AfterFunc(ctx, func() {
		_ = l.conn.Close()
	})
	defer stop()

	buf := make([]byte, l.bufferSize)
	for {
		n, src, err := l.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &ReceiveError{Err: err}
		}

		if err := l.handle(ctx, sink, buf[:n], src); err != nil {
			return err
		}

		if removed := l.store.PurgeStale(); removed > 0 {
			logging.Debug("Purged stale devices",
				zap.Int("removed", removed),
				zap.Int("remaining", l.store.Len()),
			)
		}
	}
}

// handle decodes one datagram and forwards it if it is a fresh sighting
func (l *Listener) handle(ctx context.Context, sink *Sink, payload []byte, src net.Addr) error {
	device, err := ParseAnnounceErr(payload)
	if err != nil {
		// Other Pro DJ Link traffic shares this port; not a failure
		logging.Debug("Ignoring packet",
			zap.Stringer("src", src),
			zap.Int("length", len(payload)),
			zap.String("reason", err.Error()),
		)
		logging.LogRawBytes("Ignored packet", payload)
		return nil
	}

	if !l.store.Upsert(device) {
		return nil
	}

	logging.LogDevice("device_discovered", device.Name, int(device.ID), device.IP.String(), device.MAC.String())
	return sink.send(ctx, device)
}
