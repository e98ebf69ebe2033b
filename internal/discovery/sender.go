package discovery

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/muurk/prolink/internal/logging"
)

// SendAnnounce sends one announcement for d to target (host:port).
// Broadcast targets are allowed. Used to exercise listeners without a player.
func SendAnnounce(ctx context.Context, target string, d Device) error {
	addr, err := net.ResolveUDPAddr("udp4", target)
	if err != nil {
		return fmt.Errorf("invalid target %q: %w", target, err)
	}

	lc := net.ListenConfig{Control: control(Config{EnableBroadcast: true})}
	conn, err := lc.ListenPacket(ctx, "udp4", ":0")
	if err != nil {
		return &SetupError{Op: "listen", Addr: ":0", Err: err}
	}
	defer conn.Close()

	packet := EncodeAnnounce(d)
	if _, err := conn.WriteTo(packet, addr); err != nil {
		return fmt.Errorf("failed to send announcement to %s: %w", addr, err)
	}

	logging.Debug("Sent announcement",
		zap.Stringer("target", addr),
		zap.Stringer("device", d),
	)
	logging.LogRawBytes("Announcement packet", packet)
	return nil
}
