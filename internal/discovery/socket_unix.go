//go:build unix

package discovery

import (
	"fmt"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/muurk/prolink/internal/logging"
)

// control returns a ListenConfig hook that applies the socket options in cfg
// before the socket is bound
func control(cfg Config) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		var opErr error
		err := c.Control(func(fd uintptr) {
			if cfg.EnableBroadcast {
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1); err != nil {
					opErr = fmt.Errorf("set SO_BROADCAST: %w", err)
					return
				}
			}

			if cfg.EnableReuseAddress {
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
					opErr = fmt.Errorf("set SO_REUSEADDR: %w", err)
					return
				}
				// SO_REUSEPORT lets several listeners share port 50000 on BSD/macOS
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
					logging.Debug("SO_REUSEPORT not supported, continuing with SO_REUSEADDR",
						zap.String("address", address),
						zap.Error(err),
					)
				}
			}
		})
		if err != nil {
			return err
		}
		return opErr
	}
}
