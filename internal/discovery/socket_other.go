//go:build !unix

package discovery

import (
	"syscall"

	"go.uber.org/zap"

	"github.com/muurk/prolink/internal/logging"
)

// control is a no-op outside unix; broadcast reception works without options
// there and address reuse is not offered
func control(cfg Config) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		if cfg.EnableReuseAddress {
			logging.Debug("address reuse not supported on this platform",
				zap.String("address", address),
			)
		}
		return nil
	}
}
