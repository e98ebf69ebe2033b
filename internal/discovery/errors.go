package discovery

import (
	"errors"
	"fmt"
)

// ErrSinkClosed is returned by Run when the consumer has closed its Sink
var ErrSinkClosed = errors.New("device sink closed")

// Bind resolver failures
var (
	ErrInterfaceNotFound = errors.New("interface not found")
	ErrNoIPv4            = errors.New("interface has no IPv4 address")
)

// SetupError reports a failure to create, configure or bind the socket
type SetupError struct {
	Op   string // "resolve", "listen", "setsockopt"
	Addr string
	Err  error
}

func (e *SetupError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("discovery setup failed (%s %s): %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("discovery setup failed (%s): %v", e.Op, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// ReceiveError reports a socket read failure that terminated the loop
type ReceiveError struct {
	Err error
}

func (e *ReceiveError) Error() string {
	return fmt.Sprintf("discovery receive failed: %v", e.Err)
}

func (e *ReceiveError) Unwrap() error {
	return e.Err
}

// IsSetupError reports whether err came from socket setup
func IsSetupError(err error) bool {
	var se *SetupError
	return errors.As(err, &se)
}

// IsReceiveError reports whether err came from a failed socket read
func IsReceiveError(err error) bool {
	var re *ReceiveError
	return errors.As(err, &re)
}
