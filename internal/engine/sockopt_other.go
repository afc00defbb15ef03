//go:build !linux

package engine

import (
	"log/slog"
	"net"
)

// tuneSocketBuffers is a no-op outside Linux: SO_RCVBUF/SO_SNDBUF tuning via
// golang.org/x/sys/unix is Linux-specific, and the default kernel buffers
// are sufficient for correctness on other platforms.
func tuneSocketBuffers(_ *net.UDPConn, _ *slog.Logger) {}
