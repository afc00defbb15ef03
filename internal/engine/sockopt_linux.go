//go:build linux

package engine

import (
	"log/slog"
	"net"

	"golang.org/x/sys/unix"
)

// socketBufferBytes is the receive/send buffer size requested for both UDP
// sockets. DNS datagrams are small but bursty under load; a larger kernel
// buffer reduces drops when the ingress loop falls briefly behind.
const socketBufferBytes = 1 << 20

// tuneSocketBuffers raises the kernel socket buffers for conn via
// SO_RCVBUF/SO_SNDBUF. Failure is non-fatal: the socket still works with
// whatever buffer size the kernel already assigned.
func tuneSocketBuffers(conn *net.UDPConn, log *slog.Logger) {
	raw, err := conn.SyscallConn()
	if err != nil {
		log.Debug("could not access raw socket for buffer tuning", "error", err)
		return
	}

	ctrlErr := raw.Control(func(fd uintptr) {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, socketBufferBytes); err != nil {
			log.Debug("SO_RCVBUF tuning failed", "error", err)
		}
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, socketBufferBytes); err != nil {
			log.Debug("SO_SNDBUF tuning failed", "error", err)
		}
	})
	if ctrlErr != nil {
		log.Debug("raw socket control failed during buffer tuning", "error", ctrlErr)
	}
}
