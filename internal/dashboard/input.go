package dashboard

import (
	"context"
	"os"

	"golang.org/x/term"
)

// WatchQuit puts stdin into raw mode (if it is a terminal) and calls
// cancel as soon as 'q' is read, per spec.md's "press q in the TUI
// triggers process exit". It restores the terminal's prior state before
// returning. If stdin is not a terminal (e.g. running under a test
// harness or piped input), it does nothing.
func WatchQuit(ctx context.Context, cancel context.CancelFunc) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return
	}
	defer term.Restore(fd, oldState)

	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		if n > 0 && (buf[0] == 'q' || buf[0] == 'Q') {
			cancel()
			return
		}
	}
}
