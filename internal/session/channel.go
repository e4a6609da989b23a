// Package session owns the process/channel layer: it spawns a shell behind a
// bidirectional byte channel (a pseudo-terminal locally, an SSH session
// remotely), relays inbound bytes to the terminal engine on a single
// serialized goroutine, and reports termination exactly once.
package session

import "errors"

var (
	ErrNotStarted     = errors.New("session: not started")
	ErrAlreadyStarted = errors.New("session: already started")
)

// Channel is a bidirectional byte transport with a child on the far end.
// Read blocks until output arrives or the child goes away; Write is
// fire-and-forget at this layer. Close is "stop and detach": it does not
// wait for a graceful shutdown.
type Channel interface {
	// Start spawns or connects the far end at the given geometry.
	Start(cols, rows int) error
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	// Resize propagates a window-size change so the child can react.
	Resize(cols, rows int) error
	Close() error
	// Wait returns the child's exit code once the stream has ended.
	Wait() (int, error)
}
