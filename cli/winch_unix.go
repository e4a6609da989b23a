//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// notifyResize invokes fn whenever the controlling terminal changes size.
// The returned func stops the watcher.
func notifyResize(fn func()) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
				fn()
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}
