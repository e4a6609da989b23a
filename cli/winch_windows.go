//go:build windows

package main

// notifyResize is a no-op on Windows, where the console does not deliver a
// resize signal. Size changes are picked up when the session restarts.
func notifyResize(fn func()) func() {
	return func() {}
}
