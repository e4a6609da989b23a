//go:build windows

package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/UserExistsError/conpty"
)

// PtyChannel runs a local shell behind a Windows ConPTY.
type PtyChannel struct {
	shell string
	env   []string

	mu     sync.Mutex
	cpty   *conpty.ConPty
	closed bool
}

// NewPtyChannel prepares a channel for the given shell command. An empty
// shell falls back to %COMSPEC%, then cmd.exe.
func NewPtyChannel(shell string, extraEnv []string) *PtyChannel {
	if shell == "" {
		shell = os.Getenv("COMSPEC")
	}
	if shell == "" {
		systemRoot := os.Getenv("SYSTEMROOT")
		if systemRoot == "" {
			systemRoot = `C:\Windows`
		}
		shell = filepath.Join(systemRoot, "System32", "cmd.exe")
	}
	return &PtyChannel{shell: shell, env: extraEnv}
}

func (c *PtyChannel) Start(cols, rows int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cpty != nil {
		return ErrAlreadyStarted
	}
	cpty, err := conpty.Start(c.shell, conpty.ConPtyDimensions(cols, rows))
	if err != nil {
		return fmt.Errorf("start %s: %w", c.shell, err)
	}
	c.cpty = cpty
	return nil
}

func (c *PtyChannel) Read(p []byte) (int, error) {
	cpty := c.get()
	if cpty == nil {
		return 0, ErrNotStarted
	}
	return cpty.Read(p)
}

func (c *PtyChannel) Write(p []byte) (int, error) {
	cpty := c.get()
	if cpty == nil {
		return 0, ErrNotStarted
	}
	return cpty.Write(p)
}

func (c *PtyChannel) Resize(cols, rows int) error {
	cpty := c.get()
	if cpty == nil {
		return ErrNotStarted
	}
	return cpty.Resize(cols, rows)
}

func (c *PtyChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cpty == nil || c.closed {
		return nil
	}
	c.closed = true
	return c.cpty.Close()
}

func (c *PtyChannel) Wait() (int, error) {
	cpty := c.get()
	if cpty == nil {
		return 0, ErrNotStarted
	}
	code, err := cpty.Wait(context.Background())
	return int(code), err
}

func (c *PtyChannel) get() *conpty.ConPty {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cpty
}
