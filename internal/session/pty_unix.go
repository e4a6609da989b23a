//go:build !windows

package session

import (
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
)

// PtyChannel runs a local shell behind a POSIX pseudo-terminal.
type PtyChannel struct {
	shell string
	env   []string

	mu   sync.Mutex
	ptmx *os.File
	cmd  *exec.Cmd
}

// NewPtyChannel prepares a channel for the given shell command. An empty
// shell falls back to $SHELL, then /bin/sh. extraEnv entries are appended to
// the inherited environment.
func NewPtyChannel(shell string, extraEnv []string) *PtyChannel {
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	return &PtyChannel{shell: shell, env: extraEnv}
}

// Start spawns the shell attached to a fresh pty at the given size.
func (c *PtyChannel) Start(cols, rows int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ptmx != nil {
		return ErrAlreadyStarted
	}

	cmd := exec.Command(c.shell)
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
	)
	cmd.Env = append(cmd.Env, c.env...)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: uint16(cols),
		Rows: uint16(rows),
	})
	if err != nil {
		return fmt.Errorf("start %s: %w", c.shell, err)
	}
	c.ptmx = ptmx
	c.cmd = cmd
	return nil
}

func (c *PtyChannel) Read(p []byte) (int, error) {
	f := c.file()
	if f == nil {
		return 0, ErrNotStarted
	}
	return f.Read(p)
}

func (c *PtyChannel) Write(p []byte) (int, error) {
	f := c.file()
	if f == nil {
		return 0, ErrNotStarted
	}
	return f.Write(p)
}

// Resize sends TIOCSWINSZ so the child sees the new geometry.
func (c *PtyChannel) Resize(cols, rows int) error {
	f := c.file()
	if f == nil {
		return ErrNotStarted
	}
	return pty.Setsize(f, &pty.Winsize{
		Cols: uint16(cols),
		Rows: uint16(rows),
	})
}

// Close tears the pty down and kills the child if it is still running.
func (c *PtyChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	if c.ptmx != nil {
		if err := c.ptmx.Close(); err != nil {
			firstErr = err
		}
		c.ptmx = nil
	}
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	return firstErr
}

// Wait reaps the child and returns its exit code.
func (c *PtyChannel) Wait() (int, error) {
	c.mu.Lock()
	cmd := c.cmd
	c.mu.Unlock()
	if cmd == nil {
		return 0, ErrNotStarted
	}
	err := cmd.Wait()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return -1, err
	}
	return 0, nil
}

func (c *PtyChannel) file() *os.File {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ptmx
}
