package session

import (
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHConfig holds what is needed to open a remote shell channel. Host key
// verification is explicit: either a known_hosts path, a custom callback, or
// the insecure opt-out. No ambient defaults.
type SSHConfig struct {
	Host string
	Port int

	Username       string
	Password       string
	PrivateKeyPath string
	KeyPassphrase  string

	KnownHostsPath    string
	HostKeyCallback   ssh.HostKeyCallback
	InsecureIgnoreKey bool

	TermType string
	Timeout  time.Duration
}

// SSHChannel is a remote byte transport: the same Channel contract as the
// local pty, carried over an SSH session with a requested remote pty.
type SSHChannel struct {
	cfg SSHConfig

	mu      sync.Mutex
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	stdout  io.Reader
	closed  bool
}

// NewSSHChannel prepares a remote channel; nothing connects until Start.
func NewSSHChannel(cfg SSHConfig) *SSHChannel {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.TermType == "" {
		cfg.TermType = "xterm-256color"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &SSHChannel{cfg: cfg}
}

func (c *SSHChannel) authMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	if c.cfg.PrivateKeyPath != "" {
		key, err := os.ReadFile(c.cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		var signer ssh.Signer
		if c.cfg.KeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(c.cfg.KeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(key)
		}
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if c.cfg.Password != "" {
		methods = append(methods, ssh.Password(c.cfg.Password))
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("no authentication method configured")
	}
	return methods, nil
}

func (c *SSHChannel) hostKeyCallback() (ssh.HostKeyCallback, error) {
	switch {
	case c.cfg.HostKeyCallback != nil:
		return c.cfg.HostKeyCallback, nil
	case c.cfg.InsecureIgnoreKey:
		return ssh.InsecureIgnoreHostKey(), nil
	case c.cfg.KnownHostsPath != "":
		return knownhosts.New(c.cfg.KnownHostsPath)
	default:
		return nil, fmt.Errorf("no host key verification configured")
	}
}

// Start dials, authenticates, requests a remote pty at the given size and
// starts the login shell.
func (c *SSHChannel) Start(cols, rows int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return ErrAlreadyStarted
	}

	methods, err := c.authMethods()
	if err != nil {
		return err
	}
	hostKey, err := c.hostKeyCallback()
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(c.cfg.Host, fmt.Sprintf("%d", c.cfg.Port))
	client, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            c.cfg.Username,
		Auth:            methods,
		HostKeyCallback: hostKey,
		Timeout:         c.cfg.Timeout,
	})
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}

	sess, err := client.NewSession()
	if err != nil {
		client.Close()
		return fmt.Errorf("open session: %w", err)
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return err
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return err
	}
	sess.Stderr = sess.Stdout

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 115200,
		ssh.TTY_OP_OSPEED: 115200,
	}
	if err := sess.RequestPty(c.cfg.TermType, rows, cols, modes); err != nil {
		sess.Close()
		client.Close()
		return fmt.Errorf("request pty: %w", err)
	}
	if err := sess.Shell(); err != nil {
		sess.Close()
		client.Close()
		return fmt.Errorf("start shell: %w", err)
	}

	c.client = client
	c.session = sess
	c.stdin = stdin
	c.stdout = stdout
	return nil
}

func (c *SSHChannel) Read(p []byte) (int, error) {
	c.mu.Lock()
	r := c.stdout
	c.mu.Unlock()
	if r == nil {
		return 0, ErrNotStarted
	}
	return r.Read(p)
}

func (c *SSHChannel) Write(p []byte) (int, error) {
	c.mu.Lock()
	w := c.stdin
	c.mu.Unlock()
	if w == nil {
		return 0, ErrNotStarted
	}
	return w.Write(p)
}

// Resize sends a window-change request to the remote pty.
func (c *SSHChannel) Resize(cols, rows int) error {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()
	if sess == nil {
		return ErrNotStarted
	}
	return sess.WindowChange(rows, cols)
}

// Close disconnects. The session handle is retained so a concurrent Wait
// still resolves to the shell's exit status.
func (c *SSHChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	var firstErr error
	if c.session != nil {
		if err := c.session.Close(); err != nil && err != io.EOF {
			firstErr = err
		}
	}
	if c.client != nil {
		if err := c.client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Wait blocks until the remote shell exits and returns its status.
func (c *SSHChannel) Wait() (int, error) {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()
	if sess == nil {
		return 0, ErrNotStarted
	}
	err := sess.Wait()
	if err != nil {
		if exitErr, ok := err.(*ssh.ExitError); ok {
			return exitErr.ExitStatus(), nil
		}
		return -1, err
	}
	return 0, nil
}
