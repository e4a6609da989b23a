// termweave runs a shell (local pty or ssh) through the terminal emulation
// engine, mirroring output to the attached terminal while keeping a full
// screen model server side.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"golang.org/x/term"

	"termweave/internal/config"
	"termweave/internal/session"
	"termweave/internal/vt"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "termweave:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "termweave.yaml", "path to config file")
		logPath    = flag.String("log", "", "log file (overrides config)")
		sshTarget  = flag.String("ssh", "", "connect to user@host[:port] instead of a local shell")
		dumpOnExit = flag.Bool("dump", false, "print the final screen contents on exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *logPath != "" {
		cfg.LogFile = *logPath
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ch, err := buildChannel(cfg, *sshTarget)
	if err != nil {
		return err
	}

	cols, rows := cfg.Cols, cfg.Rows
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		cols, rows = w, h
	}

	emu := vt.NewEmulator(cols, rows, cfg.MaxScrollback)
	emu.SetNotifier(&logNotifier{logger: logger})

	sess := session.New(ch, &teeSink{emu: emu, out: os.Stdout}, cols, rows, logger)
	emu.SetSender(func(b []byte) {
		if err := sess.Write(b); err != nil {
			logger.Debug("reply dropped", "error", err)
		}
	})

	exitCode := make(chan int, 1)
	sess.OnExit(func(code int, err error) {
		if err != nil {
			logger.Error("session ended", "error", err)
		}
		exitCode <- code
	})

	if err := sess.Start(); err != nil {
		return err
	}
	logger.Info("session started", "id", sess.ID(), "cols", cols, "rows", rows)

	restore, err := makeRaw()
	if err != nil {
		return err
	}
	defer restore()

	stopWinch := notifyResize(func() {
		w, h, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil {
			return
		}
		sess.Dispatch(func() { emu.Resize(w, h) })
		if err := sess.Resize(w, h); err != nil {
			logger.Debug("resize failed", "error", err)
		}
	})
	defer stopWinch()

	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				if werr := sess.Write(buf[:n]); werr != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	code := <-exitCode
	restore()
	sess.Stop()

	if *dumpOnExit {
		fmt.Println(emu.ExtractText(0, emu.Rows()-1))
	}
	logger.Info("session exited", "code", code)
	if code != 0 {
		os.Exit(code)
	}
	return nil
}

func buildChannel(cfg *config.Config, sshTarget string) (session.Channel, error) {
	if sshTarget != "" {
		profile, err := parseTarget(sshTarget)
		if err != nil {
			return nil, err
		}
		if cfg.SSH != nil {
			profile.Password = cfg.SSH.Password
			profile.KeyPath = cfg.SSH.KeyPath
			profile.KeyPassphrase = cfg.SSH.KeyPassphrase
			profile.KnownHostsPath = cfg.SSH.KnownHostsPath
			profile.InsecureIgnoreKey = cfg.SSH.InsecureIgnoreKey
		}
		return sshChannel(cfg, profile), nil
	}
	if cfg.SSH != nil {
		return sshChannel(cfg, cfg.SSH), nil
	}
	env := make([]string, 0, len(cfg.Env))
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}
	return session.NewPtyChannel(cfg.Shell, env), nil
}

func sshChannel(cfg *config.Config, p *config.SSHProfile) *session.SSHChannel {
	return session.NewSSHChannel(session.SSHConfig{
		Host:              p.Host,
		Port:              p.Port,
		Username:          p.Username,
		Password:          p.Password,
		PrivateKeyPath:    p.KeyPath,
		KeyPassphrase:     p.KeyPassphrase,
		KnownHostsPath:    p.KnownHostsPath,
		InsecureIgnoreKey: p.InsecureIgnoreKey,
		TermType:          cfg.Term,
		Timeout:           p.SSHTimeout(),
	})
}

// parseTarget splits user@host[:port] into an SSH profile.
func parseTarget(target string) (*config.SSHProfile, error) {
	p := &config.SSHProfile{}
	host := target
	if at := strings.LastIndex(host, "@"); at >= 0 {
		p.Username = host[:at]
		host = host[at+1:]
	}
	if colon := strings.LastIndex(host, ":"); colon >= 0 {
		var port int
		if _, err := fmt.Sscanf(host[colon+1:], "%d", &port); err != nil {
			return nil, fmt.Errorf("bad port in %q", target)
		}
		p.Port = port
		host = host[:colon]
	}
	if host == "" {
		return nil, fmt.Errorf("empty host in %q", target)
	}
	p.Host = host
	return p, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	if cfg.LogFile == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	handler := tint.NewHandler(f, &tint.Options{Level: level, NoColor: true})
	return slog.New(handler), func() { f.Close() }, nil
}

// teeSink feeds session output to the emulator and mirrors it to the
// attached terminal. Called only from the session's serialized loop.
type teeSink struct {
	emu *vt.Emulator
	out io.Writer
}

func (t *teeSink) Feed(b []byte) {
	t.emu.Feed(b)
	t.out.Write(b)
}

type logNotifier struct {
	logger *slog.Logger
}

func (n *logNotifier) Bell() { n.logger.Debug("bell") }

func (n *logNotifier) TitleChanged(title string) {
	n.logger.Debug("title changed", "title", title)
}

func makeRaw() (func(), error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() { term.Restore(fd, state) }, nil
}
