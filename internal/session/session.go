package session

import (
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const readBufferSize = 4096

// Sink consumes inbound terminal output. The session guarantees Feed is
// called from a single goroutine; the terminal engine is not designed for
// concurrent mutation.
type Sink interface {
	Feed(data []byte)
}

// Session ties a Channel to a Sink. A background goroutine reads the
// channel; every chunk is funneled through one serialized loop before it
// reaches the sink. Dispatch shares that loop so callers can touch the
// engine without their own locking.
type Session struct {
	id     uuid.UUID
	ch     Channel
	sink   Sink
	logger *slog.Logger

	onExit func(code int, err error)

	cols, rows int

	data chan []byte
	ops  chan func()
	done chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	exitOnce  sync.Once
	started   bool
}

// New builds a session over ch at the given geometry. logger may be nil.
func New(ch Channel, sink Sink, cols, rows int, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		id:     uuid.New(),
		ch:     ch,
		sink:   sink,
		logger: logger,
		cols:   cols,
		rows:   rows,
		data:   make(chan []byte, 32),
		ops:    make(chan func(), 16),
		done:   make(chan struct{}),
	}
}

// ID returns the session's stable identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// OnExit installs the termination callback. It fires exactly once, from the
// serialized loop, and is terminal for this session instance.
func (s *Session) OnExit(fn func(code int, err error)) {
	s.onExit = fn
}

// Start spawns the child and begins relaying output. It returns once the
// child is running; subsequent calls return ErrAlreadyStarted.
func (s *Session) Start() error {
	err := ErrAlreadyStarted
	s.startOnce.Do(func() {
		err = s.ch.Start(s.cols, s.rows)
		if err != nil {
			return
		}
		s.started = true
		s.logger.Info("session started",
			"id", s.id, "cols", s.cols, "rows", s.rows)
		go s.readLoop()
		go s.run()
	})
	return err
}

// Stop closes the channel and detaches. Safe to call more than once and
// from any goroutine.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.started {
			if err := s.ch.Close(); err != nil {
				s.logger.Warn("channel close", "id", s.id, "err", err)
			}
		}
	})
}

// Write sends input bytes (keystrokes, paste data, replies) to the child.
// Fire-and-forget: the channel's own buffering absorbs bursts.
func (s *Session) Write(data []byte) error {
	if !s.started {
		return ErrNotStarted
	}
	_, err := s.ch.Write(data)
	return err
}

// Resize propagates a new geometry to the channel. The caller resizes the
// emulator symmetrically (via Dispatch) so the child and the screen agree.
func (s *Session) Resize(cols, rows int) error {
	if !s.started {
		return ErrNotStarted
	}
	s.cols, s.rows = cols, rows
	return s.ch.Resize(cols, rows)
}

// Dispatch runs fn on the serialized loop that also delivers sink data, so
// fn may safely mutate the terminal engine. It is dropped if the session
// has already stopped.
func (s *Session) Dispatch(fn func()) {
	select {
	case s.ops <- fn:
	case <-s.done:
	}
}

// readLoop pulls chunks off the channel on a dedicated goroutine and hands
// them to the serialized loop. It owns detecting the end of the stream.
func (s *Session) readLoop() {
	buf := make([]byte, readBufferSize)
	for {
		n, err := s.ch.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case s.data <- chunk:
			case <-s.done:
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				s.logger.Debug("channel read ended", "id", s.id, "err", err)
			}
			s.terminate(err)
			return
		}
	}
}

func (s *Session) terminate(readErr error) {
	s.exitOnce.Do(func() {
		code, err := s.ch.Wait()
		if err == nil {
			err = readErr
		}
		if err == io.EOF {
			err = nil
		}
		s.logger.Info("session terminated", "id", s.id, "code", code)
		fn := s.onExit
		op := func() {
			if fn != nil {
				fn(code, err)
			}
		}
		select {
		case s.ops <- op:
		case <-s.done:
			// Stopped before the exit op could be queued; deliver inline
			// so termination is still observed exactly once.
			op()
		}
	})
}

// run is the single execution context the engine is mutated from.
func (s *Session) run() {
	for {
		select {
		case chunk := <-s.data:
			s.sink.Feed(chunk)
		case fn := <-s.ops:
			fn()
		case <-s.done:
			return
		}
	}
}
