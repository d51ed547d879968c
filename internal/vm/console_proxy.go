package vm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-logr/logr"
)

// ErrPipeBusy is returned by a Dialer when the pipe exists but has no free
// server instance yet. The guest firmware has not opened its end.
var ErrPipeBusy = errors.New("pipe busy")

// DefaultPollInterval is the delay between attempts to open a busy pipe.
const DefaultPollInterval = 50 * time.Millisecond

// Dialer opens the host end of a named pipe.
type Dialer interface {
	DialPipe(ctx context.Context, name string) (io.ReadWriteCloser, error)
}

// ConsoleProxy connects a Terminal to the VM's COM1 pipe.
type ConsoleProxy struct {
	Dialer       Dialer
	PollInterval time.Duration
	Terminal     *Terminal
	Log          logr.Logger
}

// Attach opens pipe and starts relaying between it and the terminal. A busy
// pipe is retried every PollInterval with no attempt limit; any other dial
// error is returned immediately. Attach returns once the relay is running.
func (p *ConsoleProxy) Attach(ctx context.Context, pipe string) (*Relay, error) {
	conn, err := p.open(ctx, pipe)
	if err != nil {
		return nil, err
	}
	p.Log.Info("console attached", "pipe", pipe)

	r := &Relay{done: make(chan struct{})}
	go r.run(conn, p.Terminal, p.Log)
	return r, nil
}

func (p *ConsoleProxy) open(ctx context.Context, pipe string) (io.ReadWriteCloser, error) {
	interval := p.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		conn, err := p.Dialer.DialPipe(ctx, pipe)
		if err == nil {
			return conn, nil
		}
		if !errors.Is(err, ErrPipeBusy) {
			return nil, fmt.Errorf("failed to open console pipe %s: %w", pipe, err)
		}
		if attempt == 1 {
			p.Log.Info("waiting for guest to open console", "pipe", pipe)
		}
		p.Log.V(2).Info("console pipe busy", "pipe", pipe, "attempt", attempt)

		timer.Reset(interval)
	}
}

// Relay copies bytes between a console pipe and a terminal until either side
// closes, a copy fails or the user detaches.
type Relay struct {
	done chan struct{}
	err  error
}

// Done is closed when the relay has stopped.
func (r *Relay) Done() <-chan struct{} {
	return r.done
}

// Err is the reason the relay stopped: nil when a side closed cleanly,
// ErrUserDetach after ~. or the copy error otherwise. Valid once Done is
// closed.
func (r *Relay) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

func (r *Relay) run(conn io.ReadWriteCloser, t *Terminal, log logr.Logger) {
	defer close(r.done)
	defer conn.Close()

	input := NewEscapeWriter(conn, t)
	errCh := make(chan error, 2)

	// Guest output to terminal.
	go func() {
		_, err := io.Copy(t, conn)
		errCh <- err
	}()

	// Terminal input to guest. This goroutine may stay blocked in a read
	// after the relay stops; it exits on the next keystroke.
	go func() {
		_, err := io.Copy(input, t)
		errCh <- err
	}()

	select {
	case err := <-errCh:
		r.err = err
	case <-input.Detached():
		r.err = ErrUserDetach
	}

	switch {
	case r.err == nil:
		log.Info("console closed")
	case errors.Is(r.err, ErrUserDetach):
		log.Info("detached from console")
	default:
		log.Error(r.err, "console relay failed")
	}
}
