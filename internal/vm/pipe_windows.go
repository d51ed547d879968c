//go:build windows

package vm

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/Microsoft/go-winio"
	"golang.org/x/sys/windows"
)

// pipeDialTimeout bounds a single open attempt. winio keeps retrying a busy
// pipe internally until this expires.
const pipeDialTimeout = 10 * time.Millisecond

type winioDialer struct {
	timeout time.Duration
}

// NewPipeDialer returns a Dialer for Windows named pipes.
func NewPipeDialer() Dialer {
	return winioDialer{timeout: pipeDialTimeout}
}

func (d winioDialer) DialPipe(ctx context.Context, name string) (io.ReadWriteCloser, error) {
	dctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	conn, err := winio.DialPipeContext(dctx, name)
	if err == nil {
		return conn, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(err, winio.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, windows.ERROR_PIPE_BUSY) {
		return nil, ErrPipeBusy
	}
	return nil, err
}
