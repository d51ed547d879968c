//go:build !windows

package vm

import (
	"context"
	"io"

	"github.com/faize-ai/efivm/internal/hcs"
)

type unsupportedDialer struct{}

// NewPipeDialer returns a Dialer that always fails; named pipes are Windows
// only.
func NewPipeDialer() Dialer {
	return unsupportedDialer{}
}

func (unsupportedDialer) DialPipe(context.Context, string) (io.ReadWriteCloser, error) {
	return nil, hcs.ErrUnsupportedPlatform
}
