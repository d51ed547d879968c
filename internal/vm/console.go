package vm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ErrUserDetach is the relay result when the user typed ~.
var ErrUserDetach = errors.New("user detached from console")

// Terminal joins the host's input and output into a single stream.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

// Stdio returns the process's stdin and stdout as a Terminal.
func Stdio() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stdout}
}

func (t *Terminal) Read(p []byte) (int, error) {
	return t.In.Read(p)
}

func (t *Terminal) Write(p []byte) (int, error) {
	return t.Out.Write(p)
}

// MakeRaw switches the input to raw mode when it is a terminal, so control
// keys reach the guest. The returned function restores the previous mode and
// is a no-op when nothing was changed.
func (t *Terminal) MakeRaw() (restore func(), err error) {
	f, ok := t.In.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return func() {}, nil
	}

	fd := int(f.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to set raw mode: %w", err)
	}
	return func() { _ = term.Restore(fd, oldState) }, nil
}
