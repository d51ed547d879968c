package vm

import "io"

const escapeHelp = "\r\nSupported escape sequences:\r\n  ~.  Detach and shut the VM down\r\n  ~~  Send literal ~ character\r\n  ~?  Show this help\r\n"

const (
	escapeTilde  = '~'
	escapeDetach = '.'
	escapeHelpCh = '?'
)

// EscapeWriter forwards keyboard input to the guest while watching for
// SSH-style escape sequences. A sequence is only recognised when ~ is the
// first byte of a line.
//
// EscapeWriter is not safe for concurrent use; it expects sequential Write
// calls from a single stdin copy loop.
type EscapeWriter struct {
	w            io.Writer
	help         io.Writer
	afterNewline bool
	pendingTilde bool
	detached     bool
	detachCh     chan struct{}
}

// NewEscapeWriter wraps w. Help text for ~? is written to help.
func NewEscapeWriter(w, help io.Writer) *EscapeWriter {
	return &EscapeWriter{
		w:            w,
		help:         help,
		afterNewline: true,
		detachCh:     make(chan struct{}),
	}
}

// Write forwards p, minus any escape sequences it contains.
func (e *EscapeWriter) Write(p []byte) (int, error) {
	if e.detached {
		return len(p), nil
	}

	for _, b := range p {
		if b == '\n' || b == '\r' {
			if e.pendingTilde {
				if _, err := e.w.Write([]byte{escapeTilde}); err != nil {
					return len(p), err
				}
				e.pendingTilde = false
			}
			if _, err := e.w.Write([]byte{b}); err != nil {
				return len(p), err
			}
			e.afterNewline = true
			continue
		}

		if e.afterNewline && b == escapeTilde && !e.pendingTilde {
			e.pendingTilde = true
			e.afterNewline = false
			continue
		}

		if e.pendingTilde {
			e.pendingTilde = false
			switch b {
			case escapeDetach:
				e.detached = true
				close(e.detachCh)
				return len(p), nil
			case escapeTilde:
				if _, err := e.w.Write([]byte{escapeTilde}); err != nil {
					return len(p), err
				}
			case escapeHelpCh:
				if _, err := e.help.Write([]byte(escapeHelp)); err != nil {
					return len(p), err
				}
			default:
				if _, err := e.w.Write([]byte{escapeTilde, b}); err != nil {
					return len(p), err
				}
			}
			e.afterNewline = false
			continue
		}

		if _, err := e.w.Write([]byte{b}); err != nil {
			return len(p), err
		}
		e.afterNewline = false
	}

	return len(p), nil
}

// Detached is closed once ~. has been typed.
func (e *EscapeWriter) Detached() <-chan struct{} {
	return e.detachCh
}
