package hcs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
)

// Outcome is the single result of an HCS operation. Err is an
// *OperationError when the service reported a failure.
type Outcome struct {
	Result string
	Err    error
}

// Bridge hands out HCS operations whose completion callbacks deliver into a
// channel the caller can wait on.
//
// The service never sees a Go pointer. Each operation is registered under a
// uintptr token, and the callback looks its completion slot up by token. A
// token is removed from the table exactly once, either by the callback or by
// Pending.Abort, and whoever removes it owns closing the operation handle.
type Bridge struct {
	api API
	log logr.Logger

	mu    sync.Mutex
	slots map[uintptr]chan<- Outcome
}

// nextToken is shared by every Bridge in the process: the Windows binding
// routes completions through one table keyed by token.
var nextToken atomic.Uintptr

// NewBridge returns a Bridge issuing operations against api.
func NewBridge(api API, log logr.Logger) *Bridge {
	return &Bridge{
		api:   api,
		log:   log,
		slots: make(map[uintptr]chan<- Outcome),
	}
}

// Begin allocates an operation. The handle is passed to exactly one service
// call; the outcome of that call is read from the returned Pending.
//
// An allocation failure is returned here, before any service call is made.
func (b *Bridge) Begin() (OperationHandle, *Pending, error) {
	ch := make(chan Outcome, 1)

	token := nextToken.Add(1)

	b.mu.Lock()
	b.slots[token] = ch
	b.mu.Unlock()

	op, err := b.api.CreateOperation(token, b.complete)
	if err != nil {
		b.take(token)
		return 0, nil, fmt.Errorf("%w: %w", ErrOperationAlloc, err)
	}

	return op, &Pending{bridge: b, token: token, op: op, ch: ch}, nil
}

// Outstanding returns the number of operations still waiting for a callback.
func (b *Bridge) Outstanding() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.slots)
}

// take removes token from the table. Only the first caller for a token gets ok.
func (b *Bridge) take(token uintptr) (chan<- Outcome, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.slots[token]
	if ok {
		delete(b.slots, token)
	}
	return ch, ok
}

// complete runs on a service-owned thread.
func (b *Bridge) complete(op OperationHandle, token uintptr) {
	ch, ok := b.take(token)
	if !ok {
		b.log.V(1).Info("ignoring completion for released operation", "operation", uintptr(op), "token", token)
		return
	}

	result, err := b.api.GetOperationResult(op)
	b.api.CloseOperation(op)

	out := Outcome{Result: result}
	if err != nil {
		code := ResultUnexpected
		errors.As(err, &code)
		out.Err = &OperationError{Code: code, Detail: result}
	}

	// Capacity 1 and a single producer: this never blocks. A waiter that has
	// gone away just leaves the value in the buffer.
	select {
	case ch <- out:
	default:
	}
}

// Pending is the awaitable side of an operation.
type Pending struct {
	bridge *Bridge
	token  uintptr
	op     OperationHandle
	ch     <-chan Outcome
}

// Await blocks until the operation completes or ctx is done. On ctx
// cancellation the operation stays registered so its callback still
// releases the handle.
func (p *Pending) Await(ctx context.Context) (string, error) {
	select {
	case out := <-p.ch:
		return out.Result, out.Err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Abort releases an operation whose service call failed synchronously, in
// which case the service will never invoke the callback.
func (p *Pending) Abort() {
	if _, ok := p.bridge.take(p.token); ok {
		p.bridge.api.CloseOperation(p.op)
	}
}
