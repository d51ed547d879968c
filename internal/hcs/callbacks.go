package hcs

import "sync"

// callbackTable routes completions from the process-wide trampoline to the
// callback registered for an operation's context token. An entry is removed
// either when it is dispatched or when its operation is closed, whichever
// comes first.
type callbackTable struct {
	mu      sync.Mutex
	byToken map[uintptr]Callback
	byOp    map[OperationHandle]uintptr
}

func newCallbackTable() *callbackTable {
	return &callbackTable{
		byToken: make(map[uintptr]Callback),
		byOp:    make(map[OperationHandle]uintptr),
	}
}

// register must precede the allocation call so no completion can miss it.
func (t *callbackTable) register(token uintptr, cb Callback) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byToken[token] = cb
}

// bind associates an allocated operation with its token.
func (t *callbackTable) bind(op OperationHandle, token uintptr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byToken[token]; ok {
		t.byOp[op] = token
	}
}

func (t *callbackTable) unregister(token uintptr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byToken, token)
}

// dispatch runs the callback for token at most once.
func (t *callbackTable) dispatch(op OperationHandle, token uintptr) bool {
	t.mu.Lock()
	cb, ok := t.byToken[token]
	delete(t.byToken, token)
	if bound, found := t.byOp[op]; found && bound == token {
		delete(t.byOp, op)
	}
	t.mu.Unlock()

	if !ok {
		return false
	}
	cb(op, token)
	return true
}

// release drops the entry of an operation that is being closed without a
// completion, such as one whose service call failed synchronously.
func (t *callbackTable) release(op OperationHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if token, ok := t.byOp[op]; ok {
		delete(t.byOp, op)
		delete(t.byToken, token)
	}
}

func (t *callbackTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byToken)
}
