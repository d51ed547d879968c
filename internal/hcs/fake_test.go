package hcs

import (
	"errors"
	"sync"
)

type fakeResult struct {
	doc string
	err error
}

type fakeOp struct {
	token  uintptr
	cb     Callback
	result fakeResult
}

// fakeAPI completes every operation from a separate goroutine, the way the
// service calls back on its own threads.
type fakeAPI struct {
	mu      sync.Mutex
	nextOp  uintptr
	ops     map[OperationHandle]*fakeOp
	closed  map[OperationHandle]int
	calls   []string
	results map[string]fakeResult

	allocErr      error
	syncErr       map[string]error
	config        string
	query         string
	systemsClosed int

	// manual holds operations back instead of completing them.
	manual  bool
	waiting []OperationHandle
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		ops:     make(map[OperationHandle]*fakeOp),
		closed:  make(map[OperationHandle]int),
		results: make(map[string]fakeResult),
		syncErr: make(map[string]error),
	}
}

func (f *fakeAPI) CreateOperation(token uintptr, cb Callback) (OperationHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.allocErr != nil {
		return 0, f.allocErr
	}
	f.nextOp++
	op := OperationHandle(0x1000 + f.nextOp)
	f.ops[op] = &fakeOp{token: token, cb: cb}
	return op, nil
}

func (f *fakeAPI) CloseOperation(op OperationHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed[op]++
}

func (f *fakeAPI) GetOperationResult(op OperationHandle) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.ops[op]
	if !ok {
		return "", errors.New("unknown operation")
	}
	return o.result.doc, o.result.err
}

// submit records a service call and schedules its completion.
func (f *fakeAPI) submit(step string, op OperationHandle) error {
	f.mu.Lock()
	f.calls = append(f.calls, step)
	if err := f.syncErr[step]; err != nil {
		f.mu.Unlock()
		return err
	}
	o := f.ops[op]
	o.result = f.results[step]
	if f.manual {
		f.waiting = append(f.waiting, op)
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	go o.cb(op, o.token)
	return nil
}

// fire invokes the callback of a held operation.
func (f *fakeAPI) fire(op OperationHandle) {
	f.mu.Lock()
	o := f.ops[op]
	f.mu.Unlock()
	o.cb(op, o.token)
}

func (f *fakeAPI) CreateComputeSystem(id, configuration string, op OperationHandle) (SystemHandle, error) {
	f.mu.Lock()
	f.config = configuration
	f.mu.Unlock()
	if err := f.submit("create", op); err != nil {
		return 0, err
	}
	return SystemHandle(0xbeef), nil
}

func (f *fakeAPI) GetComputeSystemProperties(system SystemHandle, op OperationHandle, query string) error {
	f.mu.Lock()
	f.query = query
	f.mu.Unlock()
	return f.submit("identify", op)
}

func (f *fakeAPI) StartComputeSystem(system SystemHandle, op OperationHandle, options string) error {
	return f.submit("start", op)
}

func (f *fakeAPI) TerminateComputeSystem(system SystemHandle, op OperationHandle, options string) error {
	return f.submit("terminate", op)
}

func (f *fakeAPI) CloseComputeSystem(system SystemHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.systemsClosed++
}

func (f *fakeAPI) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) closeCounts() map[OperationHandle]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[OperationHandle]int, len(f.closed))
	for k, v := range f.closed {
		out[k] = v
	}
	return out
}

// setResult fixes the outcome of op without going through a service call.
func (f *fakeAPI) setResult(op OperationHandle, res fakeResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops[op].result = res
}
