//go:build windows

package hcs

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modcomputecore = windows.NewLazySystemDLL("computecore.dll")

	procHcsCreateOperation            = modcomputecore.NewProc("HcsCreateOperation")
	procHcsCloseOperation             = modcomputecore.NewProc("HcsCloseOperation")
	procHcsGetOperationResult         = modcomputecore.NewProc("HcsGetOperationResult")
	procHcsCreateComputeSystem        = modcomputecore.NewProc("HcsCreateComputeSystem")
	procHcsGetComputeSystemProperties = modcomputecore.NewProc("HcsGetComputeSystemProperties")
	procHcsStartComputeSystem         = modcomputecore.NewProc("HcsStartComputeSystem")
	procHcsTerminateComputeSystem     = modcomputecore.NewProc("HcsTerminateComputeSystem")
	procHcsCloseComputeSystem         = modcomputecore.NewProc("HcsCloseComputeSystem")
)

// windows.NewCallback slots are a finite process resource, so a single
// trampoline serves every operation and dispatches on the context token.
var (
	callbacks          = newCallbackTable()
	completionCallback = windows.NewCallback(func(op, token uintptr) uintptr {
		callbacks.dispatch(OperationHandle(op), token)
		return 0
	})
)

type computecore struct{}

// NewAPI loads computecore.dll.
func NewAPI() (API, error) {
	if err := modcomputecore.Load(); err != nil {
		return nil, fmt.Errorf("hcs: load computecore.dll: %w", err)
	}
	return computecore{}, nil
}

func (computecore) CreateOperation(token uintptr, cb Callback) (OperationHandle, error) {
	callbacks.register(token, cb)
	r, _, err := procHcsCreateOperation.Call(token, completionCallback)
	if r == 0 {
		callbacks.unregister(token)
		return 0, win32Code(err)
	}
	callbacks.bind(OperationHandle(r), token)
	return OperationHandle(r), nil
}

// CloseOperation drops the callback entry before the handle value can be
// reused by a new operation.
func (computecore) CloseOperation(op OperationHandle) {
	callbacks.release(op)
	_, _, _ = procHcsCloseOperation.Call(uintptr(op))
}

func (computecore) GetOperationResult(op OperationHandle) (string, error) {
	var doc *uint16
	r, _, _ := procHcsGetOperationResult.Call(uintptr(op), uintptr(unsafe.Pointer(&doc)))

	var result string
	if doc != nil {
		result = windows.UTF16PtrToString(doc)
		_, _ = windows.LocalFree(windows.Handle(unsafe.Pointer(doc)))
	}
	if code := ResultCode(r); code.Failed() {
		return result, code
	}
	return result, nil
}

func (computecore) CreateComputeSystem(id, configuration string, op OperationHandle) (SystemHandle, error) {
	idp, err := windows.UTF16PtrFromString(id)
	if err != nil {
		return 0, err
	}
	cfgp, err := windows.UTF16PtrFromString(configuration)
	if err != nil {
		return 0, err
	}

	var system SystemHandle
	r, _, _ := procHcsCreateComputeSystem.Call(
		uintptr(unsafe.Pointer(idp)),
		uintptr(unsafe.Pointer(cfgp)),
		uintptr(op),
		0, // default security descriptor
		uintptr(unsafe.Pointer(&system)),
	)
	if code := ResultCode(r); code.Failed() {
		return 0, code
	}
	return system, nil
}

func (computecore) GetComputeSystemProperties(system SystemHandle, op OperationHandle, query string) error {
	qp, err := optionalUTF16(query)
	if err != nil {
		return err
	}
	r, _, _ := procHcsGetComputeSystemProperties.Call(uintptr(system), uintptr(op), uintptr(unsafe.Pointer(qp)))
	return failure(r)
}

func (computecore) StartComputeSystem(system SystemHandle, op OperationHandle, options string) error {
	optp, err := optionalUTF16(options)
	if err != nil {
		return err
	}
	r, _, _ := procHcsStartComputeSystem.Call(uintptr(system), uintptr(op), uintptr(unsafe.Pointer(optp)))
	return failure(r)
}

func (computecore) TerminateComputeSystem(system SystemHandle, op OperationHandle, options string) error {
	optp, err := optionalUTF16(options)
	if err != nil {
		return err
	}
	r, _, _ := procHcsTerminateComputeSystem.Call(uintptr(system), uintptr(op), uintptr(unsafe.Pointer(optp)))
	return failure(r)
}

func (computecore) CloseComputeSystem(system SystemHandle) {
	_, _, _ = procHcsCloseComputeSystem.Call(uintptr(system))
}

// optionalUTF16 maps "" to a NULL argument.
func optionalUTF16(s string) (*uint16, error) {
	if s == "" {
		return nil, nil
	}
	return windows.UTF16PtrFromString(s)
}

func failure(r uintptr) error {
	if code := ResultCode(r); code.Failed() {
		return code
	}
	return nil
}

// win32Code converts GetLastError into an HRESULT (HRESULT_FROM_WIN32).
func win32Code(err error) ResultCode {
	var errno syscall.Errno
	if errors.As(err, &errno) && errno != 0 {
		return ResultCode(0x80070000 | uint32(errno)&0xFFFF)
	}
	return ResultUnexpected
}
