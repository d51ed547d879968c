// Package hcs drives the Windows Host Compute Service (computecore.dll).
//
// Every HCS call is asynchronous: it takes an operation handle and completes
// later by invoking a callback on a thread owned by the service. Bridge turns
// that completion into a value the caller can wait on, and CreateAndStart
// sequences the create, identify and start calls for a single VM.
package hcs

import "errors"

// OperationHandle is an HCS_OPERATION.
type OperationHandle uintptr

// SystemHandle is an HCS_SYSTEM.
type SystemHandle uintptr

// Callback is invoked by the service, on a service-owned thread, once the
// operation completes. token is the value passed to CreateOperation.
type Callback func(op OperationHandle, token uintptr)

// API is the subset of computecore.dll used by efivm.
//
// Methods returning an error report synchronous failures only. Asynchronous
// results are read with GetOperationResult from inside the callback.
type API interface {
	CreateOperation(token uintptr, cb Callback) (OperationHandle, error)
	CloseOperation(op OperationHandle)
	// GetOperationResult returns the result document of a completed operation
	// and a non-nil ResultCode error when the operation failed.
	GetOperationResult(op OperationHandle) (string, error)

	CreateComputeSystem(id, configuration string, op OperationHandle) (SystemHandle, error)
	GetComputeSystemProperties(system SystemHandle, op OperationHandle, query string) error
	StartComputeSystem(system SystemHandle, op OperationHandle, options string) error
	TerminateComputeSystem(system SystemHandle, op OperationHandle, options string) error
	CloseComputeSystem(system SystemHandle)
}

// ErrUnsupportedPlatform is returned by NewAPI outside Windows.
var ErrUnsupportedPlatform = errors.New("hcs: host compute service requires Windows")
