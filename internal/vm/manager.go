package vm

import (
	"context"
	"errors"

	"github.com/faize-ai/efivm/internal/session"
)

// ErrConsoleAttach wraps a failure to reach the console after the VM started.
var ErrConsoleAttach = errors.New("failed to attach console")

// ErrVMNotSupported is returned by StubManager.
var ErrVMNotSupported = errors.New("VM support requires the Windows Host Compute Service")

// Manager launches and stops VMs.
type Manager interface {
	// Launch boots cfg and attaches the console. The returned relay runs in
	// the background.
	Launch(ctx context.Context, cfg *Config) (*session.Session, *Relay, error)
	// Stop releases the VM behind sess and records reason.
	Stop(sess *session.Session, reason string) error
}

// StubManager is used where no hypervisor is available.
type StubManager struct{}

func NewStubManager() *StubManager {
	return &StubManager{}
}

func (m *StubManager) Launch(ctx context.Context, cfg *Config) (*session.Session, *Relay, error) {
	return nil, nil, ErrVMNotSupported
}

func (m *StubManager) Stop(sess *session.Session, reason string) error {
	return ErrVMNotSupported
}
