package vm

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/faize-ai/efivm/internal/hcs"
	"github.com/faize-ai/efivm/internal/session"
)

// HCSManager launches VMs through the Host Compute Service.
type HCSManager struct {
	client *hcs.Client
	dialer Dialer
	store  *session.Store
	term   *Terminal
	log    logr.Logger

	mu      sync.Mutex
	systems map[string]*hcs.System
}

// NewHCSManager loads computecore.dll and returns a manager attached to term.
// It fails outside Windows.
func NewHCSManager(log logr.Logger, term *Terminal) (*HCSManager, error) {
	api, err := hcs.NewAPI()
	if err != nil {
		return nil, err
	}
	store, err := session.NewStore()
	if err != nil {
		return nil, err
	}
	return newHCSManager(api, NewPipeDialer(), store, term, log), nil
}

func newHCSManager(api hcs.API, dialer Dialer, store *session.Store, term *Terminal, log logr.Logger) *HCSManager {
	return &HCSManager{
		client:  hcs.NewClient(api, log.WithName("hcs")),
		dialer:  dialer,
		store:   store,
		term:    term,
		log:     log,
		systems: make(map[string]*hcs.System),
	}
}

// SetDiagnostics redirects the diagnostic documents of failed HCS operations.
func (m *HCSManager) SetDiagnostics(w io.Writer) {
	m.client.Diagnostics = w
}

// Launch creates, identifies and starts the VM, then attaches its console.
func (m *HCSManager) Launch(ctx context.Context, cfg *Config) (*session.Session, *Relay, error) {
	log := m.log.WithValues("vm", cfg.Name)

	doc := BuildDescriptor(cfg.Name, cfg.BootImage, cfg.Disks, cfg.MemoryMB, cfg.Cores)

	sess := &session.Session{
		ID:        cfg.Name,
		BootImage: cfg.BootImage,
		Disks:     cfg.Disks,
		MemoryMB:  cfg.MemoryMB,
		Cores:     cfg.Cores,
		Pipe:      PipeName(cfg.Name),
		Status:    session.StatusCreated,
		StartedAt: time.Now(),
	}
	if err := m.begin(sess); err != nil {
		return nil, nil, err
	}

	sys, err := m.client.CreateAndStart(ctx, cfg.Name, doc)
	if err != nil {
		sess.Finish(session.StatusFailed, err.Error())
		m.save(sess)
		return nil, nil, fmt.Errorf("failed to launch VM %s: %w", cfg.Name, err)
	}
	sess.RuntimeID = sys.RuntimeID

	proxy := &ConsoleProxy{
		Dialer:       m.dialer,
		PollInterval: cfg.PollInterval,
		Terminal:     m.term,
		Log:          log.WithName("console"),
	}
	relay, err := proxy.Attach(ctx, sess.Pipe)
	if err != nil {
		log.Error(err, "console attach failed", "pipe", sess.Pipe)
		sys.Close()
		sess.Finish(session.StatusFailed, err.Error())
		m.save(sess)
		return nil, nil, fmt.Errorf("%w: %w", ErrConsoleAttach, err)
	}

	m.mu.Lock()
	m.systems[sess.ID] = sys
	m.mu.Unlock()

	sess.Status = session.StatusRunning
	m.save(sess)

	return sess, relay, nil
}

// Stop closes the system handle, which terminates the VM, and records the
// session as stopped.
func (m *HCSManager) Stop(sess *session.Session, reason string) error {
	m.mu.Lock()
	sys, ok := m.systems[sess.ID]
	delete(m.systems, sess.ID)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("VM %s is not running", sess.ID)
	}
	if err := sys.Close(); err != nil {
		return fmt.Errorf("failed to close VM %s: %w", sess.ID, err)
	}

	sess.Finish(session.StatusStopped, reason)
	m.save(sess)
	m.log.Info("VM stopped", "vm", sess.ID, "reason", reason)
	return nil
}

// begin claims the record of a new launch. Unlike later saves it fails the
// launch, so a running VM's record is never overwritten.
func (m *HCSManager) begin(sess *session.Session) error {
	if m.store == nil {
		return nil
	}
	return m.store.Begin(sess)
}

// save records sess. The session file is bookkeeping for ps and prune, so a
// failed write never fails the launch.
func (m *HCSManager) save(sess *session.Session) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(sess); err != nil {
		m.log.Error(err, "failed to save session", "vm", sess.ID)
	}
}
