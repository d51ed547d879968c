package hcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// guestConnectionQuery restricts a properties call to identity information.
var guestConnectionQuery = PropertyQuery{PropertyTypes: []string{"GuestConnection"}}

// cleanupTimeout bounds the terminate call issued after a failed launch.
const cleanupTimeout = 30 * time.Second

// System is a created compute system.
type System struct {
	Name      string
	RuntimeID string

	api    API
	handle SystemHandle
	once   sync.Once
}

// Handle returns the underlying HCS_SYSTEM.
func (s *System) Handle() SystemHandle {
	return s.handle
}

// Close releases the system handle. The descriptor sets
// ShouldTerminateOnLastHandleClosed, so closing the last handle also stops
// the VM.
func (s *System) Close() error {
	s.once.Do(func() {
		s.api.CloseComputeSystem(s.handle)
	})
	return nil
}

// Client runs compute system lifecycles over an API.
type Client struct {
	api    API
	bridge *Bridge
	log    logr.Logger

	// Diagnostics receives the indented diagnostic document of failed
	// operations. Defaults to os.Stderr.
	Diagnostics io.Writer
}

// NewClient returns a Client for api.
func NewClient(api API, log logr.Logger) *Client {
	return &Client{
		api:         api,
		bridge:      NewBridge(api, log),
		log:         log,
		Diagnostics: os.Stderr,
	}
}

// Bridge returns the operation bridge used by the client.
func (c *Client) Bridge() *Bridge {
	return c.bridge
}

// CreateAndStart creates the compute system name from doc, reads its runtime
// ID and starts it. Each step waits for the previous one to complete and
// none are retried. If identify or start fails the created system is
// terminated and its handle closed before the error is returned.
func (c *Client) CreateAndStart(ctx context.Context, name string, doc *ComputeSystem) (*System, error) {
	configuration, err := Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("hcs: marshal descriptor: %w", err)
	}
	c.log.V(1).Info("compute system descriptor", "name", name, "document", configuration)

	handle, err := c.create(ctx, name, configuration)
	if err != nil {
		return nil, err
	}
	c.log.Info("compute system created", "name", name)

	sys := &System{Name: name, api: c.api, handle: handle}

	runtimeID, err := c.identify(ctx, handle)
	if err != nil {
		c.abandon(ctx, sys)
		return nil, err
	}
	sys.RuntimeID = runtimeID
	c.log.Info("compute system identified", "name", name, "runtimeID", runtimeID)

	if err := c.start(ctx, handle); err != nil {
		c.abandon(ctx, sys)
		return nil, err
	}
	c.log.Info("compute system started", "name", name)

	return sys, nil
}

func (c *Client) create(ctx context.Context, name, configuration string) (SystemHandle, error) {
	var handle SystemHandle
	_, err := c.roundTrip(ctx, "create", func(op OperationHandle) error {
		h, err := c.api.CreateComputeSystem(name, configuration, op)
		handle = h
		return err
	})
	if err != nil {
		// The handle is only usable once the create operation succeeded.
		if handle != 0 {
			c.api.CloseComputeSystem(handle)
		}
		return 0, err
	}
	return handle, nil
}

func (c *Client) identify(ctx context.Context, handle SystemHandle) (string, error) {
	query, err := json.Marshal(guestConnectionQuery)
	if err != nil {
		return "", fmt.Errorf("identify: encode query: %w", err)
	}

	result, err := c.roundTrip(ctx, "identify", func(op OperationHandle) error {
		return c.api.GetComputeSystemProperties(handle, op, string(query))
	})
	if err != nil {
		return "", err
	}

	var props Properties
	if err := json.Unmarshal([]byte(result), &props); err != nil {
		return "", fmt.Errorf("identify: decode properties: %w", err)
	}
	if props.RuntimeID == "" {
		return "", fmt.Errorf("identify: %w", ErrMissingRuntimeID)
	}
	return props.RuntimeID, nil
}

func (c *Client) start(ctx context.Context, handle SystemHandle) error {
	_, err := c.roundTrip(ctx, "start", func(op OperationHandle) error {
		return c.api.StartComputeSystem(handle, op, "")
	})
	return err
}

// abandon terminates a system that failed mid-launch. Failures here are
// logged only; the launch error is what the caller sees.
func (c *Client) abandon(ctx context.Context, sys *System) {
	defer sys.Close()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	_, err := c.roundTrip(ctx, "terminate", func(op OperationHandle) error {
		return c.api.TerminateComputeSystem(sys.handle, op, "")
	})
	if err != nil {
		c.log.Error(err, "failed to terminate compute system after launch failure", "name", sys.Name)
	}
}

// roundTrip issues one service call through the bridge and waits for it.
func (c *Client) roundTrip(ctx context.Context, step string, call func(OperationHandle) error) (string, error) {
	op, pending, err := c.bridge.Begin()
	if err != nil {
		return "", fmt.Errorf("%s: %w", step, err)
	}

	if err := call(op); err != nil {
		pending.Abort()
		return "", fmt.Errorf("%s: %w", step, err)
	}

	result, err := pending.Await(ctx)
	if err != nil {
		c.report(step, err)
		return "", fmt.Errorf("%s: %w", step, err)
	}
	return result, nil
}

// report logs a failed operation and prints its diagnostic document when it
// decodes as JSON.
func (c *Client) report(step string, err error) {
	var opErr *OperationError
	if !errors.As(err, &opErr) {
		return
	}
	c.log.Error(opErr.Code, "compute system operation failed", "step", step)
	if detail, ok := opErr.PrettyDetail(); ok && c.Diagnostics != nil {
		fmt.Fprintln(c.Diagnostics, detail)
	}
}
