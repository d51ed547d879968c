package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/faize-ai/efivm/internal/config"
	"github.com/faize-ai/efivm/internal/image"
	"github.com/faize-ai/efivm/internal/logging"
	"github.com/faize-ai/efivm/internal/session"
	"github.com/faize-ai/efivm/internal/vm"
)

var (
	launchDisks  []string
	launchMemory int
	launchCores  int
	launchName   string
)

// newManager prefers the Host Compute Service and falls back to the stub.
func newManager(log logr.Logger, term *vm.Terminal) vm.Manager {
	m, err := vm.NewHCSManager(log, term)
	if err != nil {
		log.V(1).Info("host compute service unavailable", "error", err.Error())
		return vm.NewStubManager()
	}
	return m
}

func runLaunch(cmd *cobra.Command, args []string) error {
	log := logging.Setup(logging.Options{Debug: debug, Output: os.Stderr})

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	images, err := image.ResolveSet(args[0], launchDisks)
	if err != nil {
		return err
	}

	launch, err := launchConfig(cmd, cfg, images)
	if err != nil {
		return err
	}
	log.V(1).Info("launch configuration",
		"name", launch.Name,
		"bootImage", launch.BootImage,
		"disks", launch.Disks,
		"memoryMB", launch.MemoryMB,
		"cores", launch.Cores,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	term := vm.Stdio()
	manager := newManager(log, term)

	fmt.Fprintf(os.Stderr, "Booting %s as %s (%d MB, %d cores)...\n", launch.BootImage, launch.Name, launch.MemoryMB, launch.Cores)

	sess, relay, err := manager.Launch(ctx, launch)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Connected to %s. Type ~. to exit, ~? for help.\n", sess.Pipe)

	if cfg.Console.ShouldUseRawMode() {
		restore, err := term.MakeRaw()
		if err != nil {
			log.Error(err, "continuing without raw mode")
		} else {
			defer restore()
		}
	}

	reason := waitForExit(ctx, relay, log)

	if err := manager.Stop(sess, reason); err != nil {
		log.Error(err, "failed to stop VM", "vm", sess.ID)
	}
	return nil
}

// waitForExit blocks until the user detaches or a signal arrives. A relay
// that ends any other way is logged and the VM keeps running.
func waitForExit(ctx context.Context, relay *vm.Relay, log logr.Logger) string {
	done := relay.Done()
	for {
		select {
		case <-ctx.Done():
			return "signal"
		case <-done:
			if errors.Is(relay.Err(), vm.ErrUserDetach) {
				return "detach"
			}
			log.Info("console relay ended, VM still running; press Ctrl+C to stop it")
			done = nil
		}
	}
}

// launchConfig merges config defaults with the flags the user set.
func launchConfig(cmd *cobra.Command, cfg *config.Config, images *image.Set) (*vm.Config, error) {
	memory := cfg.Defaults.MemoryMB
	if cmd.Flags().Changed("memory") {
		memory = launchMemory
	}
	cores := cfg.Defaults.Cores
	if cmd.Flags().Changed("cores") {
		cores = launchCores
	}
	if memory < 1 {
		return nil, config.ErrInvalidMemory
	}
	if cores < 1 || cores > config.MaxCores {
		return nil, config.ErrInvalidCores
	}

	name := launchName
	if name == "" {
		name = defaultName(cfg.Defaults.NamePrefix)
	}
	if err := session.ValidateName(name); err != nil {
		return nil, err
	}

	return &vm.Config{
		Name:         name,
		BootImage:    images.BootImage,
		Disks:        images.Disks,
		MemoryMB:     memory,
		Cores:        cores,
		PollInterval: cfg.Console.PollInterval,
	}, nil
}

func defaultName(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}
