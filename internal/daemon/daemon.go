// Package daemon wires the satchel services together: intake polling,
// checkin, validation, and the checkout processor, all sharing one store.
package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/afero"

	"satchel/internal/checkin"
	"satchel/internal/checkout"
	"satchel/internal/config"
	"satchel/internal/intake"
	"satchel/internal/logging"
	"satchel/internal/notifier"
	"satchel/internal/registry"
	"satchel/internal/stasher"
	"satchel/internal/store"
	"satchel/internal/validation"
)

// Daemon runs the full submission lifecycle.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	store     *store.Store
	poller    *intake.Poller
	processor *checkout.Processor
	checkin   *checkin.Service
	validator *validation.Runner
}

// New builds a daemon from configuration. All collaborators are validated up
// front so a misconfigured daemon never starts.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}

	client, err := registry.New(cfg.Registry)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	backend, err := stasher.New(cfg.Storage)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	factory, err := notifier.NewFactory(st, client, cfg.Registry.Notifications, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	checkinSvc, err := checkin.NewService(st, factory, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	deps, err := validation.NewDeps(st, client, factory, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	validator, err := validation.NewRunner(deps)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	processor, err := checkout.New(st, client, backend, factory, cfg.Checkout, cfg.Workflow, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	d := &Daemon{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		processor: processor,
		checkin:   checkinSvc,
		validator: validator,
	}

	poller, err := intake.New(
		afero.NewOsFs(),
		cfg.Paths.InboxDir,
		time.Duration(cfg.Intake.PollIntervalSeconds)*time.Second,
		d.handlePackage,
		logger,
	)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	d.poller = poller
	return d, nil
}

// Store exposes the shared store, mainly for the CLI.
func (d *Daemon) Store() *store.Store {
	return d.store
}

// handlePackage runs one archive through checkin and validation.
func (d *Daemon) handlePackage(ctx context.Context, path string) error {
	attempt, err := d.checkin.Process(ctx, path)
	if err != nil {
		return err
	}
	return d.validator.Process(ctx, attempt)
}

// Run starts the intake poller and the checkout processor and blocks until
// the context is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("daemon starting",
		logging.String("inbox", d.cfg.Paths.InboxDir),
		logging.String("database", d.store.Path()))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = d.poller.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = d.processor.Run(ctx)
	}()
	wg.Wait()

	d.logger.Info("daemon stopped")
	return nil
}

// Close releases the daemon's resources.
func (d *Daemon) Close() error {
	return d.store.Close()
}
