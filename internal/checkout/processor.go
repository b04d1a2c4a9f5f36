// Package checkout publishes validated attempts: a polling processor claims
// eligible attempts, a bounded worker pool uploads their files and front
// metadata, and the outcome is persisted in a single transaction per batch.
package checkout

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"satchel/internal/config"
	"satchel/internal/logging"
	"satchel/internal/notifier"
	"satchel/internal/registry"
	"satchel/internal/services"
	"satchel/internal/stasher"
	"satchel/internal/store"
)

// API is the slice of the registry client the processor publishes through.
type API interface {
	OneIssue(ctx context.Context, filter registry.IssueFilter) (*registry.Issue, error)
	PostArticle(ctx context.Context, article registry.Article) (string, error)
}

// Processor drives the checkout checkpoint.
type Processor struct {
	store    *store.Store
	registry API
	backend  stasher.Backend
	notifier *notifier.Factory
	cfg      config.Checkout
	workflow config.Workflow
	logger   *slog.Logger
}

// job couples an attempt with its package for the worker pool. Workers fill
// in err; nothing touches the database until the whole pool is done.
type job struct {
	attempt *store.Attempt
	pkg     *store.ArticlePackage
	err     error
}

// New validates the processor's collaborators.
func New(st *store.Store, api API, backend stasher.Backend, factory *notifier.Factory, cfg config.Checkout, workflow config.Workflow, logger *slog.Logger) (*Processor, error) {
	if st == nil {
		return nil, services.Wrap(services.ErrConfiguration, "checkout", "new",
			"store is required", nil)
	}
	if api == nil {
		return nil, services.Wrap(services.ErrConfiguration, "checkout", "new",
			"registry api is required", nil)
	}
	if backend == nil {
		return nil, services.Wrap(services.ErrConfiguration, "checkout", "new",
			"storage backend is required", nil)
	}
	if factory == nil {
		return nil, services.Wrap(services.ErrConfiguration, "checkout", "new",
			"notifier factory is required", nil)
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 1
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Processor{
		store:    st,
		registry: api,
		backend:  backend,
		notifier: factory,
		cfg:      cfg,
		workflow: workflow,
		logger:   logger.With(logging.String(logging.FieldComponent, "checkout")),
	}, nil
}

// intervals resolves the poll cadence and the shorter backoff used after a
// failed batch.
func intervals(cfg config.Checkout, workflow config.Workflow) (poll, retry time.Duration) {
	poll = time.Duration(cfg.PollIntervalSeconds) * time.Second
	if poll <= 0 {
		poll = 30 * time.Second
	}
	retry = time.Duration(workflow.ErrorRetryIntervalSeconds) * time.Second
	if retry <= 0 {
		retry = poll
	}
	return poll, retry
}

// Run polls for eligible attempts until the context is canceled. A batch
// error shortens the wait to the error retry interval.
func (p *Processor) Run(ctx context.Context) error {
	poll, retry := intervals(p.cfg, p.workflow)

	for {
		wait := poll
		if _, err := p.ProcessBatch(ctx); err != nil {
			p.logger.Error("checkout batch", logging.Error(err))
			wait = retry
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// ProcessBatch claims every eligible attempt and checks them out. It returns
// the number of attempts that finished checkout.
func (p *Processor) ProcessBatch(ctx context.Context) (int, error) {
	attempts, err := p.store.CheckoutEligible(ctx, p.cfg.MaxRetries)
	if err != nil {
		return 0, err
	}
	if len(attempts) == 0 {
		return 0, nil
	}

	jobs := make([]*job, 0, len(attempts))
	ids := make([]int64, 0, len(attempts))
	for i := range attempts {
		attempt := &attempts[i]
		pkg, err := p.store.GetPackage(ctx, attempt.PackageID)
		if err != nil {
			return 0, err
		}
		jobs = append(jobs, &job{attempt: attempt, pkg: pkg})
		ids = append(ids, attempt.ID)
	}
	if err := p.store.MarkQueued(ctx, ids...); err != nil {
		return 0, err
	}

	ctx = services.WithBatchID(ctx, uuid.NewString())
	p.runPool(ctx, jobs)
	return p.persist(ctx, jobs)
}

// runPool executes the checkout procedure for every job with bounded
// parallelism. Workers only mutate their own job.
func (p *Processor) runPool(ctx context.Context, jobs []*job) {
	sem := make(chan struct{}, p.cfg.WorkerPoolSize)
	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(j *job) {
			defer wg.Done()
			defer func() { <-sem }()
			j.err = p.procedure(services.WithAttemptID(ctx, j.attempt.ID), j)
		}(j)
	}
	wg.Wait()
}

// persist writes the batch outcome in one transaction. Failed jobs release
// their claim and burn a retry; finished ones close the checkout checkpoint.
func (p *Processor) persist(ctx context.Context, jobs []*job) (int, error) {
	succeeded := 0
	err := p.store.WithTx(ctx, func(ctx context.Context) error {
		for _, j := range jobs {
			j.attempt.QueuedCheckout = false
			if j.err != nil {
				j.attempt.CheckoutRetries++
				j.attempt.CheckoutStartedAt = nil
				j.attempt.CheckoutFinishedAt = nil
				p.logger.Error("checkout failed", logging.Error(j.err),
					logging.Int64(logging.FieldAttemptID, j.attempt.ID),
					logging.Int("retries", j.attempt.CheckoutRetries))
				if err := p.store.UpdateAttempt(ctx, j.attempt); err != nil {
					return err
				}
				continue
			}

			if err := p.store.UpdateAttempt(ctx, j.attempt); err != nil {
				return err
			}
			n, err := p.notifier.For(ctx, j.attempt, store.PointCheckout)
			if err != nil {
				return err
			}
			if _, err := n.Start(ctx); err != nil {
				return err
			}
			delivery, err := n.End(ctx)
			if err != nil {
				return err
			}
			succeeded++
			p.logger.Info("checkout finished",
				logging.Int64(logging.FieldAttemptID, j.attempt.ID),
				logging.String("delivery", delivery.String()))
		}
		return nil
	})
	return succeeded, err
}
