package validation

import (
	"context"

	"satchel/internal/logging"
	"satchel/internal/pipeline"
	"satchel/internal/services"
	"satchel/internal/store"
)

// Runner drives the validation checkpoint for one attempt at a time.
type Runner struct {
	deps       *Deps
	validators []pipeline.Validator
}

// NewRunner builds a runner over the standard validator set.
func NewRunner(deps *Deps) (*Runner, error) {
	if deps == nil {
		return nil, services.Wrap(services.ErrConfiguration, "validation", "new runner",
			"deps are required", nil)
	}
	return &Runner{
		deps: deps,
		validators: []pipeline.Validator{
			JournalISSNValidator{},
			PublisherNameValidator{},
			FundingValidator{},
			ReferencesValidator{},
		},
	}, nil
}

// Process validates one attempt end to end: the checkpoint session opens,
// the pipeline runs, and the session closes even when a pipe fails.
func (r *Runner) Process(ctx context.Context, attempt *store.Attempt) error {
	ctx = services.WithAttemptID(ctx, attempt.ID)
	ctx = services.WithPoint(ctx, string(store.PointValidation))

	pkg, err := r.deps.Store.GetPackage(ctx, attempt.PackageID)
	if err != nil {
		return err
	}

	n, err := r.deps.Notifier.For(ctx, attempt, store.PointValidation)
	if err != nil {
		return err
	}
	if _, err := n.Start(ctx); err != nil {
		return err
	}

	pipes := make([]pipeline.Pipe, 0, len(r.validators)+2)
	pipes = append(pipes, NewSetupPipe(r.deps))
	for _, validator := range r.validators {
		pipe, err := pipeline.NewValidationPipe(validator, n)
		if err != nil {
			return err
		}
		pipes = append(pipes, pipe)
	}
	pipes = append(pipes, NewTearDownPipe(r.deps))

	ppl, err := pipeline.New(pipes...)
	if err != nil {
		return err
	}

	env := &pipeline.Envelope{Attempt: attempt, Package: pkg}
	env, runErr := ppl.RunOne(ctx, env)
	if env.Analyzer != nil {
		if closeErr := env.Analyzer.Close(); closeErr != nil {
			r.deps.Logger.Warn("close package analyzer", logging.Error(closeErr),
				logging.Int64(logging.FieldAttemptID, attempt.ID))
		}
	}

	if _, err := n.End(ctx); err != nil {
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}
