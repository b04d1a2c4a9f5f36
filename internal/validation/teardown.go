package validation

import (
	"context"
	"time"

	"satchel/internal/analyzer"
	"satchel/internal/logging"
	"satchel/internal/pipeline"
)

// TearDownPipe closes the validation session: package permissions are
// restored on every path, valid attempts are flagged for checkout, and
// invalid ones have their archive marked as failed.
type TearDownPipe struct {
	deps *Deps
}

func NewTearDownPipe(deps *Deps) *TearDownPipe {
	return &TearDownPipe{deps: deps}
}

func (p *TearDownPipe) Name() string { return "teardown" }

func (p *TearDownPipe) Transform(ctx context.Context, env *pipeline.Envelope) (*pipeline.Envelope, error) {
	if env.Analyzer != nil {
		if err := env.Analyzer.Restore(); err != nil {
			p.deps.Logger.Warn("restore package permissions", logging.Error(err),
				logging.Int64(logging.FieldAttemptID, env.Attempt.ID))
		}
	}

	now := time.Now().UTC()
	env.Attempt.FinishedAt = &now
	env.Attempt.ProceedToCheckout = env.Attempt.IsValid

	if !env.Attempt.IsValid {
		if renamed, err := analyzer.MarkFailed(env.Attempt.FilePath); err != nil {
			p.deps.Logger.Warn("mark package as failed", logging.Error(err),
				logging.Int64(logging.FieldAttemptID, env.Attempt.ID))
		} else {
			env.Attempt.FilePath = renamed
		}
		p.deps.Logger.Info("attempt is invalid, finished",
			logging.Int64(logging.FieldAttemptID, env.Attempt.ID))
	} else {
		p.deps.Logger.Info("finished validating attempt",
			logging.Int64(logging.FieldAttemptID, env.Attempt.ID))
	}

	return env, p.deps.Store.UpdateAttempt(ctx, env.Attempt)
}
