package pipeline

import (
	"context"

	"satchel/internal/notifier"
	"satchel/internal/services"
	"satchel/internal/store"
)

// Result is a validator's verdict on one envelope.
type Result struct {
	Status  store.Status
	Message string
}

// Validator inspects an envelope and reports a result. Validators never
// mutate the envelope.
type Validator interface {
	Name() string
	Validate(ctx context.Context, env *Envelope) (Result, error)
}

// Recorder receives stage outcomes. *notifier.Notifier satisfies it.
type Recorder interface {
	Tell(ctx context.Context, stage string, status store.Status, message string) (notifier.Delivery, error)
}

// ValidationPipe adapts a Validator into a Pipe: the verdict is recorded and
// the envelope passes through unchanged. A validator error becomes an error
// outcome instead of aborting the run, unless it is locally fatal.
type ValidationPipe struct {
	validator Validator
	recorder  Recorder
}

// NewValidationPipe wraps a validator. The recorder may be nil, in which case
// outcomes are discarded.
func NewValidationPipe(validator Validator, recorder Recorder) (*ValidationPipe, error) {
	if validator == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new validation pipe",
			"validator is required", nil)
	}
	return &ValidationPipe{validator: validator, recorder: recorder}, nil
}

func (p *ValidationPipe) Name() string {
	return p.validator.Name()
}

func (p *ValidationPipe) Transform(ctx context.Context, env *Envelope) (*Envelope, error) {
	result, err := p.validator.Validate(ctx, env)
	if err != nil {
		if services.LocalFatal(err) {
			return env, err
		}
		result = Result{Status: store.StatusError, Message: err.Error()}
	}

	if p.recorder != nil {
		if _, recordErr := p.recorder.Tell(ctx, p.Name(), result.Status, result.Message); recordErr != nil {
			return env, recordErr
		}
	}
	return env, nil
}
