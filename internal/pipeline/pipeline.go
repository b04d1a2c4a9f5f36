// Package pipeline runs submission envelopes through an ordered series of
// pipes. Pipes transform or annotate the envelope; validation pipes record
// stage outcomes without touching the payload.
package pipeline

import (
	"context"
	"fmt"
	"iter"

	"satchel/internal/analyzer"
	"satchel/internal/registry"
	"satchel/internal/services"
	"satchel/internal/store"
)

// Envelope is the unit of work flowing through a pipeline. Pipes may fill in
// fields but the attempt identity never changes mid-run.
type Envelope struct {
	Attempt  *store.Attempt
	Package  *store.ArticlePackage
	Analyzer *analyzer.Analyzer
	Journal  *registry.Journal
}

// Pipe is one step of a pipeline.
type Pipe interface {
	Name() string
	Transform(ctx context.Context, env *Envelope) (*Envelope, error)
}

// Pipeline is an ordered, reusable series of pipes.
type Pipeline struct {
	pipes []Pipe
}

// New builds a pipeline. An empty or nil pipe list is a configuration error.
func New(pipes ...Pipe) (*Pipeline, error) {
	if len(pipes) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new",
			"at least one pipe is required", nil)
	}
	for i, pipe := range pipes {
		if pipe == nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new",
				fmt.Sprintf("pipe %d is nil", i), nil)
		}
	}
	return &Pipeline{pipes: pipes}, nil
}

// RunOne pushes a single envelope through every pipe in order.
func (p *Pipeline) RunOne(ctx context.Context, env *Envelope) (*Envelope, error) {
	for _, pipe := range p.pipes {
		if err := ctx.Err(); err != nil {
			return env, err
		}
		next, err := pipe.Transform(services.WithStage(ctx, pipe.Name()), env)
		if err != nil {
			return env, fmt.Errorf("pipe %s: %w", pipe.Name(), err)
		}
		env = next
	}
	return env, nil
}

// Run lazily processes a stream of envelopes. Each source envelope yields
// once, paired with the error that stopped it, if any.
func (p *Pipeline) Run(ctx context.Context, source iter.Seq[*Envelope]) iter.Seq2[*Envelope, error] {
	return func(yield func(*Envelope, error) bool) {
		for env := range source {
			out, err := p.RunOne(ctx, env)
			if !yield(out, err) {
				return
			}
		}
	}
}
