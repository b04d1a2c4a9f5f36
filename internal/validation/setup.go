package validation

import (
	"context"
	"errors"

	"satchel/internal/analyzer"
	"satchel/internal/logging"
	"satchel/internal/metadata"
	"satchel/internal/pipeline"
	"satchel/internal/registry"
	"satchel/internal/services"
)

// SetupPipe prepares an attempt for validation: it opens and locks the
// package archive and resolves the journal profile by ISSN, trying the print
// ISSN first and falling back to the electronic one. An attempt whose journal
// cannot be resolved is degraded to invalid but still flows through the
// remaining pipes.
type SetupPipe struct {
	deps *Deps
}

func NewSetupPipe(deps *Deps) *SetupPipe {
	return &SetupPipe{deps: deps}
}

func (p *SetupPipe) Name() string { return "setup" }

func (p *SetupPipe) Transform(ctx context.Context, env *pipeline.Envelope) (*pipeline.Envelope, error) {
	a, err := analyzer.Open(env.Attempt.FilePath)
	if err != nil {
		return env, err
	}
	if err := a.Lock(); err != nil {
		_ = a.Close()
		return env, err
	}
	env.Analyzer = a

	journal := p.resolveJournal(ctx, env)
	if journal == nil {
		p.deps.Logger.Info("attempt is not related to a known journal",
			logging.Int64(logging.FieldAttemptID, env.Attempt.ID))
		env.Attempt.IsValid = false
		if err := p.deps.Store.UpdateAttempt(ctx, env.Attempt); err != nil {
			return env, err
		}
	}
	env.Journal = journal
	return env, nil
}

func (p *SetupPipe) resolveJournal(ctx context.Context, env *pipeline.Envelope) *registry.Journal {
	lookups := []struct {
		field registry.ISSNField
		issn  string
	}{
		{registry.PrintISSN, env.Package.PrintISSN},
		{registry.ElectronicISSN, env.Package.ElectronicISSN},
	}

	for _, lookup := range lookups {
		if lookup.issn == "" || !metadata.IsValidISSN(lookup.issn) {
			continue
		}
		journal, err := p.deps.Registry.FindJournal(ctx, lookup.field, lookup.issn)
		if err != nil {
			if !errors.Is(err, services.ErrNotFound) {
				p.deps.Logger.Warn("journal lookup failed", logging.Error(err),
					logging.String("issn", lookup.issn))
			}
			continue
		}
		return journal
	}
	return nil
}
