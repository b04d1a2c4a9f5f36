// Package validation runs the validation checkpoint: a pipeline that locks
// the package, resolves its journal profile, applies the validators, and
// tears the session down.
package validation

import (
	"context"
	"log/slog"

	"satchel/internal/logging"
	"satchel/internal/notifier"
	"satchel/internal/registry"
	"satchel/internal/services"
	"satchel/internal/store"
)

// JournalFinder is the slice of the registry client the validation pipeline
// depends on.
type JournalFinder interface {
	FindJournal(ctx context.Context, field registry.ISSNField, issn string) (*registry.Journal, error)
}

// Deps carries the collaborators shared by every pipe in the validation
// pipeline. Build it with NewDeps so misconfiguration fails up front.
type Deps struct {
	Store    *store.Store
	Registry JournalFinder
	Notifier *notifier.Factory
	Logger   *slog.Logger
}

// NewDeps validates the dependency set.
func NewDeps(st *store.Store, finder JournalFinder, factory *notifier.Factory, logger *slog.Logger) (*Deps, error) {
	if st == nil {
		return nil, services.Wrap(services.ErrConfiguration, "validation", "new deps",
			"store is required", nil)
	}
	if finder == nil {
		return nil, services.Wrap(services.ErrConfiguration, "validation", "new deps",
			"registry journal finder is required", nil)
	}
	if factory == nil {
		return nil, services.Wrap(services.ErrConfiguration, "validation", "new deps",
			"notifier factory is required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Deps{Store: st, Registry: finder, Notifier: factory, Logger: logger}, nil
}
