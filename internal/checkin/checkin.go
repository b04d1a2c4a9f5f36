// Package checkin accepts a submission package: it verifies the archive,
// deduplicates it by checksum, resolves the article identity, and opens the
// checkin checkpoint.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"

	"satchel/internal/analyzer"
	"satchel/internal/logging"
	"satchel/internal/metadata"
	"satchel/internal/notifier"
	"satchel/internal/services"
	"satchel/internal/store"
)

// Service performs checkins.
type Service struct {
	store    *store.Store
	notifier *notifier.Factory
	logger   *slog.Logger
}

// NewService validates the collaborators up front.
func NewService(st *store.Store, factory *notifier.Factory, logger *slog.Logger) (*Service, error) {
	if st == nil {
		return nil, services.Wrap(services.ErrConfiguration, "checkin", "new service",
			"store is required", nil)
	}
	if factory == nil {
		return nil, services.Wrap(services.ErrConfiguration, "checkin", "new service",
			"notifier factory is required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{store: st, notifier: factory, logger: logger.With(
		logging.String(logging.FieldComponent, "checkin"))}, nil
}

// sidecar is the optional "<archive>.config" file dropped next to the
// package by the submission frontend.
type sidecar struct {
	Submitter string `toml:"submitter"`
}

// Process checks a package archive in and returns the created attempt.
// Submitting the same archive twice fails with services.ErrDuplicate.
func (s *Service) Process(ctx context.Context, path string) (*store.Attempt, error) {
	a, err := analyzer.Open(path)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	checksum, err := a.Checksum()
	if err != nil {
		return nil, err
	}

	if prior, err := s.store.FindAttemptByChecksum(ctx, checksum); err == nil {
		return nil, services.Wrap(services.ErrDuplicate, "checkin", "process",
			fmt.Sprintf("archive already submitted as attempt %d", prior.ID), nil)
	} else if !errors.Is(err, services.ErrNotFound) {
		return nil, err
	}

	front, err := metadata.ExtractFront(a.Document())
	if err != nil {
		return nil, err
	}
	if !front.Complete() {
		return nil, services.Wrap(services.ErrValidation, "checkin", "process",
			fmt.Sprintf("package %q is missing required front matter", path), nil)
	}

	attempt := &store.Attempt{
		Checksum:  checksum,
		FilePath:  path,
		Submitter: s.readSubmitter(path),
		IsValid:   true,
	}

	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		pkg, err := s.store.FindOrCreatePackage(ctx, store.ArticlePackage{
			ArticleTitle:   front.ArticleTitle,
			JournalTitle:   front.JournalTitle,
			Year:           front.Year,
			Volume:         front.Volume,
			Number:         front.Number,
			SupplVolume:    front.SupplVolume,
			SupplNumber:    front.SupplNumber,
			PrintISSN:      front.PrintISSN,
			ElectronicISSN: front.ElectronicISSN,
		})
		if err != nil {
			return err
		}
		attempt.PackageID = pkg.ID
		return s.store.CreateAttempt(ctx, attempt)
	})
	if err != nil {
		return nil, err
	}

	ctx = services.WithAttemptID(ctx, attempt.ID)
	n, err := s.notifier.For(ctx, attempt, store.PointCheckin)
	if err != nil {
		return nil, err
	}
	delivery, err := n.Start(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := n.End(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("package checked in",
		logging.Int64(logging.FieldAttemptID, attempt.ID),
		logging.String(logging.FieldPackage, path),
		logging.String("delivery", delivery.String()))
	return attempt, nil
}

// readSubmitter picks the submitter address out of the sidecar file when one
// exists.
func (s *Service) readSubmitter(path string) string {
	data, err := os.ReadFile(path + ".config")
	if err != nil {
		return ""
	}
	var sc sidecar
	if err := toml.Unmarshal(data, &sc); err != nil {
		s.logger.Warn("unreadable sidecar config", logging.Error(err),
			logging.String(logging.FieldPackage, path))
		return ""
	}
	return sc.Submitter
}
