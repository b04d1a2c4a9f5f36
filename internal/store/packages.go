package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"satchel/internal/services"
)

const packageColumns = `id, aid, article_title, journal_title, year, volume, number,
	suppl_volume, suppl_number, print_issn, electronic_issn, created_at, updated_at`

// FindPackage looks up the article package matching the identity fields of
// pkg. Returns services.ErrNotFound when no package matches.
func (s *Store) FindPackage(ctx context.Context, pkg ArticlePackage) (*ArticlePackage, error) {
	ctx = ensureContext(ctx)
	var found ArticlePackage
	err := s.getWithRetry(ctx, &found,
		`SELECT `+packageColumns+` FROM article_packages
		 WHERE article_title = ? AND journal_title = ? AND year = ? AND volume = ? AND number = ?
		 LIMIT 1`,
		pkg.ArticleTitle, pkg.JournalTitle, pkg.Year, pkg.Volume, pkg.Number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "find package",
			fmt.Sprintf("no package for article %q", pkg.ArticleTitle), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("find package: %w", err)
	}
	return &found, nil
}

// FindOrCreatePackage resolves the article package for a submission, minting
// a fresh aid when the article has never been seen before.
func (s *Store) FindOrCreatePackage(ctx context.Context, pkg ArticlePackage) (*ArticlePackage, error) {
	found, err := s.FindPackage(ctx, pkg)
	if err == nil {
		return found, nil
	}
	if !errors.Is(err, services.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	pkg.AID = ulid.Make().String()
	pkg.CreatedAt = now
	pkg.UpdatedAt = now

	res, err := s.execWithRetry(ctx,
		`INSERT INTO article_packages (aid, article_title, journal_title, year, volume, number,
			suppl_volume, suppl_number, print_issn, electronic_issn, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pkg.AID, pkg.ArticleTitle, pkg.JournalTitle, pkg.Year, pkg.Volume, pkg.Number,
		pkg.SupplVolume, pkg.SupplNumber, pkg.PrintISSN, pkg.ElectronicISSN,
		pkg.CreatedAt, pkg.UpdatedAt)
	if err != nil {
		return nil, wrapIntegrity("create package", err)
	}
	pkg.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create package: %w", err)
	}
	return &pkg, nil
}

// GetPackage fetches an article package by id.
func (s *Store) GetPackage(ctx context.Context, id int64) (*ArticlePackage, error) {
	ctx = ensureContext(ctx)
	var pkg ArticlePackage
	err := s.getWithRetry(ctx, &pkg,
		`SELECT `+packageColumns+` FROM article_packages WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "get package",
			fmt.Sprintf("package %d not found", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get package %d: %w", id, err)
	}
	return &pkg, nil
}
