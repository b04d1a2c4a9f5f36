package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"satchel/internal/services"
)

const attemptColumns = `id, package_id, checksum, file_path, submitter, is_valid,
	started_at, finished_at, checkin_uri, proceed_to_checkout, queued_checkout,
	checkout_started_at, checkout_finished_at, checkout_retries, created_at, updated_at`

// CreateAttempt persists a new attempt. A checksum collision means the same
// archive was already submitted and surfaces as services.ErrDuplicate.
func (s *Store) CreateAttempt(ctx context.Context, attempt *Attempt) error {
	now := time.Now().UTC()
	if attempt.StartedAt.IsZero() {
		attempt.StartedAt = now
	}
	attempt.CreatedAt = now
	attempt.UpdatedAt = now

	res, err := s.execWithRetry(ctx,
		`INSERT INTO attempts (package_id, checksum, file_path, submitter, is_valid,
			started_at, finished_at, checkin_uri, proceed_to_checkout, queued_checkout,
			checkout_started_at, checkout_finished_at, checkout_retries, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		attempt.PackageID, attempt.Checksum, attempt.FilePath, attempt.Submitter, attempt.IsValid,
		attempt.StartedAt, attempt.FinishedAt, attempt.CheckinURI,
		attempt.ProceedToCheckout, attempt.QueuedCheckout,
		attempt.CheckoutStartedAt, attempt.CheckoutFinishedAt, attempt.CheckoutRetries,
		attempt.CreatedAt, attempt.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return services.Wrap(services.ErrDuplicate, "store", "create attempt",
				fmt.Sprintf("package with checksum %s already submitted", attempt.Checksum), err)
		}
		return fmt.Errorf("create attempt: %w", err)
	}

	attempt.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

// GetAttempt fetches an attempt by id.
func (s *Store) GetAttempt(ctx context.Context, id int64) (*Attempt, error) {
	var attempt Attempt
	err := s.getWithRetry(ctx, &attempt,
		`SELECT `+attemptColumns+` FROM attempts WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "get attempt",
			fmt.Sprintf("attempt %d not found", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt %d: %w", id, err)
	}
	return &attempt, nil
}

// FindAttemptByChecksum fetches the attempt that submitted the archive with
// the given checksum, or services.ErrNotFound.
func (s *Store) FindAttemptByChecksum(ctx context.Context, checksum string) (*Attempt, error) {
	var attempt Attempt
	err := s.getWithRetry(ctx, &attempt,
		`SELECT `+attemptColumns+` FROM attempts WHERE checksum = ? LIMIT 1`, checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "find attempt",
			fmt.Sprintf("no attempt with checksum %s", checksum), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("find attempt by checksum: %w", err)
	}
	return &attempt, nil
}

// UpdateAttempt writes the mutable attempt fields back.
func (s *Store) UpdateAttempt(ctx context.Context, attempt *Attempt) error {
	attempt.UpdatedAt = time.Now().UTC()
	_, err := s.execWithRetry(ctx,
		`UPDATE attempts SET is_valid = ?, finished_at = ?, checkin_uri = ?,
			proceed_to_checkout = ?, queued_checkout = ?, checkout_started_at = ?,
			checkout_finished_at = ?, checkout_retries = ?, updated_at = ?
		 WHERE id = ?`,
		attempt.IsValid, attempt.FinishedAt, attempt.CheckinURI,
		attempt.ProceedToCheckout, attempt.QueuedCheckout, attempt.CheckoutStartedAt,
		attempt.CheckoutFinishedAt, attempt.CheckoutRetries, attempt.UpdatedAt,
		attempt.ID)
	if err != nil {
		return wrapIntegrity("update attempt", err)
	}
	return nil
}

// CheckoutEligible lists attempts ready to be picked up by the checkout
// processor: flagged for checkout, not queued, not finished, and under the
// retry ceiling.
func (s *Store) CheckoutEligible(ctx context.Context, maxRetries int) ([]Attempt, error) {
	var attempts []Attempt
	err := s.selectWithRetry(ctx, &attempts,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE proceed_to_checkout = 1
		   AND queued_checkout = 0
		   AND checkout_finished_at IS NULL
		   AND checkout_retries < ?
		 ORDER BY started_at ASC`, maxRetries)
	if err != nil {
		return nil, fmt.Errorf("list checkout eligible: %w", err)
	}
	return attempts, nil
}

// MarkQueued flags the attempts as claimed by a checkout batch so the next
// poll does not pick them up again.
func (s *Store) MarkQueued(ctx context.Context, ids ...int64) error {
	for _, id := range ids {
		if _, err := s.execWithRetry(ctx,
			`UPDATE attempts SET queued_checkout = 1, updated_at = ? WHERE id = ?`,
			time.Now().UTC(), id); err != nil {
			return fmt.Errorf("mark attempt %d queued: %w", id, err)
		}
	}
	return nil
}

// ClearQueued releases the checkout claim, typically after a failed batch so
// the attempt becomes eligible again.
func (s *Store) ClearQueued(ctx context.Context, ids ...int64) error {
	for _, id := range ids {
		if _, err := s.execWithRetry(ctx,
			`UPDATE attempts SET queued_checkout = 0, updated_at = ? WHERE id = ?`,
			time.Now().UTC(), id); err != nil {
			return fmt.Errorf("clear attempt %d queued: %w", id, err)
		}
	}
	return nil
}

// ResetCheckout rearms a finished or exhausted attempt for another checkout
// pass and clears its retry counter.
func (s *Store) ResetCheckout(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE attempts SET queued_checkout = 0, checkout_started_at = NULL,
			checkout_finished_at = NULL, checkout_retries = 0,
			proceed_to_checkout = 1, updated_at = ?
		 WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("reset checkout for attempt %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reset checkout for attempt %d: %w", id, err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "store", "reset checkout",
			fmt.Sprintf("attempt %d not found", id), nil)
	}
	return nil
}

// AttemptFilter narrows ListAttempts.
type AttemptFilter struct {
	IsValid           *bool
	ProceedToCheckout *bool
	CheckedOut        *bool
	Since             *time.Time
	Limit             uint64
}

// ListAttempts returns attempts matching the filter, newest first.
func (s *Store) ListAttempts(ctx context.Context, filter AttemptFilter) ([]Attempt, error) {
	builder := sq.Select(attemptColumns).
		From("attempts").
		OrderBy("started_at DESC")

	if filter.IsValid != nil {
		builder = builder.Where(sq.Eq{"is_valid": *filter.IsValid})
	}
	if filter.ProceedToCheckout != nil {
		builder = builder.Where(sq.Eq{"proceed_to_checkout": *filter.ProceedToCheckout})
	}
	if filter.CheckedOut != nil {
		if *filter.CheckedOut {
			builder = builder.Where("checkout_finished_at IS NOT NULL")
		} else {
			builder = builder.Where("checkout_finished_at IS NULL")
		}
	}
	if filter.Since != nil {
		builder = builder.Where(sq.GtOrEq{"started_at": *filter.Since})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build attempt query: %w", err)
	}

	var attempts []Attempt
	if err := s.selectWithRetry(ctx, &attempts, query, args...); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}
