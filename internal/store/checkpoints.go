package store

import (
	"context"
	"fmt"
	"time"

	"satchel/internal/services"
)

// GetCheckpoint fetches the checkpoint for an attempt and point. Returns
// services.ErrNotFound when none exists and ErrDuplicateCheckpoint when the
// database somehow holds more than one.
func (s *Store) GetCheckpoint(ctx context.Context, attemptID int64, point Point) (*Checkpoint, error) {
	var checkpoints []Checkpoint
	err := s.selectWithRetry(ctx, &checkpoints,
		`SELECT id, attempt_id, point, started_at, ended_at
		 FROM checkpoints WHERE attempt_id = ? AND point = ?`, attemptID, point)
	if err != nil {
		return nil, fmt.Errorf("get checkpoint %s for attempt %d: %w", point, attemptID, err)
	}
	switch len(checkpoints) {
	case 0:
		return nil, services.Wrap(services.ErrNotFound, "store", "get checkpoint",
			fmt.Sprintf("no %s checkpoint for attempt %d", point, attemptID), nil)
	case 1:
		return &checkpoints[0], nil
	default:
		return nil, services.Wrap(services.ErrIntegrity, "store", "get checkpoint",
			fmt.Sprintf("%d %s checkpoints for attempt %d", len(checkpoints), point, attemptID),
			ErrDuplicateCheckpoint)
	}
}

// CreateCheckpoint records a new checkpoint for an attempt. Creating a second
// checkpoint for the same point violates the schema and surfaces as
// services.ErrIntegrity.
func (s *Store) CreateCheckpoint(ctx context.Context, attemptID int64, point Point) (*Checkpoint, error) {
	if !point.Valid() {
		return nil, services.Wrap(services.ErrConfiguration, "store", "create checkpoint",
			fmt.Sprintf("unknown point %q", point), nil)
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO checkpoints (attempt_id, point) VALUES (?, ?)`, attemptID, point)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, services.Wrap(services.ErrIntegrity, "store", "create checkpoint",
				fmt.Sprintf("%s checkpoint for attempt %d already exists", point, attemptID),
				fmt.Errorf("%w: %w", ErrDuplicateCheckpoint, err))
		}
		return nil, fmt.Errorf("create %s checkpoint for attempt %d: %w", point, attemptID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create checkpoint: %w", err)
	}
	return &Checkpoint{ID: id, AttemptID: attemptID, Point: point}, nil
}

// StartCheckpoint stamps started_at. The first call wins; later calls leave
// the original timestamp untouched.
func (s *Store) StartCheckpoint(ctx context.Context, checkpoint *Checkpoint) error {
	if checkpoint.StartedAt != nil {
		return nil
	}
	now := time.Now().UTC()
	if _, err := s.execWithRetry(ctx,
		`UPDATE checkpoints SET started_at = ? WHERE id = ? AND started_at IS NULL`,
		now, checkpoint.ID); err != nil {
		return fmt.Errorf("start checkpoint %d: %w", checkpoint.ID, err)
	}
	checkpoint.StartedAt = &now
	return nil
}

// EndCheckpoint stamps ended_at, closing the checkpoint session.
func (s *Store) EndCheckpoint(ctx context.Context, checkpoint *Checkpoint) error {
	if checkpoint.EndedAt != nil {
		return nil
	}
	now := time.Now().UTC()
	if _, err := s.execWithRetry(ctx,
		`UPDATE checkpoints SET ended_at = ? WHERE id = ? AND ended_at IS NULL`,
		now, checkpoint.ID); err != nil {
		return fmt.Errorf("end checkpoint %d: %w", checkpoint.ID, err)
	}
	checkpoint.EndedAt = &now
	return nil
}
