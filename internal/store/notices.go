package store

import (
	"context"
	"fmt"
	"time"
)

// AddNotice appends a stage outcome under a checkpoint.
func (s *Store) AddNotice(ctx context.Context, checkpointID int64, stage string, status Status, message string) (*Notice, error) {
	now := time.Now().UTC()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO notices (checkpoint_id, stage, status, message, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		checkpointID, stage, status, message, now)
	if err != nil {
		return nil, wrapIntegrity("add notice", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("add notice: %w", err)
	}
	return &Notice{
		ID:           id,
		CheckpointID: checkpointID,
		Stage:        stage,
		Status:       status,
		Message:      message,
		CreatedAt:    now,
	}, nil
}

// Notices lists the outcomes recorded under a checkpoint in insertion order.
func (s *Store) Notices(ctx context.Context, checkpointID int64) ([]Notice, error) {
	var notices []Notice
	err := s.selectWithRetry(ctx, &notices,
		`SELECT id, checkpoint_id, stage, status, message, created_at
		 FROM notices WHERE checkpoint_id = ? ORDER BY id ASC`, checkpointID)
	if err != nil {
		return nil, fmt.Errorf("list notices for checkpoint %d: %w", checkpointID, err)
	}
	return notices, nil
}
