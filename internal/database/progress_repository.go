package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/studybot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// ProgressRepository keeps snapshots of tests in progress
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new repository instance
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// SaveUserTestProgress updates the active snapshot for the user and
// subcategory or creates one
func (r *ProgressRepository) SaveUserTestProgress(ctx context.Context, userID, subcategoryID int64, index int, answers []models.AnswerRecord) error {
	if answers == nil {
		answers = []models.AnswerRecord{}
	}
	data, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	var id int64
	err = tx.GetContext(ctx, &id, tx.Rebind(`
		SELECT id FROM user_test_progress
		WHERE user_id = ? AND subcategory_id = ? AND is_active = ?`), userID, subcategoryID, true)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO user_test_progress (user_id, subcategory_id, current_question_index, answers, is_active, updated_at)
			VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`), userID, subcategoryID, index, string(data), true)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert test progress: %w", err)
		}
	case err != nil:
		tx.Rollback()
		return fmt.Errorf("failed to look up test progress: %w", err)
	default:
		_, err = tx.ExecContext(ctx, tx.Rebind(`
			UPDATE user_test_progress
			SET current_question_index = ?, answers = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`), index, string(data), id)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to update test progress: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetUserTestProgress returns the active snapshot or nil
func (r *ProgressRepository) GetUserTestProgress(ctx context.Context, userID, subcategoryID int64) (*models.TestProgress, error) {
	var progress models.TestProgress
	err := r.db.GetContext(ctx, &progress, r.db.Rebind(`
		SELECT user_id, subcategory_id, current_question_index, answers, is_active, updated_at
		FROM user_test_progress
		WHERE user_id = ? AND subcategory_id = ? AND is_active = ?`), userID, subcategoryID, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get test progress: %w", err)
	}
	return &progress, nil
}

// DeactivateUserTestProgress closes the active snapshot, if any
func (r *ProgressRepository) DeactivateUserTestProgress(ctx context.Context, userID, subcategoryID int64) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE user_test_progress SET is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND subcategory_id = ? AND is_active = ?`), false, userID, subcategoryID, true)
	if err != nil {
		return fmt.Errorf("failed to deactivate test progress: %w", err)
	}
	return nil
}
