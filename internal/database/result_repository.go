package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/studybot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// ResultRepository stores finished tests
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new repository instance
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// SaveUserResult appends a finished test to the user's history
func (r *ResultRepository) SaveUserResult(ctx context.Context, userID, subcategoryID int64, score, total int, wrong []models.WrongAnswer) error {
	if wrong == nil {
		wrong = []models.WrongAnswer{}
	}
	data, err := json.Marshal(wrong)
	if err != nil {
		return fmt.Errorf("failed to encode wrong answers: %w", err)
	}

	query := r.db.Rebind(`
		INSERT INTO user_results (user_id, test_id, score, total_questions, wrong_answers, completed_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`)
	if _, err := r.db.ExecContext(ctx, query, userID, subcategoryID, score, total, string(data)); err != nil {
		return fmt.Errorf("failed to save user result: %w", err)
	}
	return nil
}

// GetUserResults returns the user's latest results first, with the
// subcategory name filled in
func (r *ResultRepository) GetUserResults(ctx context.Context, userID int64, limit int) ([]models.UserResult, error) {
	var results []models.UserResult
	query := r.db.Rebind(`
		SELECT ur.id, ur.user_id, ur.test_id, ts.name AS subcategory_name, ur.score,
			ur.total_questions, ur.wrong_answers, ur.completed_at
		FROM user_results ur
		JOIN test_subcategories ts ON ur.test_id = ts.id
		WHERE ur.user_id = ?
		ORDER BY ur.completed_at DESC, ur.id DESC
		LIMIT ?`)
	if err := r.db.SelectContext(ctx, &results, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get user results: %w", err)
	}
	return results, nil
}
