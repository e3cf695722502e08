package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/studybot/pkg/models"
	"github.com/jmoiron/sqlx"
)

const questionColumns = `q.id, q.subcategory_id, q.level, q.question_text, q.question_type,
	q.options, q.correct_answer, q.explanation, q.example, s.name AS subcategory_name`

// QuestionRepository handles database operations for quiz questions
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository creates a new repository instance
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func anyLevel(level string) bool {
	return level == "" || strings.EqualFold(level, "ALL")
}

// GetQuestions returns up to limit random questions of a subcategory.
// An empty level or "ALL" matches every level.
func (r *QuestionRepository) GetQuestions(ctx context.Context, subcategoryID int64, level string, limit int) ([]models.QuestionRow, error) {
	var (
		rows  []models.QuestionRow
		query string
		args  []interface{}
	)

	if anyLevel(level) {
		query = `SELECT ` + questionColumns + `
			FROM questions q JOIN test_subcategories s ON s.id = q.subcategory_id
			WHERE q.subcategory_id = ?
			ORDER BY RANDOM() LIMIT ?`
		args = []interface{}{subcategoryID, limit}
	} else {
		query = `SELECT ` + questionColumns + `
			FROM questions q JOIN test_subcategories s ON s.id = q.subcategory_id
			WHERE q.subcategory_id = ? AND q.level = ?
			ORDER BY RANDOM() LIMIT ?`
		args = []interface{}{subcategoryID, level, limit}
	}

	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	return rows, nil
}

// GetQuestionsByCategory returns up to limit random questions from the other
// subcategories of a category. It feeds the supplementary pool of a test.
func (r *QuestionRepository) GetQuestionsByCategory(ctx context.Context, categoryName string, excludeSubcategoryID int64, level string, limit int) ([]models.QuestionRow, error) {
	query := `SELECT ` + questionColumns + `
		FROM questions q
		JOIN test_subcategories s ON s.id = q.subcategory_id
		JOIN test_categories c ON c.id = s.category_id
		WHERE LOWER(c.name) = LOWER(?) AND q.subcategory_id <> ?`
	args := []interface{}{categoryName, excludeSubcategoryID}
	if !anyLevel(level) {
		query += ` AND q.level = ?`
		args = append(args, level)
	}
	query += ` ORDER BY RANDOM() LIMIT ?`
	args = append(args, limit)

	var rows []models.QuestionRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get questions by category: %w", err)
	}
	return rows, nil
}

// CountQuestions returns how many questions a subcategory has
func (r *QuestionRepository) CountQuestions(ctx context.Context, subcategoryID int64) (int, error) {
	var count int
	query := r.db.Rebind("SELECT COUNT(*) FROM questions WHERE subcategory_id = ?")
	if err := r.db.GetContext(ctx, &count, query, subcategoryID); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}

// SaveGeneratedQuestions inserts questions in one transaction, skipping
// ones that already exist for the same text, subcategory and level.
// It returns the number of rows actually inserted.
func (r *QuestionRepository) SaveGeneratedQuestions(ctx context.Context, subcategoryID int64, questions []models.Question) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}

	query := tx.Rebind(`
		INSERT INTO questions (subcategory_id, level, question_text, question_type, options, correct_answer, explanation, example)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (question_text, subcategory_id, level) DO NOTHING`)

	inserted := 0
	for _, q := range questions {
		options := q.Options
		if options == nil {
			options = []string{}
		}
		optionsJSON, err := json.Marshal(options)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to encode options: %w", err)
		}

		result, err := tx.ExecContext(ctx, query,
			subcategoryID,
			q.Level,
			q.Text,
			string(q.Type),
			string(optionsJSON),
			models.EncodeAnswers(q.CorrectAnswers),
			q.Explanation,
			q.Example,
		)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to insert question: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}
