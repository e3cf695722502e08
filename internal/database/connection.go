package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/studybot/internal/config"
	"github.com/example/studybot/pkg/models"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Connect opens the configured database and makes sure the schema exists
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.Driver == "sqlite3" && cfg.SQLitePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == "sqlite3" {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func idColumn(db *sqlx.DB) string {
	if db.DriverName() == "postgres" {
		return "id SERIAL PRIMARY KEY"
	}
	return "id INTEGER PRIMARY KEY AUTOINCREMENT"
}

// InitSchema creates the quiz tables if they don't exist and seeds the
// default category taxonomy
func InitSchema(ctx context.Context, db *sqlx.DB) error {
	id := idColumn(db)

	statements := []struct {
		name  string
		query string
	}{
		{"test_categories", `
			CREATE TABLE IF NOT EXISTS test_categories (
				` + id + `,
				name TEXT UNIQUE NOT NULL
			)`},
		{"test_subcategories", `
			CREATE TABLE IF NOT EXISTS test_subcategories (
				` + id + `,
				name TEXT UNIQUE NOT NULL,
				category_id INTEGER NOT NULL REFERENCES test_categories(id) ON DELETE CASCADE
			)`},
		{"questions", `
			CREATE TABLE IF NOT EXISTS questions (
				` + id + `,
				subcategory_id INTEGER NOT NULL REFERENCES test_subcategories(id) ON DELETE CASCADE,
				level TEXT NOT NULL DEFAULT '',
				question_text TEXT NOT NULL,
				question_type TEXT NOT NULL,
				options TEXT,
				correct_answer TEXT NOT NULL,
				explanation TEXT,
				example TEXT,
				UNIQUE (question_text, subcategory_id, level)
			)`},
		{"user_results", `
			CREATE TABLE IF NOT EXISTS user_results (
				` + id + `,
				user_id BIGINT NOT NULL,
				test_id INTEGER NOT NULL REFERENCES test_subcategories(id),
				score INTEGER NOT NULL,
				total_questions INTEGER NOT NULL,
				wrong_answers TEXT NOT NULL DEFAULT '[]',
				completed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`},
		{"user_test_progress", `
			CREATE TABLE IF NOT EXISTS user_test_progress (
				` + id + `,
				user_id BIGINT NOT NULL,
				subcategory_id INTEGER NOT NULL REFERENCES test_subcategories(id),
				current_question_index INTEGER NOT NULL DEFAULT 0,
				answers TEXT NOT NULL DEFAULT '[]',
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`},
		{"user_results index", `CREATE INDEX IF NOT EXISTS idx_user_results_user ON user_results(user_id)`},
		{"user_test_progress index", `CREATE INDEX IF NOT EXISTS idx_user_test_progress_user ON user_test_progress(user_id, subcategory_id)`},
	}

	for _, st := range statements {
		if _, err := db.ExecContext(ctx, st.query); err != nil {
			return fmt.Errorf("failed to create %s: %w", st.name, err)
		}
	}

	return seedTaxonomy(ctx, db)
}

// seedTaxonomy inserts the built-in categories and subcategories.
// Existing rows are left untouched.
func seedTaxonomy(ctx context.Context, db *sqlx.DB) error {
	repo := NewCategoryRepository(db)
	for _, focus := range []string{models.FocusGrammar, models.FocusVocabulary} {
		for _, name := range models.DefaultSubcategories[focus] {
			if _, err := repo.EnsureSubcategory(ctx, name, focus); err != nil {
				return fmt.Errorf("failed to seed subcategory %q: %w", name, err)
			}
		}
	}
	return nil
}
