package database

import (
	"context"
	"testing"

	"github.com/example/studybot/internal/config"
	"github.com/example/studybot/pkg/models"
	"github.com/jmoiron/sqlx"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Connect(context.Background(), config.DatabaseConfig{Driver: "sqlite3", SQLitePath: ":memory:"})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func question(sub, level, text string) models.Question {
	return models.Question{
		Subcategory:    sub,
		Level:          level,
		Text:           text,
		Type:           models.MultipleChoice,
		Options:        []string{"a", "an", "the"},
		CorrectAnswers: []string{"the"},
		Explanation:    "definite article",
	}
}

func TestInitSchemaSeedsTaxonomy(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewCategoryRepository(db)

	categories, err := repo.GetCategories(ctx)
	if err != nil {
		t.Fatalf("GetCategories() error = %v", err)
	}
	if len(categories) != 2 || categories[0].Name != "Grammar" || categories[1].Name != "Vocabulary" {
		t.Fatalf("GetCategories() = %+v", categories)
	}

	entries, err := repo.Taxonomy(ctx)
	if err != nil {
		t.Fatalf("Taxonomy() error = %v", err)
	}
	want := len(models.DefaultSubcategories["Grammar"]) + len(models.DefaultSubcategories["Vocabulary"])
	if len(entries) != want {
		t.Fatalf("Taxonomy() returned %d entries, want %d", len(entries), want)
	}

	if err := InitSchema(ctx, db); err != nil {
		t.Fatalf("second InitSchema() error = %v", err)
	}
	entries, _ = repo.Taxonomy(ctx)
	if len(entries) != want {
		t.Fatalf("InitSchema() is not idempotent: %d entries", len(entries))
	}
}

func TestSubcategoryLookupIgnoresCase(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewCategoryRepository(db)

	sub, err := repo.GetSubcategoryByName(ctx, "present SIMPLE")
	if err != nil {
		t.Fatalf("GetSubcategoryByName() error = %v", err)
	}
	if sub == nil || sub.Name != "Present Simple" {
		t.Fatalf("GetSubcategoryByName() = %+v", sub)
	}

	byID, err := repo.GetSubcategoryByID(ctx, sub.ID)
	if err != nil || byID == nil || byID.Name != sub.Name {
		t.Fatalf("GetSubcategoryByID() = %+v, %v", byID, err)
	}

	missing, err := repo.GetSubcategoryByName(ctx, "Klingon")
	if err != nil || missing != nil {
		t.Fatalf("GetSubcategoryByName(missing) = %+v, %v", missing, err)
	}

	id, ok, err := repo.SubcategoryIDByName(ctx, "articles")
	if err != nil || !ok || id == 0 {
		t.Fatalf("SubcategoryIDByName() = %d, %v, %v", id, ok, err)
	}
}

func TestEnsureSubcategoryCreatesCategory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewCategoryRepository(db)

	id, err := repo.EnsureSubcategory(ctx, "Business English", "Other")
	if err != nil {
		t.Fatalf("EnsureSubcategory() error = %v", err)
	}
	again, err := repo.EnsureSubcategory(ctx, "business english", "Other")
	if err != nil || again != id {
		t.Fatalf("EnsureSubcategory() second call = %d, %v; want %d", again, err, id)
	}

	category, err := repo.GetCategoryByName(ctx, "other")
	if err != nil || category == nil {
		t.Fatalf("GetCategoryByName() = %+v, %v", category, err)
	}
	subs, err := repo.GetSubcategories(ctx, category.ID)
	if err != nil || len(subs) != 1 || subs[0].ID != id {
		t.Fatalf("GetSubcategories() = %+v, %v", subs, err)
	}
}

func TestQuestionRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	categories := NewCategoryRepository(db)
	repo := NewQuestionRepository(db)

	articles, _, _ := categories.SubcategoryIDByName(ctx, "Articles")
	idioms, _, _ := categories.SubcategoryIDByName(ctx, "Idioms")

	inserted, err := repo.SaveGeneratedQuestions(ctx, articles, []models.Question{
		question("Articles", "A2", "I saw ___ moon."),
		question("Articles", "B1", "She is ___ honest person."),
		question("Articles", "A2", "I saw ___ moon."),
	})
	if err != nil {
		t.Fatalf("SaveGeneratedQuestions() error = %v", err)
	}
	if inserted != 2 {
		t.Fatalf("SaveGeneratedQuestions() inserted %d, want 2", inserted)
	}

	idiom := question("Idioms", "A2", "Break a ___")
	idiom.Type = models.FillInBlank
	idiom.Options = nil
	idiom.CorrectAnswers = []string{"leg", "Leg"}
	if _, err := repo.SaveGeneratedQuestions(ctx, idioms, []models.Question{idiom}); err != nil {
		t.Fatalf("SaveGeneratedQuestions() error = %v", err)
	}

	t.Run("level filter", func(t *testing.T) {
		rows, err := repo.GetQuestions(ctx, articles, "A2", 10)
		if err != nil {
			t.Fatalf("GetQuestions() error = %v", err)
		}
		if len(rows) != 1 || rows[0].QuestionText != "I saw ___ moon." || rows[0].SubcategoryName != "Articles" {
			t.Fatalf("GetQuestions(A2) = %+v", rows)
		}
	})

	t.Run("all levels", func(t *testing.T) {
		for _, level := range []string{"", "ALL"} {
			rows, err := repo.GetQuestions(ctx, articles, level, 10)
			if err != nil || len(rows) != 2 {
				t.Fatalf("GetQuestions(%q) = %d rows, %v", level, len(rows), err)
			}
		}
	})

	t.Run("limit", func(t *testing.T) {
		rows, err := repo.GetQuestions(ctx, articles, "", 1)
		if err != nil || len(rows) != 1 {
			t.Fatalf("GetQuestions(limit 1) = %d rows, %v", len(rows), err)
		}
	})

	t.Run("category pool excludes own subcategory", func(t *testing.T) {
		rows, err := repo.GetQuestionsByCategory(ctx, "vocabulary", articles, "", 10)
		if err != nil {
			t.Fatalf("GetQuestionsByCategory() error = %v", err)
		}
		if len(rows) != 1 || rows[0].SubcategoryName != "Idioms" {
			t.Fatalf("GetQuestionsByCategory() = %+v", rows)
		}
		if got := models.DecodeAnswers(rows[0].CorrectAnswer); len(got) != 2 {
			t.Fatalf("stored answers = %q", rows[0].CorrectAnswer)
		}
	})

	count, err := repo.CountQuestions(ctx, articles)
	if err != nil || count != 2 {
		t.Fatalf("CountQuestions() = %d, %v", count, err)
	}
}

func TestResultRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	articles, _, _ := NewCategoryRepository(db).SubcategoryIDByName(ctx, "Articles")
	repo := NewResultRepository(db)

	wrong := []models.WrongAnswer{{Question: "I saw ___ moon.", UserAnswer: "a", CorrectAnswer: "the"}}
	if err := repo.SaveUserResult(ctx, 7, articles, 4, 5, wrong); err != nil {
		t.Fatalf("SaveUserResult() error = %v", err)
	}
	if err := repo.SaveUserResult(ctx, 7, articles, 5, 5, nil); err != nil {
		t.Fatalf("SaveUserResult() error = %v", err)
	}

	results, err := repo.GetUserResults(ctx, 7, 10)
	if err != nil {
		t.Fatalf("GetUserResults() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("GetUserResults() returned %d results", len(results))
	}
	if results[0].Score != 5 || results[0].SubcategoryName != "Articles" {
		t.Fatalf("latest result = %+v", results[0])
	}
	decoded, err := results[1].DecodeWrongAnswers()
	if err != nil || len(decoded) != 1 || decoded[0].CorrectAnswer != "the" {
		t.Fatalf("DecodeWrongAnswers() = %+v, %v", decoded, err)
	}

	other, err := repo.GetUserResults(ctx, 8, 10)
	if err != nil || len(other) != 0 {
		t.Fatalf("GetUserResults(other user) = %+v, %v", other, err)
	}
}

func TestProgressRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	articles, _, _ := NewCategoryRepository(db).SubcategoryIDByName(ctx, "Articles")
	repo := NewProgressRepository(db)

	if err := repo.SaveUserTestProgress(ctx, 7, articles, 1, []models.AnswerRecord{{Question: "q1", IsCorrect: true}}); err != nil {
		t.Fatalf("SaveUserTestProgress() error = %v", err)
	}
	if err := repo.SaveUserTestProgress(ctx, 7, articles, 2, []models.AnswerRecord{{Question: "q1"}, {Question: "q2"}}); err != nil {
		t.Fatalf("SaveUserTestProgress() update error = %v", err)
	}

	progress, err := repo.GetUserTestProgress(ctx, 7, articles)
	if err != nil || progress == nil {
		t.Fatalf("GetUserTestProgress() = %+v, %v", progress, err)
	}
	if progress.CurrentQuestionIndex != 2 || !progress.IsActive {
		t.Fatalf("progress = %+v", progress)
	}

	var rows int
	if err := db.Get(&rows, "SELECT COUNT(*) FROM user_test_progress"); err != nil || rows != 1 {
		t.Fatalf("expected a single snapshot row, got %d (%v)", rows, err)
	}

	if err := repo.DeactivateUserTestProgress(ctx, 7, articles); err != nil {
		t.Fatalf("DeactivateUserTestProgress() error = %v", err)
	}
	progress, err = repo.GetUserTestProgress(ctx, 7, articles)
	if err != nil || progress != nil {
		t.Fatalf("GetUserTestProgress() after deactivate = %+v, %v", progress, err)
	}
}
