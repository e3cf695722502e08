package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/example/studybot/pkg/models"
	"go.uber.org/zap"
)

func mc(sub, text, answer string) models.QuestionRecord {
	return models.QuestionRecord{
		SubcategoryName: sub,
		QuestionText:    text,
		QuestionType:    "multiple_choice",
		Options:         []string{answer, "wrong one", "wrong two"},
		CorrectAnswer:   models.AnswerList{answer},
		Explanation:     "because " + answer,
	}
}

func records(sub string, n int) []models.QuestionRecord {
	out := make([]models.QuestionRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, mc(sub, fmt.Sprintf("%s question %d", sub, i), fmt.Sprintf("answer %d", i)))
	}
	return out
}

func scenarioBank(opts BankOptions) *Bank {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(1))
	}
	b := NewBank(zap.NewNop(), opts)
	var all []models.QuestionRecord
	all = append(all, records("Articles", 3)...)
	all = append(all, records("Present Simple", 5)...)
	all = append(all, records("Past Simple", 5)...)
	all = append(all, records("Idioms", 4)...)
	b.LoadRecords(all)
	return b
}

type fakeStore struct {
	rows      []models.QuestionRow
	err       error
	saved     []models.Question
	savedSub  int64
	saveCalls int
}

func (f *fakeStore) GetQuestions(ctx context.Context, subcategoryID int64, level string, limit int) ([]models.QuestionRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.QuestionRow
	for _, r := range f.rows {
		if r.SubcategoryID == subcategoryID && (level == "" || r.Level == level) && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetQuestionsByCategory(ctx context.Context, categoryName string, excludeSubcategoryID int64, level string, limit int) ([]models.QuestionRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	return nil, nil
}

func (f *fakeStore) SaveGeneratedQuestions(ctx context.Context, subcategoryID int64, questions []models.Question) (int, error) {
	f.saveCalls++
	f.savedSub = subcategoryID
	f.saved = append(f.saved, questions...)
	return len(questions), nil
}

type fakeCatalog struct {
	entries []models.TaxonomyEntry
}

func (f fakeCatalog) Taxonomy(ctx context.Context) ([]models.TaxonomyEntry, error) {
	return f.entries, nil
}

type fakeGenerator struct {
	records []models.QuestionRecord
	err     error
	calls   int
}

func (f *fakeGenerator) GenerateQuestions(ctx context.Context, subcategory, level string, count int) ([]models.QuestionRecord, error) {
	f.calls++
	return f.records, f.err
}

type fakeResults struct {
	ids       map[string]int64
	lookupErr error
	saveErr   error
	saved     []models.WrongAnswer
	score     int
	total     int
	calls     int
}

func (f *fakeResults) SubcategoryIDByName(ctx context.Context, name string) (int64, bool, error) {
	if f.lookupErr != nil {
		return 0, false, f.lookupErr
	}
	id, ok := f.ids[name]
	return id, ok, nil
}

func (f *fakeResults) SaveUserResult(ctx context.Context, userID, subcategoryID int64, score, total int, wrong []models.WrongAnswer) error {
	f.calls++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.score, f.total, f.saved = score, total, wrong
	return nil
}

func (f *fakeResults) GetUserResults(ctx context.Context, userID int64, limit int) ([]models.UserResult, error) {
	return []models.UserResult{{UserID: userID, Score: f.score, TotalQuestions: f.total}}, nil
}

type fakeProgress struct {
	snapshots   []int
	deactivated int
}

func (f *fakeProgress) SaveUserTestProgress(ctx context.Context, userID, subcategoryID int64, index int, answers []models.AnswerRecord) error {
	f.snapshots = append(f.snapshots, index)
	return nil
}

func (f *fakeProgress) DeactivateUserTestProgress(ctx context.Context, userID, subcategoryID int64) error {
	f.deactivated++
	return nil
}

var errBoom = errors.New("boom")
