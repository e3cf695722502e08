package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/studybot/pkg/models"
	"go.uber.org/zap"
)

// Catalog provides the database taxonomy
type Catalog interface {
	Taxonomy(ctx context.Context) ([]models.TaxonomyEntry, error)
}

// QuestionStore reads and writes database questions
type QuestionStore interface {
	GetQuestions(ctx context.Context, subcategoryID int64, level string, limit int) ([]models.QuestionRow, error)
	GetQuestionsByCategory(ctx context.Context, categoryName string, excludeSubcategoryID int64, level string, limit int) ([]models.QuestionRow, error)
	SaveGeneratedQuestions(ctx context.Context, subcategoryID int64, questions []models.Question) (int, error)
}

// Generator produces new questions when a subcategory has none
type Generator interface {
	GenerateQuestions(ctx context.Context, subcategory, level string, count int) ([]models.QuestionRecord, error)
}

// BankOptions wires the optional stores of a Bank. Nil members are skipped.
type BankOptions struct {
	Catalog   Catalog
	Store     QuestionStore
	Generator Generator
	Rand      *rand.Rand
}

// Bank serves questions from the database and the static JSON bank
type Bank struct {
	log      *zap.Logger
	catalog  Catalog
	store    QuestionStore
	gen      Generator
	taxonomy *Taxonomy

	mu     sync.RWMutex
	static []models.Question

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewBank creates an empty bank
func NewBank(log *zap.Logger, opts BankOptions) *Bank {
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Bank{
		log:      log,
		catalog:  opts.Catalog,
		store:    opts.Store,
		gen:      opts.Generator,
		taxonomy: NewTaxonomy(),
		rnd:      rnd,
	}
}

// Taxonomy returns the subcategory mapping used by the bank
func (b *Bank) Taxonomy() *Taxonomy {
	return b.taxonomy
}

// Refresh reloads subcategories from the database
func (b *Bank) Refresh(ctx context.Context) error {
	if b.catalog == nil {
		return nil
	}
	entries, err := b.catalog.Taxonomy(ctx)
	if err != nil {
		return fmt.Errorf("failed to load taxonomy: %w", err)
	}
	b.taxonomy.Merge(entries)
	return nil
}

// LoadFile reads a JSON array of questions. A missing file leaves the
// static bank empty. Invalid entries are logged and skipped.
func (b *Bank) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		b.log.Warn("question bank file not found", zap.String("path", path))
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read question bank: %w", err)
	}

	var records []models.QuestionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("failed to parse question bank %s: %w", path, err)
	}

	n := b.LoadRecords(records)
	b.log.Info("loaded question bank", zap.String("path", path), zap.Int("questions", n), zap.Int("records", len(records)))
	return n, nil
}

// LoadRecords replaces the static bank with the valid records
func (b *Bank) LoadRecords(records []models.QuestionRecord) int {
	questions, errs := NormalizeAll(FromRecords(records, models.OriginStatic))
	for _, err := range errs {
		b.log.Warn("skipping question bank entry", zap.Error(err))
	}

	b.mu.Lock()
	b.static = questions
	b.mu.Unlock()
	return len(questions)
}

// Subcategories lists the subcategories of a focus known to the taxonomy
// or present in the static bank, without case-insensitive duplicates
func (b *Bank) Subcategories(focus string) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			return
		}
		seen[key] = true
		names = append(names, name)
	}

	for _, name := range b.taxonomy.Names(focus) {
		add(name)
	}

	b.mu.RLock()
	for _, q := range b.static {
		if strings.EqualFold(b.taxonomy.FocusOf(q.Subcategory), focus) {
			add(q.Subcategory)
		}
	}
	b.mu.RUnlock()

	sort.Slice(names, func(i, j int) bool { return strings.ToLower(names[i]) < strings.ToLower(names[j]) })
	return names
}

// SelectRequest describes the questions wanted for a test
type SelectRequest struct {
	Subcategory string
	Level       string
	Focus       string
	Count       int
}

func levelMatches(q models.Question, level string) bool {
	return anyLevel(level) || q.Level == "" || strings.EqualFold(q.Level, level)
}

func anyLevel(level string) bool {
	return level == "" || strings.EqualFold(level, "ALL")
}

// Select picks up to req.Count questions for the subcategory. When there
// are too few it tops up from other subcategories of the same focus.
// Store failures are logged and the static bank is used instead.
func (b *Bank) Select(ctx context.Context, req SelectRequest) []models.Question {
	if req.Count <= 0 {
		req.Count = DefaultCount
	}
	log := b.log.With(zap.String("subcategory", req.Subcategory), zap.String("level", req.Level), zap.Int("count", req.Count))

	subID, hasID := b.taxonomy.ID(req.Subcategory)
	seen := make(map[string]bool)
	var primary []models.Question

	addUnique := func(dst []models.Question, qs []models.Question) []models.Question {
		for _, q := range qs {
			key := strings.ToLower(q.Text)
			if seen[key] {
				continue
			}
			seen[key] = true
			dst = append(dst, q)
		}
		return dst
	}

	if b.store != nil && hasID {
		rows, err := b.store.GetQuestions(ctx, subID, req.Level, req.Count)
		if err != nil {
			log.Warn("database questions unavailable, using question bank", zap.Error(err))
		} else {
			qs, errs := NormalizeAll(FromRows(rows))
			for _, err := range errs {
				log.Warn("skipping database question", zap.Error(err))
			}
			primary = addUnique(primary, qs)
		}
	}

	primary = addUnique(primary, b.staticWhere(func(q models.Question) bool {
		return strings.EqualFold(q.Subcategory, req.Subcategory) && levelMatches(q, req.Level)
	}))

	if len(primary) == 0 && b.gen != nil {
		primary = addUnique(primary, b.generate(ctx, log, req, subID, hasID))
	}

	b.shuffle(primary)
	if len(primary) > req.Count {
		primary = primary[:req.Count]
	}

	focus, ok := NormalizeFocus(req.Focus)
	if need := req.Count - len(primary); need > 0 && ok {
		var pool []models.Question

		if b.store != nil {
			rows, err := b.store.GetQuestionsByCategory(ctx, focus, subID, req.Level, need)
			if err != nil {
				log.Warn("database supplementary questions unavailable", zap.Error(err))
			} else {
				qs, _ := NormalizeAll(FromRows(rows))
				pool = addUnique(pool, qs)
			}
		}

		pool = addUnique(pool, b.staticWhere(func(q models.Question) bool {
			return !strings.EqualFold(q.Subcategory, req.Subcategory) &&
				b.taxonomy.FocusOf(q.Subcategory) == focus &&
				levelMatches(q, req.Level)
		}))

		b.shuffle(pool)
		if len(pool) > need {
			pool = pool[:need]
		}
		log.Debug("topping up test", zap.Int("primary", len(primary)), zap.Int("supplementary", len(pool)))
		primary = append(primary, pool...)
	}

	b.shuffle(primary)
	return primary
}

func (b *Bank) staticWhere(match func(models.Question) bool) []models.Question {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []models.Question
	for _, q := range b.static {
		if match(q) {
			out = append(out, q)
		}
	}
	return out
}

func (b *Bank) generate(ctx context.Context, log *zap.Logger, req SelectRequest, subID int64, hasID bool) []models.Question {
	records, err := b.gen.GenerateQuestions(ctx, req.Subcategory, req.Level, req.Count)
	if err != nil {
		log.Warn("question generation failed", zap.Error(err))
		return nil
	}

	for i := range records {
		if records[i].SubcategoryName == "" {
			records[i].SubcategoryName = req.Subcategory
		}
		if records[i].Level == "" {
			records[i].Level = req.Level
		}
	}

	questions, errs := NormalizeAll(FromRecords(records, models.OriginGenerated))
	for _, err := range errs {
		log.Warn("dropping generated question", zap.Error(err))
	}

	if hasID && b.store != nil && len(questions) > 0 {
		saved, err := b.store.SaveGeneratedQuestions(ctx, subID, questions)
		if err != nil {
			log.Warn("failed to save generated questions", zap.Error(err))
		} else {
			log.Info("saved generated questions", zap.Int("saved", saved))
		}
	}
	return questions
}

func (b *Bank) shuffle(qs []models.Question) {
	b.rndMu.Lock()
	defer b.rndMu.Unlock()
	b.rnd.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
}
