package importer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/studybot/internal/quiz"
	"github.com/example/studybot/pkg/models"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned for files other than json, csv and xlsx
var ErrUnsupportedFormat = errors.New("unsupported import format")

// ImportConfig defines where each field lives in csv and xlsx files
type ImportConfig struct {
	SubcategoryColumn string
	LevelColumn       string
	QuestionColumn    string
	TypeColumn        string
	OptionsColumn     string // options separated by ListSeparator
	AnswerColumn      string // several acceptable answers separated by ListSeparator
	ExplanationColumn string
	ExampleColumn     string
	ListSeparator     string
	SheetName         string // empty means the first sheet
	StartRow          int    // 1-based; rows before it are headers
}

// DefaultImportConfig returns the default column layout
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SubcategoryColumn: "A",
		LevelColumn:       "B",
		QuestionColumn:    "C",
		TypeColumn:        "D",
		OptionsColumn:     "E",
		AnswerColumn:      "F",
		ExplanationColumn: "G",
		ExampleColumn:     "H",
		ListSeparator:     "|",
		StartRow:          2,
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed       int
	SubcategoriesCreated int
	Created              int
	Skipped              int
	Errors               []string
}

// Categories resolves subcategory names, creating missing ones
type Categories interface {
	SubcategoryIDByName(ctx context.Context, name string) (int64, bool, error)
	EnsureSubcategory(ctx context.Context, name, categoryName string) (int64, error)
}

// Questions stores questions, ignoring duplicates
type Questions interface {
	SaveGeneratedQuestions(ctx context.Context, subcategoryID int64, questions []models.Question) (int, error)
}

// Importer loads question banks into the database
type Importer struct {
	log        *zap.Logger
	categories Categories
	questions  Questions
	focusOf    func(string) string
	config     ImportConfig
}

// New creates an importer. focusOf picks the category of a new subcategory.
func New(log *zap.Logger, categories Categories, questions Questions, focusOf func(string) string) *Importer {
	return &Importer{
		log:        log,
		categories: categories,
		questions:  questions,
		focusOf:    focusOf,
		config:     DefaultImportConfig(),
	}
}

// WithConfig replaces the column layout
func (im *Importer) WithConfig(cfg ImportConfig) *Importer {
	c := *im
	c.config = cfg
	return &c
}

// ImportFile imports questions from a .json, .csv or .xlsx file
func (im *Importer) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()
	return im.Import(ctx, filepath.Ext(path), f)
}

// Import reads questions in the format named by ext and stores them
func (im *Importer) Import(ctx context.Context, ext string, r io.Reader) (*ImportResult, error) {
	var (
		rows []row
		err  error
	)
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "json":
		rows, err = readJSON(r)
	case "csv":
		rows, err = im.readCSV(r)
	case "xlsx", "xlsm":
		rows, err = im.readExcel(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	known := make(map[string]int64)
	for _, rw := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.TotalProcessed++
		if err := im.processRow(ctx, rw, known, result); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rw.num, err))
		}
	}

	im.log.Info("question import finished",
		zap.Int("processed", result.TotalProcessed),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("subcategories_created", result.SubcategoriesCreated))
	return result, nil
}

type row struct {
	num    int
	record models.QuestionRecord
}

func readJSON(r io.Reader) ([]row, error) {
	var records []models.QuestionRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("JSON file should contain an array of questions: %w", err)
	}
	rows := make([]row, len(records))
	for i, rec := range records {
		rows[i] = row{num: i + 1, record: rec}
	}
	return rows, nil
}

func (im *Importer) readCSV(r io.Reader) ([]row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows []row
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		// the reader skips empty lines, so count by file position
		num, _ := reader.FieldPos(0)
		if num < im.config.StartRow || blank(cells) {
			continue
		}
		rec, err := im.recordFromCells(cells)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row{num: num, record: rec})
	}
	return rows, nil
}

func (im *Importer) readExcel(r io.Reader) ([]row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := im.config.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	cellRows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	var rows []row
	for i, cells := range cellRows {
		if i < im.config.StartRow-1 || blank(cells) {
			continue
		}
		rec, err := im.recordFromCells(cells)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row{num: i + 1, record: rec})
	}
	return rows, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func (im *Importer) recordFromCells(cells []string) (models.QuestionRecord, error) {
	var cellErr error
	cell := func(column string) string {
		if column == "" || cellErr != nil {
			return ""
		}
		idx, err := excelize.ColumnNameToNumber(column)
		if err != nil {
			cellErr = fmt.Errorf("invalid column %q: %w", column, err)
			return ""
		}
		if idx-1 < len(cells) {
			return strings.TrimSpace(cells[idx-1])
		}
		return ""
	}

	cfg := im.config
	rec := models.QuestionRecord{
		SubcategoryName: cell(cfg.SubcategoryColumn),
		Level:           cell(cfg.LevelColumn),
		QuestionText:    cell(cfg.QuestionColumn),
		QuestionType:    cell(cfg.TypeColumn),
		Options:         splitList(cell(cfg.OptionsColumn), cfg.ListSeparator),
		CorrectAnswer:   models.AnswerList(splitList(cell(cfg.AnswerColumn), cfg.ListSeparator)),
		Explanation:     cell(cfg.ExplanationColumn),
		Example:         cell(cfg.ExampleColumn),
	}
	return rec, cellErr
}

func splitList(s, sep string) []string {
	if s == "" {
		return nil
	}
	if sep == "" {
		return []string{s}
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (im *Importer) processRow(ctx context.Context, rw row, known map[string]int64, result *ImportResult) error {
	rec := rw.record
	switch {
	case strings.TrimSpace(rec.SubcategoryName) == "":
		return fmt.Errorf("subcategory_name is required")
	case strings.TrimSpace(rec.Level) == "":
		return fmt.Errorf("level is required")
	case strings.TrimSpace(rec.QuestionText) == "":
		return fmt.Errorf("question_text is required")
	case strings.TrimSpace(rec.QuestionType) == "":
		return fmt.Errorf("question_type is required")
	case len(rec.CorrectAnswer) == 0:
		return fmt.Errorf("correct_answer is required")
	}

	q, err := quiz.StaticQuestion{Record: rec, Origin: models.OriginStatic}.Normalize()
	if err != nil {
		return err
	}

	subID, err := im.subcategoryID(ctx, q.Subcategory, known, result)
	if err != nil {
		return err
	}

	inserted, err := im.questions.SaveGeneratedQuestions(ctx, subID, []models.Question{q})
	if err != nil {
		return fmt.Errorf("failed to save question: %w", err)
	}
	if inserted == 0 {
		return fmt.Errorf("question already exists")
	}
	result.Created++
	return nil
}

func (im *Importer) subcategoryID(ctx context.Context, name string, known map[string]int64, result *ImportResult) (int64, error) {
	key := strings.ToLower(name)
	if id, ok := known[key]; ok {
		return id, nil
	}

	id, ok, err := im.categories.SubcategoryIDByName(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("failed to look up subcategory: %w", err)
	}
	if !ok {
		category := models.FocusOther
		if im.focusOf != nil {
			category = im.focusOf(name)
		}
		id, err = im.categories.EnsureSubcategory(ctx, name, category)
		if err != nil {
			return 0, fmt.Errorf("failed to create subcategory: %w", err)
		}
		result.SubcategoriesCreated++
	}
	known[key] = id
	return id, nil
}
