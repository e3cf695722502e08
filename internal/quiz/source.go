package quiz

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/studybot/pkg/models"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Source is a question as it arrives from one of the stores. It is either
// a DBQuestion or a StaticQuestion and is turned into a models.Question
// before the engine ever sees it.
type Source interface {
	Normalize() (models.Question, error)
	isSource()
}

// DBQuestion is a row of the questions table
type DBQuestion struct {
	Row models.QuestionRow
}

// StaticQuestion is an entry of a JSON bank, an import file or an LLM response
type StaticQuestion struct {
	Record models.QuestionRecord
	Origin models.Origin
}

func (DBQuestion) isSource()     {}
func (StaticQuestion) isSource() {}

// Normalize decodes the JSON encoded options and answers of the row
func (q DBQuestion) Normalize() (models.Question, error) {
	var options []string
	if q.Row.Options != nil && strings.TrimSpace(*q.Row.Options) != "" {
		if err := json.Unmarshal([]byte(*q.Row.Options), &options); err != nil {
			return models.Question{}, fmt.Errorf("%w: options of question %d: %v", ErrInvalidQuestion, q.Row.ID, err)
		}
	}

	return finish(models.Question{
		ID:             q.Row.ID,
		Subcategory:    q.Row.SubcategoryName,
		Level:          q.Row.Level,
		Text:           q.Row.QuestionText,
		Type:           models.QuestionType(q.Row.QuestionType),
		Options:        options,
		CorrectAnswers: models.DecodeAnswers(q.Row.CorrectAnswer),
		Explanation:    deref(q.Row.Explanation),
		Example:        deref(q.Row.Example),
		Origin:         models.OriginDatabase,
	})
}

// Normalize fills in defaults the bank files leave out
func (q StaticQuestion) Normalize() (models.Question, error) {
	origin := q.Origin
	if origin == "" {
		origin = models.OriginStatic
	}

	return finish(models.Question{
		Subcategory:    q.Record.SubcategoryName,
		Level:          q.Record.Level,
		Text:           q.Record.QuestionText,
		Type:           models.QuestionType(q.Record.QuestionType),
		Options:        q.Record.Options,
		CorrectAnswers: q.Record.CorrectAnswer,
		Explanation:    q.Record.Explanation,
		Example:        q.Record.Example,
		Origin:         origin,
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func inferType(q models.Question) models.QuestionType {
	if len(q.Options) > 0 {
		return models.MultipleChoice
	}
	if len(q.CorrectAnswers) == 1 {
		switch strings.ToLower(strings.TrimSpace(q.CorrectAnswers[0])) {
		case "true", "false":
			return models.TrueFalse
		}
	}
	return models.FillInBlank
}

// finish trims, applies defaults and validates a question
func finish(q models.Question) (models.Question, error) {
	q.Subcategory = strings.TrimSpace(q.Subcategory)
	q.Level = strings.ToUpper(strings.TrimSpace(q.Level))
	q.Text = strings.TrimSpace(q.Text)
	q.Type = models.QuestionType(strings.ToLower(strings.TrimSpace(string(q.Type))))

	var options []string
	for _, o := range q.Options {
		if o = strings.TrimSpace(o); o != "" {
			options = append(options, o)
		}
	}
	q.Options = options

	var answers []string
	for _, a := range q.CorrectAnswers {
		if a = strings.TrimSpace(a); a != "" {
			answers = append(answers, a)
		}
	}
	q.CorrectAnswers = answers

	if q.Type == "" {
		q.Type = inferType(q)
	}

	switch q.Type {
	case models.TrueFalse:
		if len(q.Options) == 0 {
			q.Options = []string{"True", "False"}
		}
	case models.FillInBlank:
		q.Options = nil
	}

	if err := validate.Struct(q); err != nil {
		return models.Question{}, fmt.Errorf("%w: %q: %v", ErrInvalidQuestion, q.Text, err)
	}

	if q.Type == models.MultipleChoice || q.Type == models.TrueFalse {
		if len(q.Options) < 2 {
			return models.Question{}, fmt.Errorf("%w: %q needs at least two options", ErrInvalidQuestion, q.Text)
		}
		if !anyOptionCorrect(q) {
			return models.Question{}, fmt.Errorf("%w: %q has no option matching the correct answer", ErrInvalidQuestion, q.Text)
		}
	}

	return q, nil
}

func anyOptionCorrect(q models.Question) bool {
	for _, o := range q.Options {
		if IsCorrect(q, o) {
			return true
		}
	}
	return false
}

// NormalizeAll converts sources and returns the valid questions plus the
// errors for the ones that were dropped
func NormalizeAll(sources []Source) ([]models.Question, []error) {
	questions := make([]models.Question, 0, len(sources))
	var errs []error
	for _, s := range sources {
		q, err := s.Normalize()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		questions = append(questions, q)
	}
	return questions, errs
}

// FromRows wraps database rows as sources
func FromRows(rows []models.QuestionRow) []Source {
	out := make([]Source, 0, len(rows))
	for _, r := range rows {
		out = append(out, DBQuestion{Row: r})
	}
	return out
}

// FromRecords wraps file or LLM records as sources
func FromRecords(records []models.QuestionRecord, origin models.Origin) []Source {
	out := make([]Source, 0, len(records))
	for _, r := range records {
		out = append(out, StaticQuestion{Record: r, Origin: origin})
	}
	return out
}
