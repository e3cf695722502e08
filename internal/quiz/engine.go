package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/studybot/internal/session"
	"github.com/example/studybot/pkg/models"
	"go.uber.org/zap"
)

// ResultStore persists finished tests
type ResultStore interface {
	SubcategoryIDByName(ctx context.Context, name string) (int64, bool, error)
	SaveUserResult(ctx context.Context, userID, subcategoryID int64, score, total int, wrong []models.WrongAnswer) error
	GetUserResults(ctx context.Context, userID int64, limit int) ([]models.UserResult, error)
}

// ProgressStore keeps snapshots of tests in progress
type ProgressStore interface {
	SaveUserTestProgress(ctx context.Context, userID, subcategoryID int64, index int, answers []models.AnswerRecord) error
	DeactivateUserTestProgress(ctx context.Context, userID, subcategoryID int64) error
}

// Selector picks the questions of a new test
type Selector interface {
	Select(ctx context.Context, req SelectRequest) []models.Question
	Taxonomy() *Taxonomy
}

// Session is one user's position in the test flow
type Session struct {
	State       State
	Focus       string
	Level       string
	Subcategory string
	Questions   []models.Question
	Cursor      int
	Answers     []models.AnswerRecord
	StartedAt   time.Time
}

// QuestionView is what the user sees for one question
type QuestionView struct {
	Text     string
	Type     models.QuestionType
	Options  []string
	Position int // 1-based
	Total    int
}

// AnswerResult is the verdict for one answer
type AnswerResult struct {
	Correct       bool
	Feedback      string // "Correct!" or the explanation, or the correct answer
	CorrectAnswer string
	Explanation   string
	Example       string
	Next          *QuestionView // nil when the test is complete
}

// RecordStatus tells whether a report reached the database
type RecordStatus string

const (
	Recorded            RecordStatus = "recorded"
	RecordedLocallyOnly RecordStatus = "recorded-locally-only"
)

// Report is the outcome of a finished test
type Report struct {
	Subcategory    string
	Score          int
	TotalQuestions int
	WrongAnswers   []models.WrongAnswer
	Status         RecordStatus
}

// EngineOptions wires the optional stores of an Engine
type EngineOptions struct {
	Results    ResultStore
	Progress   ProgressStore
	SessionTTL time.Duration
}

// Engine runs English tests for many users
type Engine struct {
	log      *zap.Logger
	bank     Selector
	results  ResultStore
	progress ProgressStore
	sessions *session.Store[Session]
}

// NewEngine creates an engine over the given question selector
func NewEngine(log *zap.Logger, bank Selector, opts EngineOptions) *Engine {
	return &Engine{
		log:      log,
		bank:     bank,
		results:  opts.Results,
		progress: opts.Progress,
		sessions: session.NewStore[Session](opts.SessionTTL),
	}
}

// fire applies input to the user's session and lets mutate adjust it.
// The session is stored only if the transition is legal and mutate succeeds.
func (e *Engine) fire(userID int64, input Input, mutate func(*Session) error) (Session, error) {
	var (
		result Session
		err    error
	)
	e.sessions.Update(userID, func(cur Session, exists bool) (Session, bool) {
		if !exists {
			cur = Session{State: StateIdle}
		}
		next, terr := Transition(cur.State, input)
		if terr != nil {
			err = terr
			return cur, exists
		}
		updated := cur
		updated.State = next
		if mutate != nil {
			if merr := mutate(&updated); merr != nil {
				err = merr
				return cur, exists
			}
		}
		result = updated
		return updated, updated.State != StateIdle
	})
	return result, err
}

// State returns the user's current state
func (e *Engine) State(userID int64) State {
	s, ok := e.sessions.Get(userID)
	if !ok {
		return StateIdle
	}
	return s.State
}

// Snapshot returns a copy of the user's session
func (e *Engine) Snapshot(userID int64) (Session, bool) {
	return e.sessions.Get(userID)
}

// Begin opens the test menu, abandoning any test in progress
func (e *Engine) Begin(userID int64) {
	e.fire(userID, InputOpenMenu, func(s *Session) error {
		*s = Session{State: StateChoosingFocus}
		return nil
	})
}

// ChooseFocus records Grammar or Vocabulary
func (e *Engine) ChooseFocus(userID int64, focus string) error {
	canonical, ok := NormalizeFocus(focus)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFocus, focus)
	}
	_, err := e.fire(userID, InputSelectFocus, func(s *Session) error {
		s.Focus = canonical
		s.Level = ""
		s.Subcategory = ""
		return nil
	})
	return err
}

// ChooseLevel records A2, B1 or B2
func (e *Engine) ChooseLevel(userID int64, level string) error {
	canonical, ok := NormalizeLevel(level)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}
	_, err := e.fire(userID, InputSelectLevel, func(s *Session) error {
		s.Level = canonical
		s.Subcategory = ""
		return nil
	})
	return err
}

// ChooseSubcategory records the subcategory, after which a count is asked for
func (e *Engine) ChooseSubcategory(userID int64, name string) error {
	name = strings.TrimSpace(name)
	_, err := e.fire(userID, InputSelectSubcategory, func(s *Session) error {
		s.Subcategory = name
		return nil
	})
	return err
}

func (s Session) view() *QuestionView {
	if s.Cursor >= len(s.Questions) {
		return nil
	}
	q := s.Questions[s.Cursor]
	return &QuestionView{
		Text:     q.Text,
		Type:     q.Type,
		Options:  append([]string(nil), q.Options...),
		Position: s.Cursor + 1,
		Total:    len(s.Questions),
	}
}

// Start selects up to count questions and opens a new test, replacing any
// previous one. It returns ErrNoQuestions when nothing is available; the
// user's menu state is then left as it was.
func (e *Engine) Start(ctx context.Context, userID int64, subcategory, level string, count int) (*QuestionView, error) {
	if count <= 0 {
		count = DefaultCount
	}
	prev, _ := e.sessions.Get(userID)

	questions := e.bank.Select(ctx, SelectRequest{
		Subcategory: subcategory,
		Level:       level,
		Focus:       prev.Focus,
		Count:       count,
	})
	if len(questions) == 0 {
		e.log.Info("no questions for test", zap.Int64("user_id", userID), zap.String("subcategory", subcategory))
		return nil, ErrNoQuestions
	}

	s, err := e.fire(userID, InputStartTest, func(s *Session) error {
		s.Level = level
		s.Subcategory = subcategory
		s.Questions = questions
		s.Cursor = 0
		s.Answers = nil
		s.StartedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("test started",
		zap.Int64("user_id", userID),
		zap.String("subcategory", subcategory),
		zap.String("level", level),
		zap.Int("questions", len(questions)))
	return s.view(), nil
}

// Current re-renders the question the user is on
func (e *Engine) Current(userID int64) (*QuestionView, error) {
	s, ok := e.sessions.Get(userID)
	if !ok || s.State != StateTakingTest {
		return nil, ErrNoSession
	}
	return s.view(), nil
}

// CurrentType returns the type of the question the user is on
func (e *Engine) CurrentType(userID int64) (models.QuestionType, bool) {
	view, err := e.Current(userID)
	if err != nil || view == nil {
		return "", false
	}
	return view.Type, true
}

// Answer grades the answer to the current question and advances
func (e *Engine) Answer(ctx context.Context, userID int64, value string) (AnswerResult, error) {
	var result AnswerResult
	if strings.TrimSpace(value) == "" {
		return result, ErrEmptyAnswer
	}

	s, err := e.fire(userID, InputSubmitAnswer, func(s *Session) error {
		if s.Cursor >= len(s.Questions) {
			return ErrNoSession
		}
		q := s.Questions[s.Cursor]
		correct := IsCorrect(q, value)
		correctAnswer := models.AnswerList(q.CorrectAnswers).String()

		s.Answers = append(append([]models.AnswerRecord(nil), s.Answers...), models.AnswerRecord{
			Question:      q.Text,
			UserAnswer:    strings.TrimSpace(value),
			IsCorrect:     correct,
			CorrectAnswer: correctAnswer,
			Explanation:   q.Explanation,
			Example:       q.Example,
		})
		s.Cursor++

		result = AnswerResult{
			Correct:       correct,
			Feedback:      feedback(correct, q.Explanation, correctAnswer),
			CorrectAnswer: correctAnswer,
			Explanation:   q.Explanation,
			Example:       q.Example,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrIllegalTransition) {
			return result, ErrNoSession
		}
		return result, err
	}

	result.Next = s.view()
	e.saveProgress(ctx, userID, s)
	return result, nil
}

func feedback(correct bool, explanation, correctAnswer string) string {
	if correct {
		return "Correct!"
	}
	if explanation != "" {
		return explanation
	}
	return correctAnswer
}

// Finish closes the test, returns the report and tries to store it.
// A second call returns ErrNoSession.
func (e *Engine) Finish(ctx context.Context, userID int64) (*Report, error) {
	var done Session
	_, err := e.fire(userID, InputComplete, func(s *Session) error {
		done = *s
		return nil
	})
	if err != nil {
		return nil, ErrNoSession
	}

	report := &Report{
		Subcategory:    done.Subcategory,
		TotalQuestions: len(done.Questions),
		WrongAnswers:   []models.WrongAnswer{},
		Status:         RecordedLocallyOnly,
	}
	for _, a := range done.Answers {
		if a.IsCorrect {
			report.Score++
			continue
		}
		report.WrongAnswers = append(report.WrongAnswers, models.WrongAnswer{
			Question:      a.Question,
			UserAnswer:    a.UserAnswer,
			CorrectAnswer: a.CorrectAnswer,
			Explanation:   a.Explanation,
			Example:       a.Example,
		})
	}

	report.Status = e.record(ctx, userID, report)
	return report, nil
}

func (e *Engine) record(ctx context.Context, userID int64, report *Report) RecordStatus {
	log := e.log.With(zap.Int64("user_id", userID), zap.String("subcategory", report.Subcategory))
	if e.results == nil {
		return RecordedLocallyOnly
	}

	subID, ok, err := e.results.SubcategoryIDByName(ctx, report.Subcategory)
	if err != nil {
		log.Error("failed to resolve subcategory for result", zap.Error(err))
		return RecordedLocallyOnly
	}
	if !ok {
		log.Warn("subcategory not in database, result kept locally")
		return RecordedLocallyOnly
	}

	if e.progress != nil {
		if err := e.progress.DeactivateUserTestProgress(ctx, userID, subID); err != nil {
			log.Warn("failed to close test progress", zap.Error(err))
		}
	}

	if err := e.results.SaveUserResult(ctx, userID, subID, report.Score, report.TotalQuestions, report.WrongAnswers); err != nil {
		log.Error("failed to save result", zap.Error(err))
		return RecordedLocallyOnly
	}
	log.Info("test result saved", zap.Int("score", report.Score), zap.Int("total", report.TotalQuestions))
	return Recorded
}

func (e *Engine) saveProgress(ctx context.Context, userID int64, s Session) {
	if e.progress == nil {
		return
	}
	subID, ok := e.bank.Taxonomy().ID(s.Subcategory)
	if !ok {
		return
	}
	if err := e.progress.SaveUserTestProgress(ctx, userID, subID, s.Cursor, s.Answers); err != nil {
		e.log.Warn("failed to save test progress", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// History returns the user's most recent results
func (e *Engine) History(ctx context.Context, userID int64, limit int) ([]models.UserResult, error) {
	if e.results == nil {
		return nil, nil
	}
	return e.results.GetUserResults(ctx, userID, limit)
}

// Reset drops the user's session
func (e *Engine) Reset(userID int64) {
	e.sessions.Delete(userID)
}

// Sweep evicts sessions idle for longer than the session TTL
func (e *Engine) Sweep() int {
	return e.sessions.Sweep()
}
