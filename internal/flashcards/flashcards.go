package flashcards

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/studybot/internal/session"
	"github.com/example/studybot/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyField        = errors.New("field is empty")
	ErrNoCards           = errors.New("no flashcards yet")
	ErrIndexOutOfRange   = errors.New("no flashcard at that position")
	ErrIllegalTransition = errors.New("illegal flashcards transition")
)

// State is a step of card creation or study
type State int

const (
	StateIdle State = iota
	StateAwaitingQuestion
	StateAwaitingAnswer
	StateStudyingQuestion
	StateStudyingAnswer
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingQuestion:
		return "awaiting_question"
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateStudyingQuestion:
		return "studying_question"
	case StateStudyingAnswer:
		return "studying_answer"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type input int

const (
	inputBeginCreate input = iota
	inputQuestion
	inputAnswer
	inputStartStudy
	inputShowAnswer
	inputNextCard
)

var transitions = map[State]map[input]State{
	StateIdle: {
		inputBeginCreate: StateAwaitingQuestion,
		inputStartStudy:  StateStudyingQuestion,
	},
	StateAwaitingQuestion: {
		inputQuestion:    StateAwaitingAnswer,
		inputBeginCreate: StateAwaitingQuestion,
		inputStartStudy:  StateStudyingQuestion,
	},
	StateAwaitingAnswer: {
		inputAnswer:      StateIdle,
		inputBeginCreate: StateAwaitingQuestion,
		inputStartStudy:  StateStudyingQuestion,
	},
	StateStudyingQuestion: {
		inputShowAnswer:  StateStudyingAnswer,
		inputBeginCreate: StateAwaitingQuestion,
		inputStartStudy:  StateStudyingQuestion,
	},
	StateStudyingAnswer: {
		inputNextCard:    StateStudyingQuestion,
		inputBeginCreate: StateAwaitingQuestion,
		inputStartStudy:  StateStudyingQuestion,
	},
}

func next(s State, in input) (State, error) {
	to, ok := transitions[s][in]
	if !ok {
		return s, fmt.Errorf("%w from %s", ErrIllegalTransition, s)
	}
	return to, nil
}

type progress struct {
	state    State
	question string
	cursor   int
}

// Controller manages per-user flashcards and study sessions
type Controller struct {
	log      *zap.Logger
	now      func() time.Time
	sessions *session.Store[progress]
	decks    *session.Store[[]models.Flashcard]
}

// NewController creates a controller whose unfinished sessions expire after ttl
func NewController(log *zap.Logger, ttl time.Duration) *Controller {
	return &Controller{
		log:      log,
		now:      time.Now,
		sessions: session.NewStore[progress](ttl),
		decks:    session.NewStore[[]models.Flashcard](0),
	}
}

func (c *Controller) fire(userID int64, in input, mutate func(*progress) error) (progress, error) {
	var (
		result progress
		err    error
	)
	c.sessions.Update(userID, func(cur progress, exists bool) (progress, bool) {
		to, terr := next(cur.state, in)
		if terr != nil {
			err = terr
			return cur, exists
		}
		updated := cur
		updated.state = to
		if mutate != nil {
			if merr := mutate(&updated); merr != nil {
				err = merr
				return cur, exists
			}
		}
		result = updated
		return updated, updated.state != StateIdle
	})
	return result, err
}

// State returns where the user is
func (c *Controller) State(userID int64) State {
	p, ok := c.sessions.Get(userID)
	if !ok {
		return StateIdle
	}
	return p.state
}

// AwaitingInput reports whether free text from the user belongs here
func (c *Controller) AwaitingInput(userID int64) bool {
	s := c.State(userID)
	return s == StateAwaitingQuestion || s == StateAwaitingAnswer
}

// BeginCreate starts collecting a new card
func (c *Controller) BeginCreate(userID int64) {
	c.fire(userID, inputBeginCreate, func(p *progress) error {
		*p = progress{state: StateAwaitingQuestion}
		return nil
	})
}

// HandleText consumes the question or the answer and returns the card once
// both are known
func (c *Controller) HandleText(userID int64, text string) (*models.Flashcard, error) {
	text = strings.TrimSpace(text)

	switch c.State(userID) {
	case StateAwaitingQuestion:
		if text == "" {
			return nil, fmt.Errorf("question: %w", ErrEmptyField)
		}
		_, err := c.fire(userID, inputQuestion, func(p *progress) error {
			p.question = text
			return nil
		})
		return nil, err

	case StateAwaitingAnswer:
		if text == "" {
			return nil, fmt.Errorf("answer: %w", ErrEmptyField)
		}
		var card *models.Flashcard
		_, err := c.fire(userID, inputAnswer, func(p *progress) error {
			card = &models.Flashcard{
				ID:        uuid.NewString(),
				Question:  p.question,
				Answer:    text,
				CreatedAt: c.now(),
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		c.decks.Update(userID, func(cur []models.Flashcard, _ bool) ([]models.Flashcard, bool) {
			return append(append([]models.Flashcard(nil), cur...), *card), true
		})
		c.log.Info("flashcard created", zap.Int64("user_id", userID))
		return card, nil
	}

	return nil, fmt.Errorf("%w from %s", ErrIllegalTransition, c.State(userID))
}

// Cancel abandons creation or study
func (c *Controller) Cancel(userID int64) {
	c.sessions.Delete(userID)
}

// List returns the user's cards in creation order
func (c *Controller) List(userID int64) []models.Flashcard {
	deck, _ := c.decks.Get(userID)
	return append([]models.Flashcard(nil), deck...)
}

// Delete removes the card at the zero-based index
func (c *Controller) Delete(userID int64, index int) (models.Flashcard, error) {
	var (
		removed models.Flashcard
		err     error
	)
	c.decks.Update(userID, func(cur []models.Flashcard, exists bool) ([]models.Flashcard, bool) {
		if index < 0 || index >= len(cur) {
			err = fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
			return cur, exists
		}
		removed = cur[index]
		out := make([]models.Flashcard, 0, len(cur)-1)
		out = append(out, cur[:index]...)
		out = append(out, cur[index+1:]...)
		return out, len(out) > 0
	})
	if err != nil {
		return removed, err
	}
	// a study cursor may now point past the end; a card being written is kept
	c.sessions.Update(userID, func(cur progress, exists bool) (progress, bool) {
		studying := cur.state == StateStudyingQuestion || cur.state == StateStudyingAnswer
		return cur, exists && !studying
	})
	return removed, nil
}

// Card is a flashcard shown during study
type Card struct {
	models.Flashcard
	Position int // 1-based
	Total    int
}

func (c *Controller) card(userID int64, cursor int) (*Card, error) {
	deck := c.List(userID)
	if len(deck) == 0 {
		return nil, ErrNoCards
	}
	cursor %= len(deck)
	return &Card{Flashcard: deck[cursor], Position: cursor + 1, Total: len(deck)}, nil
}

// StartStudy shows the first card
func (c *Controller) StartStudy(userID int64) (*Card, error) {
	if len(c.List(userID)) == 0 {
		return nil, ErrNoCards
	}
	if _, err := c.fire(userID, inputStartStudy, func(p *progress) error {
		*p = progress{state: StateStudyingQuestion}
		return nil
	}); err != nil {
		return nil, err
	}
	return c.card(userID, 0)
}

// ShowAnswer reveals the answer of the current card
func (c *Controller) ShowAnswer(userID int64) (*Card, error) {
	p, err := c.fire(userID, inputShowAnswer, nil)
	if err != nil {
		return nil, err
	}
	return c.card(userID, p.cursor)
}

// NextCard moves to the next card, wrapping around at the end
func (c *Controller) NextCard(userID int64) (*Card, error) {
	total := len(c.List(userID))
	if total == 0 {
		c.sessions.Delete(userID)
		return nil, ErrNoCards
	}
	p, err := c.fire(userID, inputNextCard, func(p *progress) error {
		p.cursor = (p.cursor + 1) % total
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.card(userID, p.cursor)
}

// FinishStudy ends the study session
func (c *Controller) FinishStudy(userID int64) {
	c.sessions.Delete(userID)
}

// Reset drops any session when the user leaves the feature
func (c *Controller) Reset(userID int64) {
	c.sessions.Delete(userID)
}

// Sweep evicts abandoned sessions
func (c *Controller) Sweep() int {
	return c.sessions.Sweep()
}
