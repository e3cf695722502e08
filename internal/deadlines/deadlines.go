package deadlines

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

// DateLayout is the only accepted date format
const DateLayout = "2006-01-02"

var (
	ErrEmptyField        = errors.New("field is empty")
	ErrInvalidDate       = errors.New("invalid date, use YYYY-MM-DD")
	ErrIndexOutOfRange   = errors.New("no deadline at that position")
	ErrIllegalTransition = errors.New("illegal deadlines transition")
)

// State is a step of deadline input collection
type State int

const (
	StateIdle State = iota
	StateAwaitingTitle
	StateAwaitingDate
	StateChoosingToDelete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingTitle:
		return "awaiting_title"
	case StateAwaitingDate:
		return "awaiting_date"
	case StateChoosingToDelete:
		return "choosing_to_delete"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type input int

const (
	inputBeginAdd input = iota
	inputTitle
	inputDate
	inputBeginDelete
	inputDelete
)

var transitions = map[State]map[input]State{
	StateIdle: {
		inputBeginAdd:    StateAwaitingTitle,
		inputBeginDelete: StateChoosingToDelete,
		inputDelete:      StateIdle,
	},
	StateAwaitingTitle: {
		inputTitle:       StateAwaitingDate,
		inputBeginAdd:    StateAwaitingTitle,
		inputBeginDelete: StateChoosingToDelete,
	},
	StateAwaitingDate: {
		inputDate:        StateIdle,
		inputBeginAdd:    StateAwaitingTitle,
		inputBeginDelete: StateChoosingToDelete,
	},
	StateChoosingToDelete: {
		inputDelete:      StateIdle,
		inputBeginAdd:    StateAwaitingTitle,
		inputBeginDelete: StateChoosingToDelete,
	},
}

func next(s State, in input) (State, error) {
	to, ok := transitions[s][in]
	if !ok {
		return s, fmt.Errorf("%w from %s", ErrIllegalTransition, s)
	}
	return to, nil
}

type draft struct {
	state State
	title string
}

// Controller collects deadlines per user. Lists live in memory only.
type Controller struct {
	log    *zap.Logger
	now    func() time.Time
	drafts *session.Store[draft]
	lists  *session.Store[[]models.Deadline]
}

// NewController creates a controller whose unfinished input expires after ttl
func NewController(log *zap.Logger, ttl time.Duration) *Controller {
	return &Controller{
		log:    log,
		now:    time.Now,
		drafts: session.NewStore[draft](ttl),
		lists:  session.NewStore[[]models.Deadline](0),
	}
}

// State returns where the user is in the input flow
func (c *Controller) State(userID int64) State {
	d, ok := c.drafts.Get(userID)
	if !ok {
		return StateIdle
	}
	return d.state
}

// AwaitingInput reports whether free text from the user belongs here
func (c *Controller) AwaitingInput(userID int64) bool {
	s := c.State(userID)
	return s == StateAwaitingTitle || s == StateAwaitingDate
}

func (c *Controller) fire(userID int64, in input, mutate func(*draft) error) error {
	var err error
	c.drafts.Update(userID, func(cur draft, exists bool) (draft, bool) {
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
		return updated, updated.state != StateIdle
	})
	return err
}

// BeginAdd starts collecting a new deadline
func (c *Controller) BeginAdd(userID int64) {
	c.fire(userID, inputBeginAdd, func(d *draft) error {
		d.title = ""
		return nil
	})
}

// HandleText consumes the title or the date. It returns the deadline once
// both are collected. Validation errors leave the state unchanged.
func (c *Controller) HandleText(userID int64, text string) (*models.Deadline, error) {
	text = strings.TrimSpace(text)

	switch c.State(userID) {
	case StateAwaitingTitle:
		if text == "" {
			return nil, fmt.Errorf("title: %w", ErrEmptyField)
		}
		return nil, c.fire(userID, inputTitle, func(d *draft) error {
			d.title = text
			return nil
		})

	case StateAwaitingDate:
		if text == "" {
			return nil, fmt.Errorf("date: %w", ErrEmptyField)
		}
		date, err := time.Parse(DateLayout, text)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, text)
		}

		var added *models.Deadline
		err = c.fire(userID, inputDate, func(d *draft) error {
			added = &models.Deadline{
				ID:        uuid.NewString(),
				Title:     d.title,
				Date:      date,
				CreatedAt: c.now(),
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		c.lists.Update(userID, func(cur []models.Deadline, _ bool) ([]models.Deadline, bool) {
			return append(append([]models.Deadline(nil), cur...), *added), true
		})
		c.log.Info("deadline added", zap.Int64("user_id", userID), zap.String("date", added.DateString()))
		return added, nil
	}

	return nil, fmt.Errorf("%w from %s", ErrIllegalTransition, c.State(userID))
}

// Cancel abandons any input in progress
func (c *Controller) Cancel(userID int64) {
	c.drafts.Delete(userID)
}

// List returns the user's deadlines in the order they were added
func (c *Controller) List(userID int64) []models.Deadline {
	list, _ := c.lists.Get(userID)
	return append([]models.Deadline(nil), list...)
}

// BeginDelete switches to choosing a deadline to delete and returns the list
func (c *Controller) BeginDelete(userID int64) []models.Deadline {
	list := c.List(userID)
	if len(list) > 0 {
		c.fire(userID, inputBeginDelete, nil)
	}
	return list
}

// Delete removes the deadline at the zero-based index. The remaining
// deadlines keep their order.
func (c *Controller) Delete(userID int64, index int) (models.Deadline, error) {
	var (
		removed models.Deadline
		err     error
	)
	c.lists.Update(userID, func(cur []models.Deadline, exists bool) ([]models.Deadline, bool) {
		if index < 0 || index >= len(cur) {
			err = fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
			return cur, exists
		}
		removed = cur[index]
		out := make([]models.Deadline, 0, len(cur)-1)
		out = append(out, cur[:index]...)
		out = append(out, cur[index+1:]...)
		return out, len(out) > 0
	})
	if err != nil {
		return removed, err
	}
	c.drafts.Delete(userID)
	c.log.Info("deadline deleted", zap.Int64("user_id", userID), zap.Int("index", index))
	return removed, nil
}

// Reset drops input in progress when the user leaves the feature
func (c *Controller) Reset(userID int64) {
	c.drafts.Delete(userID)
}

// Sweep evicts abandoned input sessions
func (c *Controller) Sweep() int {
	return c.drafts.Sweep()
}

// Format renders a list for display
func Format(list []models.Deadline) string {
	if len(list) == 0 {
		return "You have no deadlines yet."
	}
	var b strings.Builder
	b.WriteString("📅 Your deadlines:\n\n")
	for i, d := range list {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, d.Title, d.DateString())
	}
	return b.String()
}
