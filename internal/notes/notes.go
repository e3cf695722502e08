package notes

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/studybot/internal/session"
	"github.com/example/studybot/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyContent      = errors.New("note is empty")
	ErrUnknownCategory   = errors.New("unknown note category")
	ErrNotFound          = errors.New("note not found")
	ErrIllegalTransition = errors.New("illegal notes transition")
)

// PreviewLength is how many characters of a note are shown in lists
const PreviewLength = 40

// State is a step of note creation
type State int

const (
	StateIdle State = iota
	StateChoosingCategory
	StateAwaitingContent
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChoosingCategory:
		return "choosing_category"
	case StateAwaitingContent:
		return "awaiting_content"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type input int

const (
	inputBeginNew input = iota
	inputCategory
	inputContent
)

var transitions = map[State]map[input]State{
	StateIdle:             {inputBeginNew: StateChoosingCategory},
	StateChoosingCategory: {inputBeginNew: StateChoosingCategory, inputCategory: StateAwaitingContent},
	StateAwaitingContent:  {inputBeginNew: StateChoosingCategory, inputCategory: StateAwaitingContent, inputContent: StateIdle},
}

func next(s State, in input) (State, error) {
	to, ok := transitions[s][in]
	if !ok {
		return s, fmt.Errorf("%w from %s", ErrIllegalTransition, s)
	}
	return to, nil
}

type draft struct {
	state    State
	category models.NoteCategory
}

// Controller keeps short categorised notes per user in memory
type Controller struct {
	log    *zap.Logger
	now    func() time.Time
	drafts *session.Store[draft]
	notes  *session.Store[[]models.Note]
}

// NewController creates a controller whose unfinished drafts expire after ttl
func NewController(log *zap.Logger, ttl time.Duration) *Controller {
	return &Controller{
		log:    log,
		now:    time.Now,
		drafts: session.NewStore[draft](ttl),
		notes:  session.NewStore[[]models.Note](0),
	}
}

// ParseCategory accepts a category name in any case
func ParseCategory(name string) (models.NoteCategory, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range models.NoteCategories {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

func (c *Controller) fire(userID int64, in input, mutate func(*draft)) error {
	var err error
	c.drafts.Update(userID, func(cur draft, exists bool) (draft, bool) {
		to, terr := next(cur.state, in)
		if terr != nil {
			err = terr
			return cur, exists
		}
		cur.state = to
		if mutate != nil {
			mutate(&cur)
		}
		return cur, cur.state != StateIdle
	})
	return err
}

// State returns where the user is in note creation
func (c *Controller) State(userID int64) State {
	d, ok := c.drafts.Get(userID)
	if !ok {
		return StateIdle
	}
	return d.state
}

// AwaitingInput reports whether free text from the user belongs here
func (c *Controller) AwaitingInput(userID int64) bool {
	return c.State(userID) == StateAwaitingContent
}

// BeginNew asks for the category of a new note
func (c *Controller) BeginNew(userID int64) {
	c.fire(userID, inputBeginNew, nil)
}

// ChooseCategory records the category and waits for the text
func (c *Controller) ChooseCategory(userID int64, name string) error {
	category, err := ParseCategory(name)
	if err != nil {
		return err
	}
	return c.fire(userID, inputCategory, func(d *draft) { d.category = category })
}

// HandleText stores the note text under the chosen category
func (c *Controller) HandleText(userID int64, text string) (*models.Note, error) {
	text = strings.TrimSpace(text)
	if c.State(userID) != StateAwaitingContent {
		return nil, fmt.Errorf("%w from %s", ErrIllegalTransition, c.State(userID))
	}
	if text == "" {
		return nil, ErrEmptyContent
	}

	var note *models.Note
	err := c.fire(userID, inputContent, func(d *draft) {
		now := c.now()
		note = &models.Note{
			ID:           uuid.NewString(),
			Category:     d.category,
			Content:      text,
			Created:      now,
			LastModified: now,
		}
	})
	if err != nil {
		return nil, err
	}

	c.notes.Update(userID, func(cur []models.Note, _ bool) ([]models.Note, bool) {
		return append(append([]models.Note(nil), cur...), *note), true
	})
	c.log.Info("note saved", zap.Int64("user_id", userID), zap.String("category", string(note.Category)))
	return note, nil
}

// Cancel abandons a note in progress
func (c *Controller) Cancel(userID int64) {
	c.drafts.Delete(userID)
}

// List returns all notes in creation order
func (c *Controller) List(userID int64) []models.Note {
	list, _ := c.notes.Get(userID)
	return append([]models.Note(nil), list...)
}

// ByCategory returns the notes of one category
func (c *Controller) ByCategory(userID int64, category models.NoteCategory) []models.Note {
	var out []models.Note
	for _, n := range c.List(userID) {
		if n.Category == category {
			out = append(out, n)
		}
	}
	return out
}

// CategoryCount is the number of notes in a category
type CategoryCount struct {
	Category models.NoteCategory
	Count    int
}

// Categories returns the categories that have notes, in menu order
func (c *Controller) Categories(userID int64) []CategoryCount {
	counts := make(map[models.NoteCategory]int)
	for _, n := range c.List(userID) {
		counts[n.Category]++
	}
	var out []CategoryCount
	for _, cat := range models.NoteCategories {
		if counts[cat] > 0 {
			out = append(out, CategoryCount{Category: cat, Count: counts[cat]})
		}
	}
	return out
}

// Get finds a note by id
func (c *Controller) Get(userID int64, id string) (models.Note, error) {
	for _, n := range c.List(userID) {
		if n.ID == id {
			return n, nil
		}
	}
	return models.Note{}, ErrNotFound
}

// Delete removes a note by id
func (c *Controller) Delete(userID int64, id string) error {
	found := false
	c.notes.Update(userID, func(cur []models.Note, exists bool) ([]models.Note, bool) {
		out := make([]models.Note, 0, len(cur))
		for _, n := range cur {
			if n.ID == id {
				found = true
				continue
			}
			out = append(out, n)
		}
		return out, len(out) > 0
	})
	if !found {
		return ErrNotFound
	}
	return nil
}

// Reset drops a draft when the user leaves the feature
func (c *Controller) Reset(userID int64) {
	c.drafts.Delete(userID)
}

// Sweep evicts abandoned drafts
func (c *Controller) Sweep() int {
	return c.drafts.Sweep()
}

// Preview shortens a note to n characters, adding an ellipsis when cut
func Preview(content string, n int) string {
	if utf8.RuneCountInString(content) <= n {
		return content
	}
	return string([]rune(content)[:n]) + "..."
}

// Format renders notes grouped by category
func Format(list []models.Note) string {
	if len(list) == 0 {
		return "You have no notes yet!"
	}
	var b strings.Builder
	b.WriteString("📝 Your Notes:\n")
	for _, cat := range models.NoteCategories {
		i := 0
		for _, n := range list {
			if n.Category != cat {
				continue
			}
			if i == 0 {
				fmt.Fprintf(&b, "\n%s:\n", strings.ToUpper(string(cat)))
			}
			i++
			fmt.Fprintf(&b, "%d. [%s] %s\n", i, n.LastModified.Format("02.01.06 15:04"), Preview(n.Content, PreviewLength))
		}
	}
	return b.String()
}
