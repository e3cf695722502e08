package notes

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/studybot/pkg/models"
	"go.uber.org/zap"
)

func newTestController() *Controller {
	c := NewController(zap.NewNop(), time.Hour)
	c.now = func() time.Time { return time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC) }
	return c
}

func save(t *testing.T, c *Controller, user int64, category, text string) models.Note {
	t.Helper()
	c.BeginNew(user)
	if err := c.ChooseCategory(user, category); err != nil {
		t.Fatalf("ChooseCategory() error = %v", err)
	}
	n, err := c.HandleText(user, text)
	if err != nil {
		t.Fatalf("HandleText() error = %v", err)
	}
	return *n
}

func TestCreateNote(t *testing.T) {
	c := newTestController()
	c.BeginNew(1)
	if c.State(1) != StateChoosingCategory || c.AwaitingInput(1) {
		t.Fatalf("state = %v", c.State(1))
	}
	if err := c.ChooseCategory(1, "hobbies"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("ChooseCategory(hobbies) error = %v", err)
	}
	if err := c.ChooseCategory(1, "Ideas"); err != nil {
		t.Fatalf("ChooseCategory() error = %v", err)
	}
	if !c.AwaitingInput(1) {
		t.Fatal("not awaiting content")
	}
	if _, err := c.HandleText(1, "  "); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("HandleText(blank) error = %v", err)
	}
	n, err := c.HandleText(1, "build a bot")
	if err != nil {
		t.Fatalf("HandleText() error = %v", err)
	}
	if n.Category != models.NoteIdeas || n.Content != "build a bot" || n.ID == "" {
		t.Fatalf("note = %+v", n)
	}
	if c.State(1) != StateIdle {
		t.Fatalf("state = %v", c.State(1))
	}
}

func TestChooseCategoryWhenIdle(t *testing.T) {
	c := newTestController()
	if err := c.ChooseCategory(2, "work"); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("ChooseCategory() error = %v", err)
	}
	if _, err := c.HandleText(2, "text"); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("HandleText() error = %v", err)
	}
}

func TestCategoriesAndDelete(t *testing.T) {
	c := newTestController()
	w1 := save(t, c, 3, "work", "standup notes")
	save(t, c, 3, "goals", "run 10k")
	save(t, c, 3, "work", "retro")

	cats := c.Categories(3)
	if len(cats) != 2 || cats[0] != (CategoryCount{models.NoteWork, 2}) || cats[1] != (CategoryCount{models.NoteGoals, 1}) {
		t.Fatalf("Categories() = %+v", cats)
	}
	if got := c.ByCategory(3, models.NoteWork); len(got) != 2 || got[1].Content != "retro" {
		t.Fatalf("ByCategory() = %+v", got)
	}

	got, err := c.Get(3, w1.ID)
	if err != nil || got.Content != "standup notes" {
		t.Fatalf("Get() = %+v, %v", got, err)
	}
	if err := c.Delete(3, w1.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := c.Get(3, w1.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() after delete error = %v", err)
	}
	if err := c.Delete(3, w1.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete() error = %v", err)
	}
	if len(c.List(3)) != 2 {
		t.Fatalf("List() = %+v", c.List(3))
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 40, "short"},
		{strings.Repeat("a", 45), 40, strings.Repeat("a", 40) + "..."},
		{"привіт світ", 6, "привіт..."},
	}
	for _, tt := range tests {
		if got := Preview(tt.in, tt.n); got != tt.want {
			t.Errorf("Preview(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestFormatGroupsByCategory(t *testing.T) {
	c := newTestController()
	save(t, c, 4, "tasks", "buy milk")
	save(t, c, 4, "study", "read chapter 3")

	out := Format(c.List(4))
	study := strings.Index(out, "STUDY:")
	tasks := strings.Index(out, "TASKS:")
	if study == -1 || tasks == -1 || study > tasks {
		t.Fatalf("Format() = %q", out)
	}
	if !strings.Contains(out, "1. [04.03.26 09:30] read chapter 3") {
		t.Fatalf("Format() = %q", out)
	}
	if Format(nil) != "You have no notes yet!" {
		t.Fatalf("Format(nil) = %q", Format(nil))
	}
}
