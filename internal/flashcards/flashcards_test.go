package flashcards

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func create(t *testing.T, c *Controller, user int64, q, a string) {
	t.Helper()
	c.BeginCreate(user)
	if _, err := c.HandleText(user, q); err != nil {
		t.Fatalf("HandleText(question) error = %v", err)
	}
	card, err := c.HandleText(user, a)
	if err != nil {
		t.Fatalf("HandleText(answer) error = %v", err)
	}
	if card.Question != q || card.Answer != a {
		t.Fatalf("card = %+v", card)
	}
}

func TestCreateCard(t *testing.T) {
	c := NewController(zap.NewNop(), time.Hour)
	c.BeginCreate(1)
	if !c.AwaitingInput(1) || c.State(1) != StateAwaitingQuestion {
		t.Fatalf("state = %v", c.State(1))
	}
	if _, err := c.HandleText(1, " "); !errors.Is(err, ErrEmptyField) {
		t.Fatalf("HandleText(blank) error = %v", err)
	}
	if c.State(1) != StateAwaitingQuestion {
		t.Fatalf("state changed on invalid input: %v", c.State(1))
	}
	c.HandleText(1, "capital of France?")
	if _, err := c.HandleText(1, ""); !errors.Is(err, ErrEmptyField) {
		t.Fatalf("HandleText(blank answer) error = %v", err)
	}
	card, err := c.HandleText(1, "Paris")
	if err != nil || card == nil || card.ID == "" {
		t.Fatalf("HandleText(answer) = %+v, %v", card, err)
	}
	if c.State(1) != StateIdle {
		t.Fatalf("state = %v", c.State(1))
	}
	if _, err := c.HandleText(1, "stray"); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("HandleText() when idle error = %v", err)
	}
}

func TestStudyWrapsAround(t *testing.T) {
	c := NewController(zap.NewNop(), time.Hour)
	create(t, c, 2, "q1", "a1")
	create(t, c, 2, "q2", "a2")

	card, err := c.StartStudy(2)
	if err != nil || card.Question != "q1" || card.Position != 1 || card.Total != 2 {
		t.Fatalf("StartStudy() = %+v, %v", card, err)
	}
	if _, err := c.NextCard(2); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("NextCard() before ShowAnswer error = %v", err)
	}

	card, err = c.ShowAnswer(2)
	if err != nil || card.Answer != "a1" {
		t.Fatalf("ShowAnswer() = %+v, %v", card, err)
	}
	card, _ = c.NextCard(2)
	if card.Question != "q2" {
		t.Fatalf("NextCard() = %+v", card)
	}
	c.ShowAnswer(2)
	card, _ = c.NextCard(2)
	if card.Question != "q1" || card.Position != 1 {
		t.Fatalf("NextCard() did not wrap: %+v", card)
	}

	c.FinishStudy(2)
	if c.State(2) != StateIdle {
		t.Fatalf("state after FinishStudy = %v", c.State(2))
	}
}

func TestStudyWithoutCards(t *testing.T) {
	c := NewController(zap.NewNop(), time.Hour)
	if _, err := c.StartStudy(3); !errors.Is(err, ErrNoCards) {
		t.Fatalf("StartStudy() error = %v", err)
	}
	if c.State(3) != StateIdle {
		t.Fatalf("state = %v", c.State(3))
	}
}

func TestDeleteCard(t *testing.T) {
	c := NewController(zap.NewNop(), time.Hour)
	create(t, c, 4, "q1", "a1")
	create(t, c, 4, "q2", "a2")
	create(t, c, 4, "q3", "a3")

	removed, err := c.Delete(4, 1)
	if err != nil || removed.Question != "q2" {
		t.Fatalf("Delete() = %+v, %v", removed, err)
	}
	list := c.List(4)
	if len(list) != 2 || list[0].Question != "q1" || list[1].Question != "q3" {
		t.Fatalf("List() = %+v", list)
	}
	if _, err := c.Delete(4, 2); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("Delete(out of range) error = %v", err)
	}
}

func TestDeleteKeepsCardInProgress(t *testing.T) {
	c := NewController(zap.NewNop(), time.Hour)
	create(t, c, 6, "q1", "a1")
	create(t, c, 6, "q2", "a2")

	c.BeginCreate(6)
	c.HandleText(6, "q3")
	if _, err := c.Delete(6, 0); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if c.State(6) != StateAwaitingAnswer {
		t.Fatalf("state after Delete = %v, want awaiting_answer", c.State(6))
	}
	card, err := c.HandleText(6, "a3")
	if err != nil || card.Question != "q3" {
		t.Fatalf("HandleText(answer) = %+v, %v", card, err)
	}

	c.StartStudy(6)
	if _, err := c.Delete(6, 0); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if c.State(6) != StateIdle {
		t.Fatalf("state after Delete while studying = %v, want idle", c.State(6))
	}
}

func TestResetDuringCreation(t *testing.T) {
	c := NewController(zap.NewNop(), time.Hour)
	c.BeginCreate(5)
	c.HandleText(5, "half done")
	c.Reset(5)
	if c.AwaitingInput(5) || len(c.List(5)) != 0 {
		t.Fatal("Reset left creation in progress")
	}
}
