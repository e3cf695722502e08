package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/studybot/internal/flashcards"
)

func (b *Bot) flashcardsMenuButtons(userID int64) [][]MenuButton {
	rows := [][]MenuButton{
		{{Text: "➕ Create New Card", CallbackData: callbackCard + "create_start"}},
	}
	if n := len(b.flashcards.List(userID)); n > 0 {
		rows = append(rows,
			[]MenuButton{{Text: fmt.Sprintf("📚 Study Cards (%d)", n), CallbackData: callbackCard + "study_start"}},
			[]MenuButton{{Text: fmt.Sprintf("👀 View My Cards (%d)", n), CallbackData: callbackCard + "view_all"}},
			[]MenuButton{{Text: "🗑 Delete Card", CallbackData: callbackCard + "delete_select"}},
		)
	}
	return append(rows, backToMainMenuButton())
}

func cancelCreationButtons() [][]MenuButton {
	return [][]MenuButton{{{Text: "« Cancel Creation", CallbackData: callbackCard + "cancel_creation"}}}
}

func studyButtons(revealed bool) [][]MenuButton {
	first := MenuButton{Text: "Show Answer", CallbackData: callbackCard + "study_show_answer"}
	if revealed {
		first = MenuButton{Text: "Next Card ➡️", CallbackData: callbackCard + "study_next_card"}
	}
	return [][]MenuButton{
		{first},
		{{Text: "⏹️ Finish Studying", CallbackData: callbackCard + "study_finish"}},
	}
}

func (b *Bot) showFlashcardsMenu(userID int64, s screen, text string) error {
	return b.show(s, text, b.flashcardsMenuButtons(userID))
}

func formatCard(card *flashcards.Card, revealed bool) string {
	text := fmt.Sprintf("Card %d/%d\n\n❓ %s", card.Position, card.Total, card.Question)
	if revealed {
		text += fmt.Sprintf("\n\n💡 %s", card.Answer)
	}
	return text
}

func (b *Bot) handleFlashcardAction(userID int64, s screen, action string) error {
	switch action {
	case "create_start":
		b.flashcards.BeginCreate(userID)
		return b.show(s, "Enter the question for your new flashcard:", cancelCreationButtons())

	case "cancel_creation":
		b.flashcards.Cancel(userID)
		return b.showFlashcardsMenu(userID, s, "Card creation cancelled. 🎯 Flashcards Menu:")

	case "study_start":
		card, err := b.flashcards.StartStudy(userID)
		if errors.Is(err, flashcards.ErrNoCards) {
			return b.showFlashcardsMenu(userID, s, "You have no cards to study. Create some first!")
		}
		if err != nil {
			return b.showFlashcardsMenu(userID, s, "Error in study session. Please restart.")
		}
		return b.show(s, formatCard(card, false), studyButtons(false))

	case "study_show_answer":
		card, err := b.flashcards.ShowAnswer(userID)
		if err != nil {
			return b.showFlashcardsMenu(userID, s, "Error showing answer. Returning to menu.")
		}
		return b.show(s, formatCard(card, true), studyButtons(true))

	case "study_next_card":
		card, err := b.flashcards.NextCard(userID)
		if err != nil {
			return b.showFlashcardsMenu(userID, s, "No more cards or error. Returning to menu.")
		}
		return b.show(s, formatCard(card, false), studyButtons(false))

	case "study_finish":
		b.flashcards.FinishStudy(userID)
		return b.showFlashcardsMenu(userID, s, "Study session finished. 🎯 Flashcards Menu:")

	case "view_all":
		cards := b.flashcards.List(userID)
		if len(cards) == 0 {
			return b.showFlashcardsMenu(userID, s, "You have no flashcards yet.")
		}
		var sb strings.Builder
		sb.WriteString("👀 Your flashcards:\n\n")
		for i, c := range cards {
			fmt.Fprintf(&sb, "%d. Q: %s\n   A: %s\n", i+1, c.Question, c.Answer)
		}
		return b.showFlashcardsMenu(userID, s, sb.String())

	case "delete_select":
		cards := b.flashcards.List(userID)
		if len(cards) == 0 {
			return b.showFlashcardsMenu(userID, s, "You have no cards to delete.")
		}
		var rows [][]MenuButton
		for i, c := range cards {
			rows = append(rows, []MenuButton{{
				Text:         fmt.Sprintf("%d. %s", i+1, c.Question),
				CallbackData: fmt.Sprintf("%sdelete_confirm_%d", callbackCard, i),
			}})
		}
		rows = append(rows, []MenuButton{{Text: "« Cancel", CallbackData: callbackMenuCards}})
		return b.show(s, "Select a card to delete:", rows)
	}

	if strings.HasPrefix(action, "delete_confirm_") {
		idx, err := strconv.Atoi(strings.TrimPrefix(action, "delete_confirm_"))
		if err != nil {
			return b.showFlashcardsMenu(userID, s, "❌ Invalid selection for deletion.")
		}
		removed, err := b.flashcards.Delete(userID, idx)
		if err != nil {
			return b.showFlashcardsMenu(userID, s, "❌ Invalid selection for deletion.")
		}
		return b.showFlashcardsMenu(userID, s, fmt.Sprintf("✅ Card %q deleted.", removed.Question))
	}

	return b.showFlashcardsMenu(userID, s, "⚠️ Unknown action")
}

func (b *Bot) handleFlashcardText(userID, chatID int64, text string) error {
	awaitingQuestion := b.flashcards.State(userID) == flashcards.StateAwaitingQuestion
	card, err := b.flashcards.HandleText(userID, text)
	switch {
	case errors.Is(err, flashcards.ErrEmptyField) && awaitingQuestion:
		return b.reply(chatID, "Question cannot be empty. Try again or cancel.", cancelCreationButtons())
	case errors.Is(err, flashcards.ErrEmptyField):
		return b.reply(chatID, "Answer cannot be empty. Try again or cancel.", cancelCreationButtons())
	case err != nil:
		return b.showFlashcardsMenu(userID, screen{chatID: chatID}, "Something went wrong. Please start again.")
	}

	if card == nil {
		return b.reply(chatID, "Now enter the answer:", cancelCreationButtons())
	}
	return b.showFlashcardsMenu(userID, screen{chatID: chatID},
		fmt.Sprintf("✅ Flashcard created!\nQ: %s\nA: %s", card.Question, card.Answer))
}
