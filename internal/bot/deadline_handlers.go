package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/studybot/internal/deadlines"
)

func deadlinesMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "➕ Add New Deadline", CallbackData: callbackDeadline + "add"}},
		{{Text: "📋 View All Deadlines", CallbackData: callbackDeadline + "view_all"}},
		{{Text: "❌ Delete Deadline", CallbackData: callbackDeadline + "delete_select"}},
		backToMainMenuButton(),
	}
}

func cancelDeadlineButtons() [][]MenuButton {
	return [][]MenuButton{{{Text: "« Cancel", CallbackData: callbackDeadline + "cancel_input"}}}
}

func (b *Bot) showDeadlinesMenu(s screen, text string) error {
	return b.show(s, text, deadlinesMenuButtons())
}

func (b *Bot) handleDeadlineAction(userID int64, s screen, action string) error {
	switch action {
	case "add":
		b.deadlines.BeginAdd(userID)
		return b.show(s, "Please enter the title for your new deadline:", cancelDeadlineButtons())

	case "view_all":
		return b.showDeadlinesMenu(s, deadlines.Format(b.deadlines.List(userID)))

	case "delete_select":
		list := b.deadlines.BeginDelete(userID)
		if len(list) == 0 {
			return b.showDeadlinesMenu(s, "You have no deadlines to delete.")
		}
		var rows [][]MenuButton
		for i, d := range list {
			rows = append(rows, []MenuButton{{
				Text:         fmt.Sprintf("%d. %s (%s)", i+1, d.Title, d.DateString()),
				CallbackData: fmt.Sprintf("%sdelete_confirm_%d", callbackDeadline, i),
			}})
		}
		rows = append(rows, []MenuButton{{Text: "« Cancel Deletion", CallbackData: callbackDeadline + "cancel_input"}})
		return b.show(s, "Select a deadline to delete:", rows)

	case "cancel_input":
		b.deadlines.Cancel(userID)
		return b.showDeadlinesMenu(s, "Action cancelled. 📅 Deadlines Menu:")
	}

	if strings.HasPrefix(action, "delete_confirm_") {
		idx, err := strconv.Atoi(strings.TrimPrefix(action, "delete_confirm_"))
		if err != nil {
			return b.showDeadlinesMenu(s, "❌ Invalid selection for deletion.")
		}
		removed, err := b.deadlines.Delete(userID, idx)
		if err != nil {
			return b.showDeadlinesMenu(s, "❌ Invalid selection for deletion.")
		}
		return b.showDeadlinesMenu(s, fmt.Sprintf("✅ Deadline %q deleted successfully.", removed.Title))
	}

	return b.showDeadlinesMenu(s, "⚠️ Unknown action")
}

func (b *Bot) handleDeadlineText(userID, chatID int64, text string) error {
	added, err := b.deadlines.HandleText(userID, text)
	switch {
	case errors.Is(err, deadlines.ErrEmptyField) && b.deadlines.State(userID) == deadlines.StateAwaitingTitle:
		return b.reply(chatID, "Title cannot be empty. Please try again or cancel.", cancelDeadlineButtons())
	case errors.Is(err, deadlines.ErrEmptyField), errors.Is(err, deadlines.ErrInvalidDate):
		return b.reply(chatID, "Invalid date format. Please use YYYY-MM-DD (e.g., 2024-12-31) or cancel.", cancelDeadlineButtons())
	case err != nil:
		return b.showDeadlinesMenu(screen{chatID: chatID}, "Something went wrong. Please start again.")
	}

	if added == nil {
		return b.reply(chatID, "Please enter the deadline date in YYYY-MM-DD format (e.g., 2024-12-31):", cancelDeadlineButtons())
	}
	return b.showDeadlinesMenu(screen{chatID: chatID},
		fmt.Sprintf("✅ Deadline %q for %s added successfully!", added.Title, added.DateString()))
}
