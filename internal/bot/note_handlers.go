package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/studybot/internal/notes"
	"github.com/example/studybot/pkg/models"
)

func notesMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "📝 New Note", CallbackData: callbackNote + "new"}},
		{{Text: "📋 View All Notes", CallbackData: callbackNote + "view_all"}},
		{{Text: "📂 View by Category", CallbackData: callbackNote + "view_categories"}},
		backToMainMenuButton(),
	}
}

func (b *Bot) showNotesMenu(s screen, text string) error {
	return b.show(s, text, notesMenuButtons())
}

func categoryTitle(c models.NoteCategory) string {
	name := string(c)
	return strings.ToUpper(name[:1]) + name[1:]
}

func noteButtons(list []models.Note) [][]MenuButton {
	var rows [][]MenuButton
	for i, n := range list {
		rows = append(rows, []MenuButton{{
			Text:         fmt.Sprintf("%d. %s", i+1, notes.Preview(n.Content, notes.PreviewLength)),
			CallbackData: callbackNote + "view_" + n.ID,
		}})
	}
	return rows
}

func (b *Bot) handleNoteAction(userID int64, s screen, action string) error {
	switch action {
	case "new":
		b.notes.BeginNew(userID)
		var rows [][]MenuButton
		for i := 0; i < len(models.NoteCategories); i += 2 {
			row := []MenuButton{}
			for _, c := range models.NoteCategories[i:min(i+2, len(models.NoteCategories))] {
				row = append(row, MenuButton{Text: categoryTitle(c), CallbackData: callbackNote + "cat_" + string(c)})
			}
			rows = append(rows, row)
		}
		rows = append(rows, []MenuButton{{Text: "« Cancel", CallbackData: callbackNote + "cancel"}})
		return b.show(s, "Select note category:", rows)

	case "cancel":
		b.notes.Cancel(userID)
		return b.showNotesMenu(s, "Note cancelled. 📝 Notes Management:")

	case "view_all":
		list := b.notes.List(userID)
		if len(list) == 0 {
			return b.showNotesMenu(s, "You have no notes yet!")
		}
		rows := append(noteButtons(list), backToMainMenuButton())
		return b.show(s, notes.Format(list)+"\nSelect a note to view:", rows)

	case "view_categories":
		counts := b.notes.Categories(userID)
		if len(counts) == 0 {
			return b.showNotesMenu(s, "You have no notes yet!")
		}
		var rows [][]MenuButton
		for _, c := range counts {
			rows = append(rows, []MenuButton{{
				Text:         fmt.Sprintf("%s (%d)", categoryTitle(c.Category), c.Count),
				CallbackData: callbackNote + "list_" + string(c.Category),
			}})
		}
		rows = append(rows, []MenuButton{{Text: "« Back to Notes", CallbackData: callbackMenuNotes}})
		return b.show(s, "📂 Select a category:", rows)
	}

	switch {
	case strings.HasPrefix(action, "cat_"):
		if err := b.notes.ChooseCategory(userID, strings.TrimPrefix(action, "cat_")); err != nil {
			return b.showNotesMenu(s, "Please start a new note again.")
		}
		return b.show(s, "Enter your note text:", [][]MenuButton{{{Text: "« Cancel", CallbackData: callbackNote + "cancel"}}})

	case strings.HasPrefix(action, "list_"):
		category, err := notes.ParseCategory(strings.TrimPrefix(action, "list_"))
		if err != nil {
			return b.showNotesMenu(s, "Unknown category.")
		}
		list := b.notes.ByCategory(userID, category)
		if len(list) == 0 {
			return b.showNotesMenu(s, fmt.Sprintf("No notes in %s.", categoryTitle(category)))
		}
		rows := append(noteButtons(list), []MenuButton{{Text: "« Back to Categories", CallbackData: callbackNote + "view_categories"}})
		return b.show(s, fmt.Sprintf("📂 %s notes:", categoryTitle(category)), rows)

	case strings.HasPrefix(action, "view_"):
		note, err := b.notes.Get(userID, strings.TrimPrefix(action, "view_"))
		if errors.Is(err, notes.ErrNotFound) {
			return b.showNotesMenu(s, "Note not found.")
		}
		text := fmt.Sprintf("📝 %s note\nCreated: %s\n\n%s",
			categoryTitle(note.Category), note.Created.Format("02.01.2006 15:04"), note.Content)
		return b.show(s, text, [][]MenuButton{
			{{Text: "🗑️ Delete", CallbackData: callbackNote + "delete_" + note.ID}},
			{{Text: "« Back to Notes", CallbackData: callbackNote + "view_all"}},
		})

	case strings.HasPrefix(action, "delete_"):
		if err := b.notes.Delete(userID, strings.TrimPrefix(action, "delete_")); err != nil {
			return b.showNotesMenu(s, "Note not found.")
		}
		return b.showNotesMenu(s, "✅ Note deleted successfully!")
	}

	return b.showNotesMenu(s, "⚠️ Unknown action")
}

func (b *Bot) handleNoteText(userID, chatID int64, text string) error {
	_, err := b.notes.HandleText(userID, text)
	switch {
	case errors.Is(err, notes.ErrEmptyContent):
		return b.reply(chatID, "Note cannot be empty. Please enter your note text:", [][]MenuButton{
			{{Text: "« Cancel", CallbackData: callbackNote + "cancel"}},
		})
	case err != nil:
		return b.showNotesMenu(screen{chatID: chatID}, "Something went wrong. Please try again.")
	}
	return b.showNotesMenu(screen{chatID: chatID}, "✅ Note saved successfully!")
}
