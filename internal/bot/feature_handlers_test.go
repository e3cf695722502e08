package bot

import (
	"strings"
	"testing"

	"github.com/example/studybot/internal/motivation"
	"github.com/example/studybot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestDeadlineFlow(t *testing.T) {
	env := newTestEnv(t)

	env.press(t, callbackMenuDeadlines)
	env.press(t, "dl_action_add")
	if got := env.api.lastText(); got != "Please enter the title for your new deadline:" {
		t.Fatalf("prompt = %q", got)
	}

	steps := []struct {
		input string
		want  string
	}{
		{"   ", "Title cannot be empty"},
		{"Exam", "Please enter the deadline date"},
		{"31-12-2024", "Invalid date format"},
		{"2024-12-31", `✅ Deadline "Exam" for 2024-12-31 added successfully!`},
	}
	for _, step := range steps {
		env.say(t, step.input)
		if got := env.api.lastText(); !strings.Contains(got, step.want) {
			t.Fatalf("after %q reply = %q, want %q", step.input, got, step.want)
		}
	}
	if env.deadlines.AwaitingInput(testUser) {
		t.Fatal("still awaiting input after the deadline was added")
	}

	env.press(t, "dl_action_add")
	env.say(t, "Essay")
	env.say(t, "2025-01-15")

	env.press(t, "dl_action_view_all")
	got := env.api.lastText()
	if !strings.Contains(got, "1. Exam (2024-12-31)") || !strings.Contains(got, "2. Essay (2025-01-15)") {
		t.Fatalf("list = %q", got)
	}

	env.press(t, "dl_action_delete_select")
	if !hasButton(env.api.last(), "dl_action_delete_confirm_1") {
		t.Fatalf("delete buttons = %v", buttons(env.api.last()))
	}
	env.press(t, "dl_action_delete_confirm_0")
	if got := env.api.lastText(); got != `✅ Deadline "Exam" deleted successfully.` {
		t.Fatalf("delete reply = %q", got)
	}
	list := env.deadlines.List(testUser)
	if len(list) != 1 || list[0].Title != "Essay" {
		t.Fatalf("List() = %+v", list)
	}

	env.press(t, "dl_action_delete_confirm_5")
	if got := env.api.lastText(); !strings.Contains(got, "Invalid selection") {
		t.Fatalf("out of range reply = %q", got)
	}
}

func TestDeadlineCancel(t *testing.T) {
	env := newTestEnv(t)
	env.press(t, "dl_action_add")
	env.press(t, "dl_action_cancel_input")

	if env.deadlines.AwaitingInput(testUser) {
		t.Fatal("cancel should drop the input")
	}
	env.say(t, "Exam")
	if got := env.api.lastText(); !strings.Contains(got, "I don't understand") {
		t.Fatalf("text after cancel = %q", got)
	}
}

func TestDeleteWithoutDeadlines(t *testing.T) {
	env := newTestEnv(t)
	env.press(t, "dl_action_delete_select")

	if got := env.api.lastText(); got != "You have no deadlines to delete." {
		t.Fatalf("reply = %q", got)
	}
}

func TestFlashcardFlow(t *testing.T) {
	env := newTestEnv(t)

	env.press(t, callbackMenuCards)
	if hasButton(env.api.last(), "fc_action_study_start") {
		t.Fatal("study button shown without cards")
	}

	env.press(t, "fc_action_create_start")
	env.say(t, "Capital of France?")
	if got := env.api.lastText(); got != "Now enter the answer:" {
		t.Fatalf("reply = %q", got)
	}
	env.say(t, " ")
	if got := env.api.lastText(); !strings.Contains(got, "Answer cannot be empty") {
		t.Fatalf("reply = %q", got)
	}
	env.say(t, "Paris")
	if got := env.api.lastText(); !strings.Contains(got, "✅ Flashcard created!") {
		t.Fatalf("reply = %q", got)
	}
	if !hasButton(env.api.last(), "fc_action_study_start") {
		t.Fatalf("menu buttons = %v", buttons(env.api.last()))
	}

	env.press(t, "fc_action_study_start")
	if got := env.api.lastText(); got != "Card 1/1\n\n❓ Capital of France?" {
		t.Fatalf("card = %q", got)
	}
	env.press(t, "fc_action_study_show_answer")
	if got := env.api.lastText(); !strings.Contains(got, "💡 Paris") {
		t.Fatalf("revealed card = %q", got)
	}
	if !hasButton(env.api.last(), "fc_action_study_next_card") {
		t.Fatalf("study buttons = %v", buttons(env.api.last()))
	}
	env.press(t, "fc_action_study_next_card")
	if got := env.api.lastText(); strings.Contains(got, "Paris") {
		t.Fatalf("next card should hide the answer: %q", got)
	}
	env.press(t, "fc_action_study_finish")
	if got := env.api.lastText(); !strings.HasPrefix(got, "Study session finished.") {
		t.Fatalf("reply = %q", got)
	}

	env.press(t, "fc_action_delete_confirm_0")
	if got := env.api.lastText(); got != `✅ Card "Capital of France?" deleted.` {
		t.Fatalf("delete reply = %q", got)
	}
	if len(env.flashcards.List(testUser)) != 0 {
		t.Fatal("card was not deleted")
	}
}

func TestStudyWithoutCards(t *testing.T) {
	env := newTestEnv(t)
	env.press(t, "fc_action_study_start")

	if got := env.api.lastText(); got != "You have no cards to study. Create some first!" {
		t.Fatalf("reply = %q", got)
	}
}

func TestNoteFlow(t *testing.T) {
	env := newTestEnv(t)

	env.press(t, callbackMenuNotes)
	env.press(t, "note_new")
	for _, c := range models.NoteCategories {
		if !hasButton(env.api.last(), "note_cat_"+string(c)) {
			t.Fatalf("category buttons = %v", buttons(env.api.last()))
		}
	}

	env.press(t, "note_cat_study")
	if got := env.api.lastText(); got != "Enter your note text:" {
		t.Fatalf("prompt = %q", got)
	}
	env.say(t, "Revise chapter 3")
	if got := env.api.lastText(); got != "✅ Note saved successfully!" {
		t.Fatalf("reply = %q", got)
	}

	list := env.notes.List(testUser)
	if len(list) != 1 || list[0].Category != models.NoteStudy {
		t.Fatalf("List() = %+v", list)
	}
	id := list[0].ID

	env.press(t, "note_view_all")
	if !strings.Contains(env.api.lastText(), "Revise chapter 3") || !hasButton(env.api.last(), "note_view_"+id) {
		t.Fatalf("view all = %q %v", env.api.lastText(), buttons(env.api.last()))
	}

	env.press(t, "note_view_categories")
	if !hasButton(env.api.last(), "note_list_study") {
		t.Fatalf("category buttons = %v", buttons(env.api.last()))
	}
	env.press(t, "note_list_study")
	if got := env.api.lastText(); got != "📂 Study notes:" {
		t.Fatalf("category list = %q", got)
	}

	env.press(t, "note_view_"+id)
	if got := env.api.lastText(); !strings.HasPrefix(got, "📝 Study note") || !strings.HasSuffix(got, "Revise chapter 3") {
		t.Fatalf("note view = %q", got)
	}
	env.press(t, "note_delete_"+id)
	if got := env.api.lastText(); got != "✅ Note deleted successfully!" {
		t.Fatalf("delete reply = %q", got)
	}
	env.press(t, "note_view_"+id)
	if got := env.api.lastText(); got != "Note not found." {
		t.Fatalf("deleted note view = %q", got)
	}
}

func TestNoteCategoryWithoutNewNote(t *testing.T) {
	env := newTestEnv(t)
	env.press(t, "note_cat_work")

	if got := env.api.lastText(); got != "Please start a new note again." {
		t.Fatalf("reply = %q", got)
	}
}

func TestMotivationSubscription(t *testing.T) {
	env := newTestEnv(t)

	env.say(t, "/motivation")
	for _, l := range motivation.Languages {
		if !hasButton(env.api.last(), "m_lang_"+string(l)) {
			t.Fatalf("language buttons = %v", buttons(env.api.last()))
		}
	}

	env.press(t, "m_lang_en")
	if !hasButton(env.api.last(), "m_freq_once_en") {
		t.Fatalf("frequency buttons = %v", buttons(env.api.last()))
	}

	env.press(t, "m_freq_once_en")
	sub, ok := env.motivation.Subscription(testUser)
	if !ok || sub.Language != motivation.English || sub.Frequency != motivation.OnceADay || sub.ChatID != testUser {
		t.Fatalf("Subscription() = %+v, %v", sub, ok)
	}
	if sub.LastSent.IsZero() {
		t.Fatal("first message should be marked as sent")
	}

	got := env.api.lastText()
	if !strings.Contains(got, "ENGLISH") || !strings.Contains(got, "Keep going!") {
		t.Fatalf("confirmation = %q", got)
	}
	var deleted bool
	for _, r := range env.api.requests {
		if _, ok := r.(tgbotapi.DeleteMessageConfig); ok {
			deleted = true
		}
	}
	if !deleted {
		t.Error("frequency menu was not deleted")
	}

	env.press(t, callbackMotivation)
	if got := env.api.lastText(); !strings.Contains(got, "already subscribed") {
		t.Fatalf("second start = %q", got)
	}

	env.press(t, "m_action_unsubscribe")
	if env.motivation.IsSubscribed(testUser) {
		t.Fatal("still subscribed after unsubscribe")
	}
}

func TestMotivationBadChoice(t *testing.T) {
	env := newTestEnv(t)
	env.press(t, "m_freq_hourly_en")

	if got := env.api.lastText(); !strings.HasPrefix(got, "Error: Could not determine settings") {
		t.Fatalf("reply = %q", got)
	}
	if env.motivation.IsSubscribed(testUser) {
		t.Fatal("bad choice should not subscribe")
	}
}

func TestParseFrequencyChoice(t *testing.T) {
	tests := []struct {
		in       string
		wantFreq motivation.Frequency
		wantLang motivation.Language
		wantErr  bool
	}{
		{in: "once_en", wantFreq: motivation.OnceADay, wantLang: motivation.English},
		{in: "once", wantErr: true},
		{in: "once_xx", wantErr: true},
		{in: "never_en", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			freq, lang, err := parseFrequencyChoice(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFrequencyChoice() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (freq != tt.wantFreq || lang != tt.wantLang) {
				t.Fatalf("parseFrequencyChoice() = %q, %q", freq, lang)
			}
		})
	}
}
