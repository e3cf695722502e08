package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/studybot/internal/quiz"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Constants for callback data
const (
	callbackShowMainMenu   = "nav_show_main_menu"
	callbackBackToMainMenu = "nav_back_to_main_menu"

	callbackEnglish       = "english_improvement"
	callbackEnglishFocus  = "english_"
	callbackLevel         = "level_"
	callbackSubcategory   = "eng_subcat_"
	callbackCount         = "eng_count_"
	callbackAnswerChoice  = "ans_choice_"
	callbackAnswerTF      = "ans_tf_"
	callbackFinishTest    = "eng_finish"
	callbackShowResults   = "eng_results"
	callbackMenuDeadlines = "menu_deadlines"
	callbackDeadline      = "dl_action_"
	callbackMenuCards     = "menu_flashcards"
	callbackCard          = "fc_action_"
	callbackMenuNotes     = "menu_notes"
	callbackNote          = "note_"
	callbackMotivation    = "menu_motivation_start"
	callbackMotivLang     = "m_lang_"
	callbackMotivFreq     = "m_freq_"
	callbackMotivAction   = "m_action_"
	callbackMenuGIFs      = "menu_gifs"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

func backToMainMenuButton() []MenuButton {
	return []MenuButton{{Text: "« Back to Main Menu", CallbackData: callbackBackToMainMenu}}
}

// MainMenuButtons returns the buttons for the main menu
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "📅 Deadlines", CallbackData: callbackMenuDeadlines}},
		{{Text: "🇬🇧 English Improvement", CallbackData: callbackEnglish}},
		{{Text: "🎯 Flashcards", CallbackData: callbackMenuCards}},
		{{Text: "📝 Notes", CallbackData: callbackMenuNotes}},
		{{Text: "🚀 Motivation", CallbackData: callbackMotivation}},
		{{Text: "😂 GIFs", CallbackData: callbackMenuGIFs}},
	}
}

const mainMenuText = "👋 Welcome to the Main Menu! Please choose an option:"

// showMainMenu resets every feature for the user and draws the main menu
func (b *Bot) showMainMenu(userID int64, s screen) error {
	b.ResetUser(userID)
	return b.show(s, mainMenuText, b.MainMenuButtons())
}

// ResetUser drops the in-progress state of every feature for the user
func (b *Bot) ResetUser(userID int64) {
	b.log.Debug("resetting feature states", zap.Int64("user_id", userID))
	for _, r := range b.resetters {
		r.Reset(userID)
	}
}

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	chat := screen{chatID: message.Chat.ID}
	switch message.Command() {
	case "start", "menu":
		return b.showMainMenu(message.From.ID, chat)
	case "motivation":
		return b.handleMotivationStart(message.From.ID, chat)
	case "results":
		return b.handleResults(ctx, message.From.ID, chat)
	case "import":
		if !b.config.IsAdmin(message.From.ID) {
			return b.reply(message.Chat.ID, "This command is only available for administrators.", nil)
		}
		return b.reply(message.Chat.ID, "Send the question file (.json, .csv or .xlsx) with /import as the caption.", nil)
	default:
		return b.reply(message.Chat.ID, "Unknown command. Use /menu to show the main menu.", [][]MenuButton{
			{{Text: "🏠 Main Menu", CallbackData: callbackShowMainMenu}},
		})
	}
}

// HandleCallback handles inline button presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback == nil || callback.Message == nil || callback.From == nil {
		return fmt.Errorf("invalid callback data: required fields are missing")
	}

	// Always send an answer to the callback query to remove the loading state
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Warn("failed to answer callback", zap.Error(err))
	}

	userID := callback.From.ID
	s := screen{chatID: callback.Message.Chat.ID, messageID: callback.Message.MessageID}
	data := callback.Data

	switch {
	case data == callbackShowMainMenu || data == callbackBackToMainMenu:
		return b.showMainMenu(userID, s)

	case data == callbackEnglish:
		return b.handleEnglishStart(userID, s)
	case data == callbackFinishTest:
		return b.handleFinishTest(ctx, userID, s.chatID)
	case data == callbackShowResults:
		return b.handleResults(ctx, userID, screen{chatID: s.chatID})
	case strings.HasPrefix(data, callbackEnglishFocus):
		return b.handleFocus(userID, s, strings.TrimPrefix(data, callbackEnglishFocus))
	case strings.HasPrefix(data, callbackLevel):
		return b.handleLevel(userID, s, strings.TrimPrefix(data, callbackLevel))
	case strings.HasPrefix(data, callbackSubcategory):
		return b.handleSubcategory(userID, s, strings.TrimPrefix(data, callbackSubcategory))
	case strings.HasPrefix(data, callbackCount):
		n, err := strconv.Atoi(strings.TrimPrefix(data, callbackCount))
		if err != nil {
			return fmt.Errorf("invalid question count in callback data: %w", err)
		}
		return b.handleCount(ctx, userID, s, n)
	case strings.HasPrefix(data, callbackAnswerChoice):
		pos, value, err := parseAnswerData(strings.TrimPrefix(data, callbackAnswerChoice))
		if err != nil {
			return err
		}
		idx, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid answer index in callback data: %w", err)
		}
		return b.handleChoiceAnswer(ctx, userID, s, pos, idx)
	case strings.HasPrefix(data, callbackAnswerTF):
		pos, value, err := parseAnswerData(strings.TrimPrefix(data, callbackAnswerTF))
		if err != nil {
			return err
		}
		return b.handleTrueFalseAnswer(ctx, userID, s, pos, value)

	case data == callbackMenuDeadlines:
		return b.showDeadlinesMenu(s, "📅 Deadlines Menu:")
	case strings.HasPrefix(data, callbackDeadline):
		return b.handleDeadlineAction(userID, s, strings.TrimPrefix(data, callbackDeadline))

	case data == callbackMenuCards:
		return b.showFlashcardsMenu(userID, s, "🎯 Flashcards Menu:")
	case strings.HasPrefix(data, callbackCard):
		return b.handleFlashcardAction(userID, s, strings.TrimPrefix(data, callbackCard))

	case data == callbackMenuNotes:
		return b.showNotesMenu(s, "📝 Notes Management:")
	case strings.HasPrefix(data, callbackNote):
		return b.handleNoteAction(userID, s, strings.TrimPrefix(data, callbackNote))

	case data == callbackMotivation:
		return b.handleMotivationStart(userID, s)
	case strings.HasPrefix(data, callbackMotivLang):
		return b.handleMotivationLanguage(s, strings.TrimPrefix(data, callbackMotivLang))
	case strings.HasPrefix(data, callbackMotivFreq):
		return b.handleMotivationFrequency(ctx, userID, s, strings.TrimPrefix(data, callbackMotivFreq))
	case strings.HasPrefix(data, callbackMotivAction):
		return b.handleMotivationAction(userID, s, strings.TrimPrefix(data, callbackMotivAction))

	case data == callbackMenuGIFs:
		return b.showGIFsMenu(s)
	}

	return b.reply(s.chatID, "⚠️ Unknown action", [][]MenuButton{backToMainMenuButton()})
}

// handleText routes free text to the feature that is waiting for input
func (b *Bot) handleText(ctx context.Context, message *tgbotapi.Message) error {
	userID := message.From.ID
	chatID := message.Chat.ID
	text := message.Text

	switch {
	case b.deadlines != nil && b.deadlines.AwaitingInput(userID):
		return b.handleDeadlineText(userID, chatID, text)
	case b.flashcards != nil && b.flashcards.AwaitingInput(userID):
		return b.handleFlashcardText(userID, chatID, text)
	case b.notes != nil && b.notes.AwaitingInput(userID):
		return b.handleNoteText(userID, chatID, text)
	case b.quiz != nil && b.quiz.State(userID) == quiz.StateTakingTest:
		return b.handleTextAnswer(ctx, userID, chatID, text)
	}
	return b.reply(chatID, "I don't understand. Use /menu to show the main menu.", [][]MenuButton{
		{{Text: "🏠 Main Menu", CallbackData: callbackShowMainMenu}},
	})
}
