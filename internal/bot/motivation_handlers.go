package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/studybot/internal/motivation"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func languageButtons() [][]MenuButton {
	var row []MenuButton
	for _, l := range motivation.Languages {
		row = append(row, MenuButton{Text: motivation.LanguageButton(l), CallbackData: callbackMotivLang + string(l)})
	}
	return [][]MenuButton{
		row,
		{{Text: "« Cancel", CallbackData: callbackMotivAction + "cancel"}},
	}
}

func (b *Bot) handleMotivationStart(userID int64, s screen) error {
	if sub, ok := b.motivation.Subscription(userID); ok {
		text := fmt.Sprintf("You are already subscribed (%s, %s). Do you want to unsubscribe?",
			motivation.LanguageName(sub.Language), motivation.FrequencyLabel(sub.Frequency, motivation.English))
		return b.show(s, text, [][]MenuButton{
			{{Text: "❌ Unsubscribe", CallbackData: callbackMotivAction + "unsubscribe"}},
			backToMainMenuButton(),
		})
	}
	return b.show(s, "🚀 Choose the language of your motivational messages:", languageButtons())
}

func (b *Bot) handleMotivationLanguage(s screen, code string) error {
	lang, err := motivation.ParseLanguage(code)
	if err != nil {
		return b.show(s, "Unknown language. Please choose again:", languageButtons())
	}

	var rows [][]MenuButton
	for _, f := range motivation.Frequencies {
		rows = append(rows, []MenuButton{{
			Text:         motivation.FrequencyButton(f),
			CallbackData: fmt.Sprintf("%s%s_%s", callbackMotivFreq, f, lang),
		}})
	}
	rows = append(rows, []MenuButton{{Text: "« Back to Language", CallbackData: callbackMotivAction + "back_to_lang"}})
	return b.show(s, "How frequently do you want to receive motivational messages?", rows)
}

// parseFrequencyChoice splits "<frequency>_<language>"
func parseFrequencyChoice(data string) (motivation.Frequency, motivation.Language, error) {
	i := strings.LastIndex(data, "_")
	if i < 0 {
		return "", "", fmt.Errorf("malformed frequency choice %q", data)
	}
	freq, err := motivation.ParseFrequency(data[:i])
	if err != nil {
		return "", "", err
	}
	lang, err := motivation.ParseLanguage(data[i+1:])
	if err != nil {
		return "", "", err
	}
	return freq, lang, nil
}

func (b *Bot) handleMotivationFrequency(ctx context.Context, userID int64, s screen, data string) error {
	freq, lang, err := parseFrequencyChoice(data)
	if err != nil {
		return b.reply(s.chatID, "Error: Could not determine settings. Please start again with /motivation.", nil)
	}
	if _, err := b.motivation.Subscribe(userID, s.chatID, lang, freq); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	b.log.Info("motivation subscription saved",
		zap.Int64("user_id", userID), zap.String("lang", string(lang)), zap.String("frequency", string(freq)))

	if s.messageID != 0 {
		if _, err := b.api.Request(tgbotapi.NewDeleteMessage(s.chatID, s.messageID)); err != nil {
			b.log.Debug("could not delete frequency menu", zap.Error(err))
		}
	}

	text := fmt.Sprintf("You have subscribed to receive motivational messages in %s (%s)! 🚗\n\nYour first message:\n\n%s",
		strings.ToUpper(motivation.LanguageName(lang)), motivation.FrequencyLabel(freq, lang), b.messages.Message(ctx, lang))
	keyboard := createKeyboard([][]MenuButton{backToMainMenuButton()})

	var msg tgbotapi.Chattable
	if image := b.messages.Image(); image != "" {
		photo := tgbotapi.NewPhoto(s.chatID, tgbotapi.FilePath(image))
		photo.Caption = text
		photo.ReplyMarkup = keyboard
		msg = photo
	} else {
		m := tgbotapi.NewMessage(s.chatID, text)
		m.ReplyMarkup = keyboard
		msg = m
	}
	if err := b.sendMessage(msg); err != nil {
		return err
	}
	b.motivation.MarkSent(userID, time.Now())
	return nil
}

func (b *Bot) handleMotivationAction(userID int64, s screen, action string) error {
	switch action {
	case "unsubscribe":
		b.motivation.Unsubscribe(userID)
		return b.show(s, "You have unsubscribed from daily motivation. To subscribe again, select \"Motivation\" from the main menu or use /motivation.",
			[][]MenuButton{backToMainMenuButton()})
	case "cancel":
		return b.show(s, "Operation cancelled. Select an option from the main menu.", [][]MenuButton{backToMainMenuButton()})
	case "back_to_lang":
		return b.show(s, "🚀 Choose the language of your motivational messages:", languageButtons())
	}
	return b.show(s, "⚠️ Unknown action", [][]MenuButton{backToMainMenuButton()})
}
