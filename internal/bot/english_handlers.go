package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/example/studybot/internal/quiz"
	"github.com/example/studybot/pkg/models"
	"go.uber.org/zap"
)

const (
	sessionExpiredText = "Your test session might have expired. Please start a new test."
	staleAnswerText    = "Please use the buttons of the current question."
)

func newTestButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "New Test", CallbackData: callbackEnglish}},
		backToMainMenuButton(),
	}
}

func (b *Bot) handleEnglishStart(userID int64, s screen) error {
	b.quiz.Begin(userID)
	return b.show(s, "What do you want to improve in English?", [][]MenuButton{
		{{Text: "Grammar", CallbackData: callbackEnglishFocus + "grammar"}},
		{{Text: "Vocabulary", CallbackData: callbackEnglishFocus + "vocabulary"}},
		backToMainMenuButton(),
	})
}

func (b *Bot) handleFocus(userID int64, s screen, focus string) error {
	err := b.quiz.ChooseFocus(userID, focus)
	if errors.Is(err, quiz.ErrIllegalTransition) {
		// a stale focus button; restart the menu from here
		b.quiz.Begin(userID)
		err = b.quiz.ChooseFocus(userID, focus)
	}
	if err != nil {
		return b.show(s, "Invalid focus. Please start over.", [][]MenuButton{
			{{Text: "Start Over", CallbackData: callbackEnglish}},
		})
	}

	var levels []MenuButton
	for _, l := range quiz.Levels {
		levels = append(levels, MenuButton{Text: l, CallbackData: callbackLevel + l})
	}
	return b.show(s, "Please select your English level:", [][]MenuButton{
		levels,
		{{Text: "« Back to Focus", CallbackData: callbackEnglish}},
	})
}

func (b *Bot) handleLevel(userID int64, s screen, level string) error {
	if err := b.quiz.ChooseLevel(userID, level); err != nil {
		if errors.Is(err, quiz.ErrIllegalTransition) {
			return b.show(s, "Focus (Grammar/Vocabulary) not set. Please start over.", [][]MenuButton{
				{{Text: "Start Over", CallbackData: callbackEnglish}},
			})
		}
		return b.show(s, "Unknown level. Please choose again.", [][]MenuButton{
			{{Text: "Start Over", CallbackData: callbackEnglish}},
		})
	}
	return b.promptForSubcategory(userID, s)
}

func (b *Bot) promptForSubcategory(userID int64, s screen) error {
	sess, _ := b.quiz.Snapshot(userID)
	focusKey := strings.ToLower(sess.Focus)

	names := b.bank.Subcategories(sess.Focus)
	if len(names) == 0 {
		return b.show(s, fmt.Sprintf("No subcategories found for %s (Level %s).", sess.Focus, sess.Level), [][]MenuButton{
			{{Text: "« Change Level", CallbackData: callbackEnglishFocus + focusKey}},
			{{Text: "« Change Focus", CallbackData: callbackEnglish}},
			backToMainMenuButton(),
		})
	}

	var rows [][]MenuButton
	for i := 0; i < len(names); i += 2 {
		row := []MenuButton{{Text: names[i], CallbackData: callbackSubcategory + names[i]}}
		if i+1 < len(names) {
			row = append(row, MenuButton{Text: names[i+1], CallbackData: callbackSubcategory + names[i+1]})
		}
		rows = append(rows, row)
	}
	rows = append(rows, []MenuButton{{Text: "« Back to Level Select", CallbackData: callbackEnglishFocus + focusKey}})

	return b.show(s, fmt.Sprintf("Please select a %s subcategory for level %s:", sess.Focus, sess.Level), rows)
}

func (b *Bot) handleSubcategory(userID int64, s screen, name string) error {
	if err := b.quiz.ChooseSubcategory(userID, name); err != nil {
		return b.show(s, "Session error. Please select focus and level again.", [][]MenuButton{
			{{Text: "Start Over", CallbackData: callbackEnglish}},
		})
	}

	sess, _ := b.quiz.Snapshot(userID)
	var counts []MenuButton
	for _, n := range quiz.CountOptions {
		counts = append(counts, MenuButton{Text: fmt.Sprint(n), CallbackData: fmt.Sprintf("%s%d", callbackCount, n)})
	}
	return b.show(s, fmt.Sprintf("How many questions do you want for %s?", name), [][]MenuButton{
		counts,
		{{Text: "« Back to Subcategories", CallbackData: callbackLevel + sess.Level}},
	})
}

func (b *Bot) handleCount(ctx context.Context, userID int64, s screen, count int) error {
	sess, ok := b.quiz.Snapshot(userID)
	if !ok || sess.State != quiz.StateChoosingCount {
		return b.show(s, "Session error. Please select focus and level again.", [][]MenuButton{
			{{Text: "Start Over", CallbackData: callbackEnglish}},
		})
	}

	if err := b.show(s, "Starting test, please wait...", nil); err != nil {
		b.log.Warn("failed to show progress message", zap.Error(err))
	}

	view, err := b.quiz.Start(ctx, userID, sess.Subcategory, sess.Level, count)
	if errors.Is(err, quiz.ErrNoQuestions) {
		return b.show(s, "Sorry, no questions available for this subcategory and level. Try another one.", [][]MenuButton{
			{{Text: "Try another Subcategory", CallbackData: callbackLevel + sess.Level}},
			{{Text: "Change Level/Focus", CallbackData: callbackEnglish}},
			backToMainMenuButton(),
		})
	}
	if err != nil {
		return b.reply(s.chatID, "❌ An error occurred starting the test. Please try again.", nil)
	}
	return b.sendQuestion(s.chatID, view)
}

func (b *Bot) sendQuestion(chatID int64, q *quiz.QuestionView) error {
	text := fmt.Sprintf("Question %d/%d:\n\n<b>%s</b>", q.Position, q.Total, html.EscapeString(q.Text))

	var buttons [][]MenuButton
	switch q.Type {
	case models.MultipleChoice:
		for i, opt := range q.Options {
			buttons = append(buttons, []MenuButton{{Text: opt, CallbackData: fmt.Sprintf("%s%d_%d", callbackAnswerChoice, q.Position, i)}})
		}
	case models.TrueFalse:
		buttons = append(buttons, []MenuButton{
			{Text: "True", CallbackData: fmt.Sprintf("%s%d_True", callbackAnswerTF, q.Position)},
			{Text: "False", CallbackData: fmt.Sprintf("%s%d_False", callbackAnswerTF, q.Position)},
		})
	case models.FillInBlank:
		text += "\n\nType your answer:"
	}
	buttons = append(buttons, []MenuButton{{Text: "⏹️ Finish Test", CallbackData: callbackFinishTest}})

	return b.replyHTML(chatID, text, buttons)
}

// parseAnswerData splits "<position>_<value>" from an answer button
func parseAnswerData(data string) (int, string, error) {
	posText, value, ok := strings.Cut(data, "_")
	if !ok || value == "" {
		return 0, "", fmt.Errorf("malformed answer data %q", data)
	}
	pos, err := strconv.Atoi(posText)
	if err != nil {
		return 0, "", fmt.Errorf("invalid question position in answer data: %w", err)
	}
	return pos, value, nil
}

// currentFor returns the current question if a button shown for position
// still belongs to it. A second tap or an old message yields ok == false.
func (b *Bot) currentFor(userID int64, s screen, pos int, kind models.QuestionType) (*quiz.QuestionView, bool, error) {
	view, err := b.quiz.Current(userID)
	if err != nil || view == nil {
		return nil, false, b.reply(s.chatID, sessionExpiredText, newTestButtons())
	}
	if view.Position != pos || view.Type != kind {
		return nil, false, b.reply(s.chatID, staleAnswerText, nil)
	}
	return view, true, nil
}

func (b *Bot) handleChoiceAnswer(ctx context.Context, userID int64, s screen, pos, idx int) error {
	view, ok, err := b.currentFor(userID, s, pos, models.MultipleChoice)
	if !ok {
		return err
	}
	if idx < 0 || idx >= len(view.Options) {
		return b.reply(s.chatID, staleAnswerText, nil)
	}
	return b.handleAnswer(ctx, userID, s, view.Options[idx])
}

func (b *Bot) handleTrueFalseAnswer(ctx context.Context, userID int64, s screen, pos int, value string) error {
	if _, ok, err := b.currentFor(userID, s, pos, models.TrueFalse); !ok {
		return err
	}
	if value != "True" && value != "False" {
		return b.reply(s.chatID, staleAnswerText, nil)
	}
	return b.handleAnswer(ctx, userID, s, value)
}

func (b *Bot) handleTextAnswer(ctx context.Context, userID, chatID int64, text string) error {
	kind, ok := b.quiz.CurrentType(userID)
	if !ok {
		return b.reply(chatID, sessionExpiredText, newTestButtons())
	}
	if kind != models.FillInBlank {
		return b.reply(chatID, "Please use the buttons to answer this question.", nil)
	}
	return b.handleAnswer(ctx, userID, screen{chatID: chatID}, text)
}

func (b *Bot) handleAnswer(ctx context.Context, userID int64, s screen, answer string) error {
	result, err := b.quiz.Answer(ctx, userID, answer)
	switch {
	case errors.Is(err, quiz.ErrEmptyAnswer):
		return b.reply(s.chatID, "Please type an answer.", nil)
	case err != nil:
		return b.reply(s.chatID, sessionExpiredText, newTestButtons())
	}

	var msg string
	if result.Correct {
		msg = "✅ Correct!"
	} else {
		msg = fmt.Sprintf("❌ Incorrect!\n\nCorrect answer: <b>%s</b>\n", html.EscapeString(result.CorrectAnswer))
		if result.Explanation != "" {
			msg += fmt.Sprintf("%s\n", html.EscapeString(result.Explanation))
		}
		if result.Example != "" {
			msg += fmt.Sprintf("Example: <i>%s</i>", html.EscapeString(result.Example))
		}
	}
	if err := b.replyHTML(s.chatID, msg, nil); err != nil {
		return err
	}

	if result.Next != nil {
		return b.sendQuestion(s.chatID, result.Next)
	}
	return b.handleFinishTest(ctx, userID, s.chatID)
}

func (b *Bot) handleFinishTest(ctx context.Context, userID, chatID int64) error {
	report, err := b.quiz.Finish(ctx, userID)
	if err != nil {
		return b.reply(chatID, sessionExpiredText, newTestButtons())
	}
	return b.replyHTML(chatID, formatReport(report), [][]MenuButton{
		{{Text: "Take another test", CallbackData: callbackEnglish}},
		backToMainMenuButton(),
	})
}

// maxReportLength keeps a report below Telegram's 4096 character limit with
// room for the closing lines
const maxReportLength = 3800

func formatReport(r *quiz.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Test completed!</b> 🎉\n\nYour score: %d/%d\n\n", r.Score, r.TotalQuestions)

	if len(r.WrongAnswers) > 0 {
		sb.WriteString("<b>Review your mistakes:</b>\n\n")
		length := utf8.RuneCountInString(sb.String())
		for i, w := range r.WrongAnswers {
			block := formatMistake(i+1, w)
			n := utf8.RuneCountInString(block)
			if length+n > maxReportLength {
				fmt.Fprintf(&sb, "... and %d more mistakes\n\n", len(r.WrongAnswers)-i)
				break
			}
			length += n
			sb.WriteString(block)
		}
	} else if r.TotalQuestions > 0 && r.Score == r.TotalQuestions {
		sb.WriteString("Excellent! All correct! 🥳\n\n")
	}

	if r.Status == quiz.RecordedLocallyOnly {
		sb.WriteString("⚠️ This result could not be saved to your history.")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatMistake(n int, w models.WrongAnswer) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d. <b>Q:</b> %s\nYour: %s\nCorrect: <b>%s</b>\n",
		n, html.EscapeString(w.Question), html.EscapeString(w.UserAnswer), html.EscapeString(w.CorrectAnswer))
	if w.Explanation != "" {
		fmt.Fprintf(&sb, "Expl: %s\n", html.EscapeString(w.Explanation))
	}
	if w.Example != "" {
		fmt.Fprintf(&sb, "Ex: <i>%s</i>\n", html.EscapeString(w.Example))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (b *Bot) handleResults(ctx context.Context, userID int64, s screen) error {
	results, err := b.quiz.History(ctx, userID, b.config.ResultsLimit)
	if err != nil {
		b.log.Error("failed to load results", zap.Int64("user_id", userID), zap.Error(err))
		return b.reply(s.chatID, "❌ Could not load your results. Please try again.", nil)
	}
	if len(results) == 0 {
		return b.show(s, "You have not completed any tests yet.", newTestButtons())
	}

	var sb strings.Builder
	sb.WriteString("📊 Your recent results:\n\n")
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s: %d/%d (%s)\n", i+1, r.SubcategoryName, r.Score, r.TotalQuestions, r.CompletedAt.Format("02.01.2006"))
	}
	return b.show(s, sb.String(), newTestButtons())
}
