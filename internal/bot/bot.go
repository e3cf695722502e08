package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/example/studybot/internal/deadlines"
	"github.com/example/studybot/internal/flashcards"
	"github.com/example/studybot/internal/importer"
	"github.com/example/studybot/internal/media"
	"github.com/example/studybot/internal/motivation"
	"github.com/example/studybot/internal/notes"
	"github.com/example/studybot/internal/quiz"
	"github.com/example/studybot/internal/session"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sender is the part of the Telegram Bot API the bot talks to
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// VideoConverter turns chat videos into GIFs
type VideoConverter interface {
	Limits() media.Limits
	Validate(meta media.VideoMeta) error
	Convert(ctx context.Context, url string) (gifPath string, cleanup func(), err error)
}

// QuestionImporter loads question bank files
type QuestionImporter interface {
	Import(ctx context.Context, ext string, r io.Reader) (*importer.ImportResult, error)
}

// Resetter drops a user's in-progress feature state
type Resetter interface {
	Reset(userID int64)
}

// Deps are the feature services the bot routes updates to
type Deps struct {
	Quiz       *quiz.Engine
	Bank       *quiz.Bank
	Deadlines  *deadlines.Controller
	Flashcards *flashcards.Controller
	Notes      *notes.Controller
	Motivation *motivation.Service
	Messages   *motivation.Dispatcher
	Converter  VideoConverter
	Importer   QuestionImporter
	HTTPClient *http.Client
}

// Bot represents the Telegram bot application
type Bot struct {
	api    Sender
	log    *zap.Logger
	config *BotConfig
	locker *session.Locker
	client *http.Client

	quiz       *quiz.Engine
	bank       *quiz.Bank
	deadlines  *deadlines.Controller
	flashcards *flashcards.Controller
	notes      *notes.Controller
	motivation *motivation.Service
	messages   *motivation.Dispatcher
	converter  VideoConverter
	importer   QuestionImporter

	resetters []Resetter
}

// New creates a new bot instance
func New(log *zap.Logger, api Sender, config *BotConfig, deps Deps) *Bot {
	if config == nil {
		config = DefaultConfig()
	}
	if config.IsAdmin == nil {
		config.IsAdmin = func(int64) bool { return false }
	}
	client := deps.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	b := &Bot{
		api:        api,
		log:        log,
		config:     config,
		locker:     session.NewLocker(),
		client:     client,
		quiz:       deps.Quiz,
		bank:       deps.Bank,
		deadlines:  deps.Deadlines,
		flashcards: deps.Flashcards,
		notes:      deps.Notes,
		motivation: deps.Motivation,
		messages:   deps.Messages,
		converter:  deps.Converter,
		importer:   deps.Importer,
	}

	// opening the main menu abandons whatever the user was doing
	if deps.Quiz != nil {
		b.resetters = append(b.resetters, deps.Quiz)
	}
	if deps.Deadlines != nil {
		b.resetters = append(b.resetters, deps.Deadlines)
	}
	if deps.Flashcards != nil {
		b.resetters = append(b.resetters, deps.Flashcards)
	}
	if deps.Notes != nil {
		b.resetters = append(b.resetters, deps.Notes)
	}
	return b
}

// UpdateConfig returns the long polling settings
func (b *Bot) UpdateConfig() tgbotapi.UpdateConfig {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.config.UpdateTimeout
	u.AllowedUpdates = []string{"message", "callback_query"}
	return u
}

// Run handles updates until ctx is done or the channel is closed.
// In-flight handlers are waited for before it returns.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	var g errgroup.Group
	if b.config.MaxConcurrentUpdates > 0 {
		g.SetLimit(b.config.MaxConcurrentUpdates)
	}

	b.log.Info("bot is handling updates")
	for {
		select {
		case <-ctx.Done():
			g.Wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				g.Wait()
				return nil
			}
			// the queue place is taken here so one user's updates keep their order
			var ticket *session.Ticket
			if user := update.SentFrom(); user != nil {
				ticket = b.locker.Enqueue(user.ID)
			}
			g.Go(func() error {
				b.handleQueued(ctx, update, ticket)
				return nil
			})
		}
	}
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var ticket *session.Ticket
	if user := update.SentFrom(); user != nil {
		ticket = b.locker.Enqueue(user.ID)
	}
	b.handleQueued(ctx, update, ticket)
}

func (b *Bot) handleQueued(ctx context.Context, update tgbotapi.Update, ticket *session.Ticket) {
	if ticket == nil {
		return
	}
	ticket.Wait()
	defer ticket.Release()

	user := update.SentFrom()

	if b.config.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.config.HandlerTimeout)
		defer cancel()
	}

	log := b.log.With(zap.Int64("user_id", user.ID), zap.Int("update_id", update.UpdateID))
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while handling update", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	var err error
	switch {
	case update.CallbackQuery != nil:
		err = b.HandleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		err = b.HandleMessage(ctx, update.Message)
	}
	if err != nil {
		log.Error("failed to handle update", zap.Error(err))
	}
}

// HandleMessage routes commands, media and free text
func (b *Bot) HandleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message == nil || message.From == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}

	switch {
	case message.IsCommand():
		return b.HandleCommand(ctx, message)
	case message.Document != nil && isImportCaption(message.Caption):
		return b.handleImportDocument(ctx, message)
	case message.Video != nil || message.Document != nil:
		return b.handleVideo(ctx, message)
	case message.Text != "":
		return b.handleText(ctx, message)
	}
	return nil
}

// SendMotivation delivers a scheduled motivation message, with a photo when
// imagePath is set
func (b *Bot) SendMotivation(ctx context.Context, chatID int64, text, imagePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if imagePath != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(imagePath))
		photo.Caption = text
		_, err := b.api.Send(photo)
		return err
	}
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// IsBlockedError tells whether a Telegram error means the user blocked the
// bot or deleted their account
func IsBlockedError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "bot was blocked") || strings.Contains(msg, "user is deactivated")
}

func (b *Bot) sendMessage(msg tgbotapi.Chattable) error {
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (b *Bot) editMessage(msg tgbotapi.EditMessageTextConfig) error {
	if _, err := b.api.Send(msg); err != nil {
		// "message is not modified" is harmless
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

func (b *Bot) reply(chatID int64, text string, buttons [][]MenuButton) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(buttons) > 0 {
		msg.ReplyMarkup = createKeyboard(buttons)
	}
	return b.sendMessage(msg)
}

func (b *Bot) replyHTML(chatID int64, text string, buttons [][]MenuButton) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		msg.ReplyMarkup = createKeyboard(buttons)
	}
	return b.sendMessage(msg)
}

// screen is where a menu is drawn: the callback message when there is one,
// otherwise a new message in chatID
type screen struct {
	chatID    int64
	messageID int
}

func (b *Bot) show(s screen, text string, buttons [][]MenuButton) error {
	if s.messageID == 0 {
		return b.reply(s.chatID, text, buttons)
	}
	if len(buttons) == 0 {
		return b.editMessage(tgbotapi.NewEditMessageText(s.chatID, s.messageID, text))
	}
	return b.editMessage(tgbotapi.NewEditMessageTextAndMarkup(s.chatID, s.messageID, text, createKeyboard(buttons)))
}

func (b *Bot) download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
