package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/studybot/internal/media"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (b *Bot) showGIFsMenu(s screen) error {
	if b.converter == nil {
		return b.show(s, "GIF conversion is not available right now.", [][]MenuButton{backToMainMenuButton()})
	}
	limits := b.converter.Limits()
	text := fmt.Sprintf("😂 Send me a video (up to %d seconds, max %dMB) and I will turn it into a GIF.",
		int(limits.MaxDuration.Seconds()), limits.MaxFileSize/(1024*1024))
	return b.show(s, text, [][]MenuButton{backToMainMenuButton()})
}

// videoFile extracts the file id and metadata of a video message
func videoFile(message *tgbotapi.Message) (string, media.VideoMeta, bool) {
	if v := message.Video; v != nil {
		return v.FileID, media.VideoMeta{
			FileSize: int64(v.FileSize),
			MimeType: v.MimeType,
			Duration: time.Duration(v.Duration) * time.Second,
		}, true
	}
	if d := message.Document; d != nil && strings.HasPrefix(strings.ToLower(d.MimeType), "video/") {
		return d.FileID, media.VideoMeta{FileSize: int64(d.FileSize), MimeType: d.MimeType}, true
	}
	return "", media.VideoMeta{}, false
}

func (b *Bot) handleVideo(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	fileID, meta, ok := videoFile(message)
	if !ok {
		return b.reply(chatID, "Please send a video file.", nil)
	}
	if b.converter == nil {
		return b.reply(chatID, "GIF conversion is not available right now.", nil)
	}

	if err := b.converter.Validate(meta); err != nil {
		return b.reply(chatID, b.videoErrorText(err), nil)
	}

	if err := b.reply(chatID, "Video received! ⏳ Converting, this can take up to 30 seconds...", nil); err != nil {
		return err
	}

	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		b.log.Error("failed to get video url", zap.Error(err))
		return b.reply(chatID, "Could not get the file path. Please try again.", nil)
	}

	gif, cleanup, err := b.converter.Convert(ctx, url)
	if err != nil {
		b.log.Error("video conversion failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return b.reply(chatID, b.videoErrorText(err), nil)
	}
	defer cleanup()

	animation := tgbotapi.NewAnimation(chatID, tgbotapi.FilePath(gif))
	animation.Caption = "Here is your GIF! 🎉"
	animation.ReplyMarkup = createKeyboard([][]MenuButton{backToMainMenuButton()})
	return b.sendMessage(animation)
}

func (b *Bot) videoErrorText(err error) string {
	limits := b.converter.Limits()
	switch {
	case errors.Is(err, media.ErrTooLarge):
		return fmt.Sprintf("The video is too large. Maximum size is %dMB.", limits.MaxFileSize/(1024*1024))
	case errors.Is(err, media.ErrUnsupportedType):
		return "Unsupported video format. Try mp4, mov, mkv, webm, avi or mpeg."
	case errors.Is(err, media.ErrTooLong):
		return fmt.Sprintf("The video is too long. Maximum duration is %d seconds.", int(limits.MaxDuration.Seconds()))
	case errors.Is(err, media.ErrDownload):
		return "Error downloading the video. Please try again."
	}
	return "❌ An error occurred while processing the video. Please try again or send another video."
}
