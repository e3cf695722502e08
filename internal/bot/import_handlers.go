package bot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/example/studybot/internal/importer"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// maxImportErrors bounds the row errors echoed back to the admin
const maxImportErrors = 10

func isImportCaption(caption string) bool {
	fields := strings.Fields(caption)
	return len(fields) > 0 && (fields[0] == "/import" || strings.HasPrefix(fields[0], "/import@"))
}

func (b *Bot) handleImportDocument(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	if !b.config.IsAdmin(message.From.ID) {
		return b.reply(chatID, "This command is only available for administrators.", nil)
	}
	if b.importer == nil {
		return b.reply(chatID, "Question import is not available.", nil)
	}

	ext := strings.ToLower(filepath.Ext(message.Document.FileName))
	switch ext {
	case ".json", ".csv", ".xlsx", ".xlsm":
	default:
		return b.reply(chatID, "Unsupported file type. Send a .json, .csv or .xlsx file.", nil)
	}

	body, err := b.download(ctx, message.Document.FileID)
	if err != nil {
		b.log.Error("failed to download import file", zap.Error(err))
		return b.reply(chatID, "❌ Could not download the file. Please try again.", nil)
	}
	defer body.Close()

	result, err := b.importer.Import(ctx, ext, body)
	if err != nil {
		b.log.Error("question import failed", zap.String("file", message.Document.FileName), zap.Error(err))
		if errors.Is(err, importer.ErrUnsupportedFormat) {
			return b.reply(chatID, "Unsupported file type. Send a .json, .csv or .xlsx file.", nil)
		}
		return b.reply(chatID, fmt.Sprintf("❌ Import failed: %v", err), nil)
	}

	if b.bank != nil {
		if err := b.bank.Refresh(ctx); err != nil {
			b.log.Warn("failed to refresh taxonomy after import", zap.Error(err))
		}
	}
	return b.reply(chatID, formatImportResult(result), nil)
}

func formatImportResult(r *importer.ImportResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Import finished.\nProcessed: %d\nCreated: %d\nSkipped: %d\nNew subcategories: %d",
		r.TotalProcessed, r.Created, r.Skipped, r.SubcategoriesCreated)
	if len(r.Errors) > 0 {
		sb.WriteString("\n\nErrors:\n")
		for i, e := range r.Errors {
			if i == maxImportErrors {
				fmt.Fprintf(&sb, "... and %d more", len(r.Errors)-maxImportErrors)
				break
			}
			sb.WriteString(e + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
