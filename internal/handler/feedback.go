package handler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandleFeedback stores free-form feedback text outside the survey
// flow, under the legacy feedback key.
func (h *Handler) HandleFeedback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	text := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/feedback"))
	if text == "" {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "사용법: /feedback 간단한 피드백을 남겨주세요 :)",
		})
		return
	}

	if err := h.logStore.SaveFeedback(ctx, chatKey(chatID), text); err != nil {
		slog.Error("save feedback", "chat_id", chatID, "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "피드백 저장에 실패했습니다. 잠시 후 다시 시도해주세요.",
		})
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "📝 피드백이 저장되었습니다. 감사합니다!",
	})
}
