package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandleClear wipes the conversation history. The lifecycle state is
// untouched: clearing after the survey does not re-open the chat.
func (h *Handler) HandleClear(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	h.controller(ctx, chatID).ClearConversation(ctx)

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "🔄 대화 기록이 초기화되었습니다.",
	})
}
