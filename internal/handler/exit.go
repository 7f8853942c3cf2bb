package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/haneul-dev/bertbot/internal/domain"
)

// HandleExit ends the chat without a termination keyword and starts
// the survey.
func (h *Handler) HandleExit(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	ctrl := h.controller(ctx, chatID)

	res := ctrl.ExplicitExit(ctx)
	for _, m := range res.Appended {
		h.sendBotMessage(ctx, b, chatID, m)
	}

	switch {
	case len(res.Appended) > 0:
		h.askNextSurveyQuestion(ctx, b, chatID, ctrl)
	case res.State == domain.StateSurveyPending:
		// Already exited; point back at the open survey.
		h.askNextSurveyQuestion(ctx, b, chatID, ctrl)
	}
}
