package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	tg "github.com/haneul-dev/bertbot/internal/telegram"
)

// HandleQuestions shows the suggested-question categories.
func (h *Handler) HandleQuestions(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	cats := h.catalog.Categories()
	buttons := make([]models.InlineKeyboardButton, len(cats))
	for i, cat := range cats {
		buttons[i] = tg.InlineButton(cat.Name, fmt.Sprintf("cat:%d", i))
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        "📚 추천 질문",
		ReplyMarkup: tg.InlineKeyboard(tg.ButtonColumn(buttons...)...),
	})
}

// HandleCategoryCallback lists the questions of the tapped category.
func (h *Handler) HandleCategoryCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil || cb.Message.Message == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cb.ID})

	catIdx, err := strconv.Atoi(strings.TrimPrefix(cb.Data, "cat:"))
	if err != nil {
		return
	}
	cat, ok := h.catalog.Category(catIdx)
	if !ok {
		return
	}

	buttons := make([]models.InlineKeyboardButton, len(cat.Questions))
	for i, q := range cat.Questions {
		buttons[i] = tg.InlineButton(q, fmt.Sprintf("q:%d:%d", catIdx, i))
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      cb.Message.Message.Chat.ID,
		Text:        cat.Name,
		ReplyMarkup: tg.InlineKeyboard(tg.ButtonColumn(buttons...)...),
	})
}

// HandleCatalogQuestionCallback asks the tapped catalog question as if
// the user typed it.
func (h *Handler) HandleCatalogQuestionCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil || cb.Message.Message == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cb.ID})

	parts := strings.Split(cb.Data, ":")
	if len(parts) != 3 {
		return
	}
	catIdx, err1 := strconv.Atoi(parts[1])
	qIdx, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		return
	}

	question, ok := h.catalog.Question(catIdx, qIdx)
	if !ok {
		return
	}

	chatID := cb.Message.Message.Chat.ID
	h.processText(ctx, b, chatID, h.controller(ctx, chatID), question)
}
