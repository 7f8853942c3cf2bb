package handler

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/haneul-dev/bertbot/internal/domain"
	"github.com/haneul-dev/bertbot/internal/session"
	tg "github.com/haneul-dev/bertbot/internal/telegram"
)

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// HandleText routes plain chat text: a question while chatting, a
// free-text survey answer while the survey is pending, nothing once
// the session has completed.
func (h *Handler) HandleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}
	msg := update.Message
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	chatID := msg.Chat.ID
	ctrl := h.controller(ctx, chatID)

	switch ctrl.State() {
	case domain.StateActive:
		h.processText(ctx, b, chatID, ctrl, msg.Text)
	case domain.StateSurveyPending:
		h.recordFreeTextAnswer(ctx, b, chatID, ctrl, msg.Text)
	case domain.StateCompleted:
		// Input is locked; stale messages are dropped silently, the
		// same as a disabled input field.
	}
}

// processText runs one chat turn and renders the resulting bot
// messages. Used for typed text, suggestion taps and catalog taps.
func (h *Handler) processText(ctx context.Context, b *bot.Bot, chatID int64, ctrl *session.Controller, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	if !h.tryAcquire(chatID) {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "⏳ 이전 질문에 대한 답변을 기다려주세요.",
		})
		return
	}
	defer h.release(chatID)

	b.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionTyping,
	})

	res := ctrl.SendMessage(ctx, text)
	for _, m := range res.Appended {
		if m.Role != domain.RoleBot {
			continue
		}
		h.sendBotMessage(ctx, b, chatID, m)
	}

	if res.State == domain.StateSurveyPending {
		h.askNextSurveyQuestion(ctx, b, chatID, ctrl)
	}
}

// sendBotMessage renders one bot log entry: answer text, the
// confidence line when present, and suggestion buttons when present.
func (h *Handler) sendBotMessage(ctx context.Context, b *bot.Bot, chatID int64, m domain.Message) {
	text := m.Text
	if m.Confidence != nil {
		text += fmt.Sprintf("\n\n%d%% 확신", int(math.Round(*m.Confidence*100)))
	}

	var keyboard *models.InlineKeyboardMarkup
	if len(m.Suggestions) > 0 {
		h.rememberSuggestions(chatID, m.Suggestions)
		buttons := make([]models.InlineKeyboardButton, len(m.Suggestions))
		for i, s := range m.Suggestions {
			buttons[i] = tg.InlineButton("📌 "+s, fmt.Sprintf("sg:%d", i))
		}
		keyboard = tg.InlineKeyboard(tg.ButtonColumn(buttons...)...)
	}

	tg.SendLongMessage(ctx, b, chatID, text, keyboard)
}

// HandleSuggestionCallback re-asks the tapped suggested answer, the
// bot-side equivalent of the widget filling the input box.
func (h *Handler) HandleSuggestionCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil || cb.Message.Message == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cb.ID})

	chatID := cb.Message.Message.Chat.ID
	idx, err := strconv.Atoi(strings.TrimPrefix(cb.Data, "sg:"))
	if err != nil {
		return
	}
	text, ok := h.suggestion(chatID, idx)
	if !ok {
		return
	}

	h.processText(ctx, b, chatID, h.controller(ctx, chatID), text)
}
