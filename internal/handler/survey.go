package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/haneul-dev/bertbot/internal/domain"
	"github.com/haneul-dev/bertbot/internal/session"
	tg "github.com/haneul-dev/bertbot/internal/telegram"
)

// askNextSurveyQuestion sends the first unanswered question, or
// submits once everything is answered.
func (h *Handler) askNextSurveyQuestion(ctx context.Context, b *bot.Bot, chatID int64, ctrl *session.Controller) {
	q, ok := ctrl.NextQuestion()
	if !ok {
		h.submitSurvey(ctx, b, chatID, ctrl)
		return
	}

	if q.FreeText() {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   q.Label + "\n\n자유롭게 작성해주세요 :)",
		})
		return
	}

	buttons := make([]models.InlineKeyboardButton, len(q.Options))
	for i, opt := range q.Options {
		buttons[i] = tg.InlineButton(opt, fmt.Sprintf("sv:%s:%d", q.ID, i))
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        q.Label,
		ReplyMarkup: tg.InlineKeyboard(tg.ButtonColumn(buttons...)...),
	})
}

func (h *Handler) submitSurvey(ctx context.Context, b *bot.Bot, chatID int64, ctrl *session.Controller) {
	res := ctrl.SubmitSurvey(ctx)

	if len(res.Missing) > 0 {
		// The guided flow answers every question before submitting;
		// landing here means an answer was lost, so re-ask it.
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "아직 답변하지 않은 질문이 있습니다.",
		})
		h.askNextSurveyQuestion(ctx, b, chatID, ctrl)
		return
	}

	for _, m := range res.Appended {
		h.sendBotMessage(ctx, b, chatID, m)
	}
	if res.State == domain.StateSurveyPending {
		// Submission failed; offer a retry.
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        "다시 제출하시겠습니까?",
			ReplyMarkup: tg.InlineKeyboard(tg.ButtonRow(tg.InlineButton("🔁 다시 제출", "sv:retry:0"))),
		})
	}
}

// HandleSurveyCallback records a tapped choice answer and advances the
// survey.
func (h *Handler) HandleSurveyCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil || cb.Message.Message == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cb.ID})

	chatID := cb.Message.Message.Chat.ID
	ctrl := h.controller(ctx, chatID)

	parts := strings.Split(cb.Data, ":")
	if len(parts) != 3 {
		return
	}
	questionID := parts[1]

	if questionID == "retry" {
		h.submitSurvey(ctx, b, chatID, ctrl)
		return
	}

	optIdx, err := strconv.Atoi(parts[2])
	if err != nil {
		return
	}

	option, ok := surveyOption(ctrl, questionID, optIdx)
	if !ok {
		return
	}
	if err := ctrl.RecordAnswer(questionID, option); err != nil {
		slog.Error("record survey answer", "chat_id", chatID, "question", questionID, "error", err)
		return
	}

	h.askNextSurveyQuestion(ctx, b, chatID, ctrl)
}

// recordFreeTextAnswer treats chat text as the answer to the pending
// free-text question.
func (h *Handler) recordFreeTextAnswer(ctx context.Context, b *bot.Bot, chatID int64, ctrl *session.Controller, text string) {
	q, ok := ctrl.NextQuestion()
	if !ok {
		h.submitSurvey(ctx, b, chatID, ctrl)
		return
	}
	if !q.FreeText() {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "버튼으로 답변을 선택해주세요.",
		})
		return
	}

	if err := ctrl.RecordAnswer(q.ID, strings.TrimSpace(text)); err != nil {
		slog.Error("record free-text answer", "chat_id", chatID, "question", q.ID, "error", err)
		return
	}
	h.askNextSurveyQuestion(ctx, b, chatID, ctrl)
}

func surveyOption(ctrl *session.Controller, questionID string, optIdx int) (string, bool) {
	for _, q := range ctrl.Questions() {
		if q.ID != questionID {
			continue
		}
		if optIdx < 0 || optIdx >= len(q.Options) {
			return "", false
		}
		return q.Options[optIdx], true
	}
	return "", false
}
