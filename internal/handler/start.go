package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const startText = `🤖 BERT 챗봇

📝 챗봇을 종료하려면 /exit OR "그만", "고마워", "종료" 중 하나를 입력해주세요.
📚 추천 질문은 /questions 에서 확인할 수 있습니다.
🔄 대화 기록은 /clear 로 초기화할 수 있습니다.

📢 This chatbot accepts inquiries in English only, and provides responses exclusively in English.
It specializes in QA services related to Samsung S10 devices and Smart TVs.
이 챗봇은 영어로만 질문을 받으며, 답변 또한 영어로 제공됩니다. 삼성 S10 및 스마트 TV 제품 관련 질의응답(QA) 서비스를 전문으로 지원합니다.`

func (h *Handler) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   startText,
	})
}
