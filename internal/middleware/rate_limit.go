package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// RateLimit returns middleware that enforces a per-chat messages-per-
// minute limit with an in-memory sliding window.
func RateLimit(perMinute int) bot.Middleware {
	var (
		mu      sync.Mutex
		windows = make(map[int64][]time.Time)
	)

	allow := func(chatID int64) bool {
		mu.Lock()
		defer mu.Unlock()

		cutoff := time.Now().Add(-time.Minute)
		recent := windows[chatID][:0]
		for _, ts := range windows[chatID] {
			if ts.After(cutoff) {
				recent = append(recent, ts)
			}
		}
		if len(recent) >= perMinute {
			windows[chatID] = recent
			return false
		}
		windows[chatID] = append(recent, time.Now())
		return true
	}

	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			// Only rate limit messages (not callbacks or other updates)
			if update.Message == nil {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			if !allow(chatID) {
				slog.Debug("rate limited", "chat_id", chatID)
				b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: chatID,
					Text:   "⏳ 요청이 너무 많습니다. 잠시 후 다시 시도해주세요.",
				})
				return
			}

			next(ctx, b, update)
		}
	}
}
