// Package handler wires Telegram updates to the session controller:
// chat text, exit/clear commands, the suggested-question catalog and
// the inline-keyboard survey flow.
package handler

import (
	"context"
	"sync"

	"github.com/go-telegram/bot"

	"github.com/haneul-dev/bertbot/internal/catalog"
	"github.com/haneul-dev/bertbot/internal/config"
	"github.com/haneul-dev/bertbot/internal/session"
	"github.com/haneul-dev/bertbot/internal/storage"
)

// Handler holds all dependencies needed by command and callback
// handlers.
type Handler struct {
	bot      *bot.Bot
	cfg      *config.Config
	sessions *session.Manager
	catalog  *catalog.Catalog
	logStore *storage.ChatLogStore

	// One in-flight QA request per chat; a second message while one is
	// outstanding is answered with a wait notice instead of racing.
	inFlightMu sync.Mutex
	inFlight   map[int64]bool

	// Latest suggestion list per chat, referenced by index from the
	// suggestion buttons (callback data is too small for full text).
	suggestMu   sync.Mutex
	suggestions map[int64][]string
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot      *bot.Bot
	Cfg      *config.Config
	Sessions *session.Manager
	Catalog  *catalog.Catalog
	LogStore *storage.ChatLogStore
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:         deps.Bot,
		cfg:         deps.Cfg,
		sessions:    deps.Sessions,
		catalog:     deps.Catalog,
		logStore:    deps.LogStore,
		inFlight:    make(map[int64]bool),
		suggestions: make(map[int64][]string),
	}
}

// Register installs all command and callback handlers. The default
// text handler is registered separately by the caller.
func (h *Handler) Register() {
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.HandleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/questions", bot.MatchTypeExact, h.HandleQuestions)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/clear", bot.MatchTypeExact, h.HandleClear)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/exit", bot.MatchTypeExact, h.HandleExit)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/feedback", bot.MatchTypePrefix, h.HandleFeedback)

	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "sv:", bot.MatchTypePrefix, h.HandleSurveyCallback)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "sg:", bot.MatchTypePrefix, h.HandleSuggestionCallback)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "cat:", bot.MatchTypePrefix, h.HandleCategoryCallback)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "q:", bot.MatchTypePrefix, h.HandleCatalogQuestionCallback)
}

func (h *Handler) tryAcquire(chatID int64) bool {
	h.inFlightMu.Lock()
	defer h.inFlightMu.Unlock()
	if h.inFlight[chatID] {
		return false
	}
	h.inFlight[chatID] = true
	return true
}

func (h *Handler) release(chatID int64) {
	h.inFlightMu.Lock()
	defer h.inFlightMu.Unlock()
	delete(h.inFlight, chatID)
}

func (h *Handler) rememberSuggestions(chatID int64, suggestions []string) {
	h.suggestMu.Lock()
	defer h.suggestMu.Unlock()
	h.suggestions[chatID] = suggestions
}

func (h *Handler) suggestion(chatID int64, idx int) (string, bool) {
	h.suggestMu.Lock()
	defer h.suggestMu.Unlock()
	list := h.suggestions[chatID]
	if idx < 0 || idx >= len(list) {
		return "", false
	}
	return list[idx], true
}

func (h *Handler) controller(ctx context.Context, chatID int64) *session.Controller {
	return h.sessions.Get(ctx, chatKey(chatID))
}
