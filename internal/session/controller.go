// Package session owns the conversation lifecycle: the Active ->
// SurveyPending -> Completed state machine, the append-only chat log
// and its persistence, and the hand-off into the exit survey.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haneul-dev/bertbot/internal/config"
	"github.com/haneul-dev/bertbot/internal/domain"
)

// LogStore persists the conversation log and, optionally, the
// lifecycle state.
type LogStore interface {
	Load(ctx context.Context, sessionKey string) (domain.Log, error)
	Save(ctx context.Context, sessionKey string, log domain.Log) error
	Clear(ctx context.Context, sessionKey string) error
	LoadState(ctx context.Context, sessionKey string) (domain.State, bool, error)
	SaveState(ctx context.Context, sessionKey string, st domain.State) error
}

// Asker is the ask-question side of the QA network client.
type Asker interface {
	Ask(ctx context.Context, text string) (*domain.Answer, error)
}

// SurveyEngine records and validates survey answers and submits a
// complete map to the remote survey store.
type SurveyEngine interface {
	Questions() []domain.SurveyQuestion
	Record(answers domain.AnswerMap, questionID, raw string) error
	Missing(answers domain.AnswerMap) []string
	Submit(ctx context.Context, answers domain.AnswerMap) error
}

// Sanitizer neutralizes markup in user-authored text.
type Sanitizer interface {
	Sanitize(raw string) string
}

// Deps are the injected collaborators of a Controller.
type Deps struct {
	Store     LogStore
	Asker     Asker
	Engine    SurveyEngine
	Sanitizer Sanitizer

	// Now defaults to time.Now.
	Now func() time.Time

	// PersistState restores the lifecycle state across restarts. Off
	// by default: the source behavior is a fresh Active session per
	// load even when the log ends in a farewell.
	PersistState bool
}

// TurnResult reports what one chat operation appended and the state it
// left the session in. The host renders from this; the core never
// drives presentation.
type TurnResult struct {
	Appended []domain.Message
	State    domain.State
}

// SurveyResult reports the outcome of a survey submission attempt.
// Missing is non-empty when validation blocked the attempt.
type SurveyResult struct {
	Appended []domain.Message
	State    domain.State
	Missing  []string
}

// Controller is the session state machine for one conversation. All
// mutations append to the log and persist it before returning; the
// two network operations are the only suspension points and run
// outside the lock, so a slow answer does not freeze the session.
type Controller struct {
	key  string
	deps Deps

	mu      sync.Mutex
	state   domain.State
	log     domain.Log
	answers domain.AnswerMap
}

// New hydrates a controller from the store. A log that cannot be
// loaded degrades to an empty one; it never fails session start.
func New(ctx context.Context, key string, deps Deps) *Controller {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	c := &Controller{
		key:     key,
		deps:    deps,
		state:   domain.StateActive,
		answers: domain.AnswerMap{},
	}

	log, err := deps.Store.Load(ctx, key)
	if err != nil {
		slog.Warn("load chat log", "session", key, "error", err)
	}
	c.log = log

	if deps.PersistState {
		st, ok, err := deps.Store.LoadState(ctx, key)
		if err != nil {
			slog.Warn("load session state", "session", key, "error", err)
		} else if ok {
			c.state = st
		}
	}
	return c
}

// SendMessage handles one user turn. Empty or whitespace-only input is
// a no-op, as is any call outside the Active state. A termination
// keyword appends the farewell and flips to SurveyPending without a
// network call; otherwise the QA service is asked and either its
// answer or the fixed failure text is appended.
func (c *Controller) SendMessage(ctx context.Context, text string) *TurnResult {
	trimmed := strings.TrimSpace(text)

	c.mu.Lock()
	if c.state != domain.StateActive || trimmed == "" {
		res := &TurnResult{State: c.state}
		c.mu.Unlock()
		return res
	}

	userMsg := c.newMessage(domain.RoleUser, c.deps.Sanitizer.Sanitize(text))
	c.append(ctx, userMsg)

	if config.IsTerminationKeyword(trimmed) {
		farewell := c.newMessage(domain.RoleBot, config.FarewellText)
		c.append(ctx, farewell)
		c.setState(ctx, domain.StateSurveyPending)
		res := &TurnResult{Appended: []domain.Message{userMsg, farewell}, State: c.state}
		c.mu.Unlock()
		return res
	}
	c.mu.Unlock()

	// Suspension point. No cancellation, no retry; if the user sends
	// again before this resolves, responses land in completion order.
	requestID := uuid.NewString()
	slog.Debug("ask dispatched", "session", c.key, "request_id", requestID)
	answer, err := c.deps.Asker.Ask(ctx, text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.StateActive {
		// The session ended while the request was in flight; a closed
		// conversation never grows again.
		slog.Warn("discarding late answer", "session", c.key, "request_id", requestID, "state", c.state)
		return &TurnResult{Appended: []domain.Message{userMsg}, State: c.state}
	}

	var botMsg domain.Message
	if err != nil {
		slog.Warn("ask failed", "session", c.key, "request_id", requestID, "error", err)
		botMsg = c.newMessage(domain.RoleBot, config.ServerErrorText)
	} else {
		botMsg = c.newMessage(domain.RoleBot, answer.Text)
		botMsg.Confidence = answer.Confidence
		botMsg.Suggestions = answer.Suggestions
		if answer.Text == config.NoMatchSentinel {
			// The payload is not trusted to omit suggestions on a
			// no-match answer.
			botMsg.Suggestions = nil
		}
	}
	c.append(ctx, botMsg)
	return &TurnResult{Appended: []domain.Message{userMsg, botMsg}, State: c.state}
}

// ExplicitExit ends active chatting without a termination keyword.
// Idempotent once the survey is pending; a no-op after completion.
func (c *Controller) ExplicitExit(ctx context.Context) *TurnResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.StateActive {
		return &TurnResult{State: c.state}
	}

	farewell := c.newMessage(domain.RoleBot, config.FarewellText)
	c.append(ctx, farewell)
	c.setState(ctx, domain.StateSurveyPending)
	return &TurnResult{Appended: []domain.Message{farewell}, State: c.state}
}

// RecordAnswer stores one survey answer. Outside SurveyPending it is a
// no-op: stale UI events after completion must not alter anything.
func (c *Controller) RecordAnswer(questionID, raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.StateSurveyPending {
		return nil
	}
	return c.deps.Engine.Record(c.answers, questionID, raw)
}

// SubmitSurvey validates and submits the collected answers. Incomplete
// answers block the attempt locally and keep everything entered. On
// success the session completes and locks; on a remote failure it
// stays in SurveyPending so the user can retry.
func (c *Controller) SubmitSurvey(ctx context.Context) *SurveyResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.StateSurveyPending {
		return &SurveyResult{State: c.state}
	}

	if missing := c.deps.Engine.Missing(c.answers); len(missing) > 0 {
		return &SurveyResult{State: c.state, Missing: missing}
	}

	if err := c.deps.Engine.Submit(ctx, c.answers); err != nil {
		slog.Warn("survey submission failed", "session", c.key, "error", err)
		failMsg := c.newMessage(domain.RoleBot, config.SurveyFailText)
		c.append(ctx, failMsg)
		return &SurveyResult{Appended: []domain.Message{failMsg}, State: c.state}
	}

	thanks := c.newMessage(domain.RoleBot, config.SurveyThanksText)
	c.append(ctx, thanks)
	c.setState(ctx, domain.StateCompleted)
	c.answers = domain.AnswerMap{}
	return &SurveyResult{Appended: []domain.Message{thanks}, State: c.state}
}

// ClearConversation wipes the log in memory and in the store. Valid in
// any state and never changes the state: clearing history after the
// survey does not re-enable chat.
func (c *Controller) ClearConversation(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log = nil
	if err := c.deps.Store.Clear(ctx, c.key); err != nil {
		slog.Error("clear chat log", "session", c.key, "error", err)
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Log returns a copy of the conversation log.
func (c *Controller) Log() domain.Log {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(domain.Log, len(c.log))
	copy(out, c.log)
	return out
}

// Questions returns the survey questions in schema order.
func (c *Controller) Questions() []domain.SurveyQuestion {
	return c.deps.Engine.Questions()
}

// Answers returns a copy of the answers collected so far.
func (c *Controller) Answers() domain.AnswerMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(domain.AnswerMap, len(c.answers))
	for k, v := range c.answers {
		out[k] = v
	}
	return out
}

// NextQuestion returns the first unanswered survey question, if any.
func (c *Controller) NextQuestion() (domain.SurveyQuestion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	missing := c.deps.Engine.Missing(c.answers)
	if len(missing) == 0 {
		return domain.SurveyQuestion{}, false
	}
	for _, q := range c.deps.Engine.Questions() {
		if q.ID == missing[0] {
			return q, true
		}
	}
	return domain.SurveyQuestion{}, false
}

// append adds a message and synchronously mirrors the full log into
// the store. A persistence error is logged, not surfaced: the
// in-memory log remains authoritative for this session.
func (c *Controller) append(ctx context.Context, msg domain.Message) {
	c.log = append(c.log, msg)
	if err := c.deps.Store.Save(ctx, c.key, c.log); err != nil {
		slog.Error("persist chat log", "session", c.key, "error", err)
	}
}

func (c *Controller) setState(ctx context.Context, st domain.State) {
	c.state = st
	if c.deps.PersistState {
		if err := c.deps.Store.SaveState(ctx, c.key, st); err != nil {
			slog.Error("persist session state", "session", c.key, "error", err)
		}
	}
}

func (c *Controller) newMessage(role domain.Role, text string) domain.Message {
	return domain.Message{
		Role: role,
		Text: text,
		Time: c.deps.Now().Format(config.TimeLayout),
	}
}
