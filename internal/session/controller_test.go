package session

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haneul-dev/bertbot/internal/config"
	"github.com/haneul-dev/bertbot/internal/domain"
	"github.com/haneul-dev/bertbot/internal/sanitize"
	"github.com/haneul-dev/bertbot/internal/storage"
	"github.com/haneul-dev/bertbot/internal/survey"
)

const testSchema = `[
  {"id": "helpfulness", "label": "도움이 되었나요?", "options": ["매우 도움됨", "도움됨", "보통"]},
  {"id": "accuracy", "label": "정확했나요?", "options": ["정확함", "부정확함"]},
  {"id": "feedback", "label": "의견을 남겨주세요", "options": "주관식"}
]`

type fakeAsker struct {
	answer   *domain.Answer
	err      error
	calls    int
	lastText string
}

func (f *fakeAsker) Ask(_ context.Context, text string) (*domain.Answer, error) {
	f.calls++
	f.lastText = text
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

type fakeSubmitter struct {
	calls int
	last  domain.AnswerMap
	err   error
}

func (f *fakeSubmitter) SubmitSurvey(_ context.Context, answers domain.AnswerMap) error {
	f.calls++
	f.last = answers
	return f.err
}

type fixture struct {
	ctrl      *Controller
	asker     *fakeAsker
	submitter *fakeSubmitter
	store     *storage.ChatLogStore
	deps      Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	schema, err := survey.LoadFS(fstest.MapFS{
		"schema.json": &fstest.MapFile{Data: []byte(testSchema)},
	}, "schema.json")
	require.NoError(t, err)

	asker := &fakeAsker{}
	submitter := &fakeSubmitter{}
	store := storage.NewChatLogStore(storage.NewMemory())

	deps := Deps{
		Store:     store,
		Asker:     asker,
		Engine:    survey.NewEngine(schema, submitter),
		Sanitizer: sanitize.NewHTML(),
		Now:       func() time.Time { return time.Date(2024, 5, 2, 10, 1, 0, 0, time.UTC) },
	}

	return &fixture{
		ctrl:      New(context.Background(), "chat-1", deps),
		asker:     asker,
		submitter: submitter,
		store:     store,
		deps:      deps,
	}
}

func ptr(f float64) *float64 { return &f }

func (fx *fixture) completeSurvey(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	fx.ctrl.SendMessage(ctx, "그만")
	require.Equal(t, domain.StateSurveyPending, fx.ctrl.State())

	require.NoError(t, fx.ctrl.RecordAnswer("helpfulness", "도움됨"))
	require.NoError(t, fx.ctrl.RecordAnswer("accuracy", "정확함"))
	require.NoError(t, fx.ctrl.RecordAnswer("feedback", "고마워요"))

	res := fx.ctrl.SubmitSurvey(ctx)
	require.Empty(t, res.Missing)
	require.Equal(t, domain.StateCompleted, res.State)
}

func TestSendMessage_NormalTurn(t *testing.T) {
	fx := newFixture(t)
	fx.asker.answer = &domain.Answer{Text: "hi there", Confidence: ptr(0.92)}

	res := fx.ctrl.SendMessage(context.Background(), "hello")

	require.Len(t, res.Appended, 2)
	assert.Equal(t, domain.StateActive, res.State)

	log := fx.ctrl.Log()
	require.Len(t, log, 2)
	assert.Equal(t, domain.RoleUser, log[0].Role)
	assert.Equal(t, "hello", log[0].Text)
	assert.Equal(t, "10:01", log[0].Time)
	assert.Equal(t, domain.RoleBot, log[1].Role)
	assert.Equal(t, "hi there", log[1].Text)
	require.NotNil(t, log[1].Confidence)
	assert.InDelta(t, 0.92, *log[1].Confidence, 1e-9)
}

func TestSendMessage_EmptyInputIsNoOp(t *testing.T) {
	fx := newFixture(t)

	for _, input := range []string{"", "   ", "\n\t"} {
		res := fx.ctrl.SendMessage(context.Background(), input)
		assert.Empty(t, res.Appended)
	}
	assert.Empty(t, fx.ctrl.Log())
	assert.Zero(t, fx.asker.calls)
}

func TestSendMessage_TerminationKeyword(t *testing.T) {
	fx := newFixture(t)

	res := fx.ctrl.SendMessage(context.Background(), "그만")

	assert.Equal(t, domain.StateSurveyPending, res.State)
	assert.Zero(t, fx.asker.calls, "termination turn must not reach the QA service")

	log := fx.ctrl.Log()
	require.Len(t, log, 2)
	assert.Equal(t, "그만", log[0].Text)
	assert.Equal(t, config.FarewellText, log[1].Text)
}

func TestSendMessage_NonExactKeywordGoesToNetwork(t *testing.T) {
	fx := newFixture(t)
	fx.asker.answer = &domain.Answer{Text: "알겠습니다"}

	res := fx.ctrl.SendMessage(context.Background(), "그만 할래")

	assert.Equal(t, domain.StateActive, res.State)
	assert.Equal(t, 1, fx.asker.calls)
	assert.Equal(t, "그만 할래", fx.asker.lastText)
}

func TestSendMessage_AllKeywords(t *testing.T) {
	for _, kw := range []string{"그만", "종료", "고마워"} {
		fx := newFixture(t)
		res := fx.ctrl.SendMessage(context.Background(), "  "+kw+"  ")
		assert.Equal(t, domain.StateSurveyPending, res.State, "keyword %q", kw)
	}
}

type blockingAsker struct {
	release chan struct{}
	answer  *domain.Answer
}

func (b *blockingAsker) Ask(context.Context, string) (*domain.Answer, error) {
	<-b.release
	return b.answer, nil
}

func TestSendMessage_LateAnswerAfterExitIsDropped(t *testing.T) {
	fx := newFixture(t)
	asker := &blockingAsker{
		release: make(chan struct{}),
		answer:  &domain.Answer{Text: "late answer"},
	}
	deps := fx.deps
	deps.Asker = asker
	ctrl := New(context.Background(), "chat-3", deps)

	done := make(chan *TurnResult, 1)
	go func() { done <- ctrl.SendMessage(context.Background(), "still there?") }()

	// The user message lands before the ask suspends.
	require.Eventually(t, func() bool { return len(ctrl.Log()) == 1 }, time.Second, time.Millisecond)

	ctrl.ExplicitExit(context.Background())
	close(asker.release)

	res := <-done
	assert.Equal(t, domain.StateSurveyPending, res.State)
	require.Len(t, res.Appended, 1, "only the user message survives the turn")

	log := ctrl.Log()
	require.Len(t, log, 2, "user question + farewell, no late bot message")
	assert.Equal(t, config.FarewellText, log[1].Text)
}

func TestSendMessage_RemoteFailure(t *testing.T) {
	fx := newFixture(t)
	fx.asker.err = domain.ErrRemoteUnavailable

	res := fx.ctrl.SendMessage(context.Background(), "hello")

	require.Len(t, res.Appended, 2)
	assert.Equal(t, domain.StateActive, res.State, "a failed turn keeps the chat alive")

	errMsg := res.Appended[1]
	assert.Equal(t, config.ServerErrorText, errMsg.Text)
	assert.Nil(t, errMsg.Confidence)
	assert.Nil(t, errMsg.Suggestions)

	// The user may simply send again.
	fx.asker.err = nil
	fx.asker.answer = &domain.Answer{Text: "recovered"}
	res = fx.ctrl.SendMessage(context.Background(), "hello again")
	assert.Equal(t, "recovered", res.Appended[1].Text)
}

func TestSendMessage_NoMatchSuppressesSuggestions(t *testing.T) {
	fx := newFixture(t)
	fx.asker.answer = &domain.Answer{
		Text:        config.NoMatchSentinel,
		Confidence:  ptr(0.11),
		Suggestions: []string{"stale suggestion", "another"},
	}

	res := fx.ctrl.SendMessage(context.Background(), "garble")

	bot := res.Appended[1]
	assert.Equal(t, config.NoMatchSentinel, bot.Text)
	assert.Empty(t, bot.Suggestions, "no-match answers must not carry suggestions")
}

func TestSendMessage_SanitizesUserTextOnly(t *testing.T) {
	fx := newFixture(t)
	fx.asker.answer = &domain.Answer{Text: "ok"}

	fx.ctrl.SendMessage(context.Background(), "a & <b>bold</b>")

	log := fx.ctrl.Log()
	assert.Equal(t, "a &amp; &lt;b&gt;bold&lt;/b&gt;", log[0].Text, "markup is escaped, never removed")
	assert.Equal(t, "a & <b>bold</b>", fx.asker.lastText, "the QA service receives the raw text")
}

func TestSendMessage_LogGrowthArithmetic(t *testing.T) {
	fx := newFixture(t)
	fx.asker.answer = &domain.Answer{Text: "fine"}

	fx.ctrl.SendMessage(context.Background(), "one")
	assert.Len(t, fx.ctrl.Log(), 2)

	fx.asker.err = errors.New("boom")
	fx.ctrl.SendMessage(context.Background(), "two")
	assert.Len(t, fx.ctrl.Log(), 4, "failed turns still append user + error message")

	fx.asker.err = nil
	fx.ctrl.SendMessage(context.Background(), "종료")
	assert.Len(t, fx.ctrl.Log(), 6, "termination appends the user message and the farewell")
}

func TestReload_RestoresLogButNotState(t *testing.T) {
	fx := newFixture(t)
	fx.ctrl.SendMessage(context.Background(), "그만")
	require.Equal(t, domain.StateSurveyPending, fx.ctrl.State())

	reloaded := New(context.Background(), "chat-1", fx.deps)

	assert.Equal(t, fx.ctrl.Log(), reloaded.Log(), "log survives the reload byte for byte")
	assert.Equal(t, domain.StateActive, reloaded.State(), "state is not persisted by default")
}

func TestReload_PersistedStatePolicy(t *testing.T) {
	fx := newFixture(t)
	deps := fx.deps
	deps.PersistState = true

	ctrl := New(context.Background(), "chat-2", deps)
	ctrl.SendMessage(context.Background(), "그만")
	require.Equal(t, domain.StateSurveyPending, ctrl.State())

	reloaded := New(context.Background(), "chat-2", deps)
	assert.Equal(t, domain.StateSurveyPending, reloaded.State())
}

func TestClearConversation_IdempotentAndStatePreserving(t *testing.T) {
	fx := newFixture(t)
	fx.ctrl.SendMessage(context.Background(), "그만")
	require.NotEmpty(t, fx.ctrl.Log())

	fx.ctrl.ClearConversation(context.Background())
	assert.Empty(t, fx.ctrl.Log())
	assert.Equal(t, domain.StateSurveyPending, fx.ctrl.State(), "clearing never changes the lifecycle state")

	fx.ctrl.ClearConversation(context.Background())
	assert.Empty(t, fx.ctrl.Log())
	assert.Equal(t, domain.StateSurveyPending, fx.ctrl.State())

	stored, err := fx.store.Load(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestExplicitExit(t *testing.T) {
	fx := newFixture(t)

	res := fx.ctrl.ExplicitExit(context.Background())
	assert.Equal(t, domain.StateSurveyPending, res.State)
	require.Len(t, res.Appended, 1)
	assert.Equal(t, config.FarewellText, res.Appended[0].Text)

	// Exiting again appends nothing.
	res = fx.ctrl.ExplicitExit(context.Background())
	assert.Empty(t, res.Appended)
	assert.Len(t, fx.ctrl.Log(), 1)
}

func TestSubmitSurvey_IncompleteBlocks(t *testing.T) {
	fx := newFixture(t)
	fx.ctrl.SendMessage(context.Background(), "그만")

	require.NoError(t, fx.ctrl.RecordAnswer("helpfulness", "보통"))
	require.NoError(t, fx.ctrl.RecordAnswer("feedback", "괜찮았어요"))

	res := fx.ctrl.SubmitSurvey(context.Background())

	assert.Equal(t, domain.StateSurveyPending, res.State)
	assert.Equal(t, []string{"accuracy"}, res.Missing)
	assert.Zero(t, fx.submitter.calls, "incomplete submission must not reach the network")
	assert.Len(t, fx.ctrl.Answers(), 2, "entered answers survive a blocked submission")
}

func TestSubmitSurvey_CompleteSubmitsAndLocks(t *testing.T) {
	fx := newFixture(t)
	fx.completeSurvey(t)

	require.Equal(t, 1, fx.submitter.calls)
	assert.Equal(t, 2, fx.submitter.last["helpfulness"], "choice answers are 1-based indices")
	assert.Equal(t, 1, fx.submitter.last["accuracy"])
	assert.Equal(t, "고마워요", fx.submitter.last["feedback"])

	log := fx.ctrl.Log()
	assert.Equal(t, config.SurveyThanksText, log[len(log)-1].Text)
	assert.Empty(t, fx.ctrl.Answers(), "the answer map is discarded after submission")
}

func TestSubmitSurvey_RemoteFailureAllowsRetry(t *testing.T) {
	fx := newFixture(t)
	fx.ctrl.SendMessage(context.Background(), "그만")

	require.NoError(t, fx.ctrl.RecordAnswer("helpfulness", "도움됨"))
	require.NoError(t, fx.ctrl.RecordAnswer("accuracy", "부정확함"))
	require.NoError(t, fx.ctrl.RecordAnswer("feedback", "음"))

	fx.submitter.err = domain.ErrRemoteUnavailable
	res := fx.ctrl.SubmitSurvey(context.Background())

	assert.Equal(t, domain.StateSurveyPending, res.State, "failure keeps the survey open")
	require.Len(t, res.Appended, 1)
	assert.Equal(t, config.SurveyFailText, res.Appended[0].Text)
	assert.NotEmpty(t, fx.ctrl.Answers(), "answers are kept for the retry")

	fx.submitter.err = nil
	res = fx.ctrl.SubmitSurvey(context.Background())
	assert.Equal(t, domain.StateCompleted, res.State)
	assert.Equal(t, 2, fx.submitter.calls)
}

func TestCompleted_TerminalLock(t *testing.T) {
	fx := newFixture(t)
	fx.completeSurvey(t)

	before := fx.ctrl.Log()

	res := fx.ctrl.SendMessage(context.Background(), "hello?")
	assert.Empty(t, res.Appended)
	assert.Equal(t, domain.StateCompleted, res.State)

	require.NoError(t, fx.ctrl.RecordAnswer("helpfulness", "보통"))
	assert.Empty(t, fx.ctrl.Answers())

	sres := fx.ctrl.SubmitSurvey(context.Background())
	assert.Empty(t, sres.Appended)
	assert.Equal(t, domain.StateCompleted, sres.State)

	eres := fx.ctrl.ExplicitExit(context.Background())
	assert.Empty(t, eres.Appended)

	assert.Equal(t, before, fx.ctrl.Log(), "nothing moves after completion")
	assert.Equal(t, 1, fx.submitter.calls)
	assert.Zero(t, fx.asker.calls)
}

func TestNextQuestion_WalksSchemaOrder(t *testing.T) {
	fx := newFixture(t)
	fx.ctrl.SendMessage(context.Background(), "그만")

	q, ok := fx.ctrl.NextQuestion()
	require.True(t, ok)
	assert.Equal(t, "helpfulness", q.ID)

	require.NoError(t, fx.ctrl.RecordAnswer("helpfulness", "보통"))
	q, ok = fx.ctrl.NextQuestion()
	require.True(t, ok)
	assert.Equal(t, "accuracy", q.ID)

	require.NoError(t, fx.ctrl.RecordAnswer("accuracy", "정확함"))
	require.NoError(t, fx.ctrl.RecordAnswer("feedback", "좋아요"))
	_, ok = fx.ctrl.NextQuestion()
	assert.False(t, ok)
}

func TestManager_ReusesAndDrops(t *testing.T) {
	fx := newFixture(t)
	m := NewManager(fx.deps)

	a := m.Get(context.Background(), "chat-7")
	b := m.Get(context.Background(), "chat-7")
	assert.Same(t, a, b)

	a.SendMessage(context.Background(), "그만")
	m.Drop("chat-7")

	c := m.Get(context.Background(), "chat-7")
	assert.NotSame(t, a, c)
	assert.Equal(t, a.Log(), c.Log(), "rehydrated controller sees the persisted log")
	assert.Equal(t, domain.StateActive, c.State())
}
