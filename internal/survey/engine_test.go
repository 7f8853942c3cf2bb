package survey

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haneul-dev/bertbot/internal/domain"
)

const testSchema = `[
  {"id": "helpfulness", "label": "도움이 되었나요?", "options": ["매우 도움됨", "도움됨", "보통"]},
  {"id": "accuracy", "label": "정확했나요?", "options": ["정확함", "보통", "부정확함"]},
  {"id": "feedback", "label": "의견을 남겨주세요", "options": "주관식"}
]`

type spySubmitter struct {
	calls  int
	last   domain.AnswerMap
	result error
}

func (s *spySubmitter) SubmitSurvey(_ context.Context, answers domain.AnswerMap) error {
	s.calls++
	s.last = answers
	return s.result
}

func loadTestSchema(t *testing.T, raw string) *Schema {
	t.Helper()
	fsys := fstest.MapFS{"schema.json": &fstest.MapFile{Data: []byte(raw)}}
	s, err := LoadFS(fsys, "schema.json")
	require.NoError(t, err)
	return s
}

func TestLoad_Embedded(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	qs := s.Questions()
	require.NotEmpty(t, qs)
	assert.True(t, qs[len(qs)-1].FreeText(), "the embedded schema ends with the free-text question")
}

func TestLoadFS_Missing(t *testing.T) {
	_, err := LoadFS(fstest.MapFS{}, "schema.json")
	assert.ErrorIs(t, err, domain.ErrSchemaMissing)
}

func TestLoadFS_BadMarker(t *testing.T) {
	fsys := fstest.MapFS{"schema.json": &fstest.MapFile{
		Data: []byte(`[{"id": "q", "label": "l", "options": "objective"}]`),
	}}
	_, err := LoadFS(fsys, "schema.json")
	assert.ErrorIs(t, err, domain.ErrSchemaMissing)
}

func TestLoadFS_QuestionShapes(t *testing.T) {
	s := loadTestSchema(t, testSchema)

	qs := s.Questions()
	require.Len(t, qs, 3)
	assert.Equal(t, "helpfulness", qs[0].ID)
	assert.False(t, qs[0].FreeText())
	assert.Equal(t, []string{"매우 도움됨", "도움됨", "보통"}, qs[0].Options)
	assert.True(t, qs[2].FreeText())
}

func TestRecord_ChoiceUsesOneBasedIndex(t *testing.T) {
	e := NewEngine(loadTestSchema(t, testSchema), &spySubmitter{})
	answers := domain.AnswerMap{}

	require.NoError(t, e.Record(answers, "helpfulness", "매우 도움됨"))
	assert.Equal(t, 1, answers["helpfulness"], "first option encodes as 1, not 0")

	require.NoError(t, e.Record(answers, "helpfulness", "보통"))
	assert.Equal(t, 3, answers["helpfulness"])
}

func TestRecord_FreeTextStoredVerbatim(t *testing.T) {
	e := NewEngine(loadTestSchema(t, testSchema), &spySubmitter{})
	answers := domain.AnswerMap{}

	require.NoError(t, e.Record(answers, "feedback", ""))
	assert.Equal(t, "", answers["feedback"], "empty while typing is recordable")

	require.NoError(t, e.Record(answers, "feedback", "友 good bot"))
	assert.Equal(t, "友 good bot", answers["feedback"])
}

func TestRecord_ContractViolations(t *testing.T) {
	e := NewEngine(loadTestSchema(t, testSchema), &spySubmitter{})
	answers := domain.AnswerMap{}

	assert.ErrorIs(t, e.Record(answers, "nope", "x"), domain.ErrUnknownQuestion)
	assert.ErrorIs(t, e.Record(answers, "helpfulness", "not an option"), domain.ErrUnknownOption)
	assert.Empty(t, answers)
}

func TestSubmit_IncompleteBlocksWithoutNetworkCall(t *testing.T) {
	spy := &spySubmitter{}
	e := NewEngine(loadTestSchema(t, testSchema), spy)

	answers := domain.AnswerMap{}
	require.NoError(t, e.Record(answers, "helpfulness", "도움됨"))
	require.NoError(t, e.Record(answers, "feedback", "고마워요"))

	err := e.Submit(context.Background(), answers)
	assert.ErrorIs(t, err, domain.ErrValidationIncomplete)
	assert.Zero(t, spy.calls, "incomplete map must not reach the network")
	assert.Len(t, answers, 2, "entered answers are preserved")

	// Empty free text counts as unanswered.
	require.NoError(t, e.Record(answers, "accuracy", "정확함"))
	require.NoError(t, e.Record(answers, "feedback", ""))
	assert.ErrorIs(t, e.Submit(context.Background(), answers), domain.ErrValidationIncomplete)
	assert.Zero(t, spy.calls)
}

func TestSubmit_CompleteForwardsAnswers(t *testing.T) {
	spy := &spySubmitter{}
	e := NewEngine(loadTestSchema(t, testSchema), spy)

	answers := domain.AnswerMap{}
	require.NoError(t, e.Record(answers, "helpfulness", "도움됨"))
	require.NoError(t, e.Record(answers, "accuracy", "부정확함"))
	require.NoError(t, e.Record(answers, "feedback", "답변이 빨랐어요"))

	require.NoError(t, e.Submit(context.Background(), answers))
	require.Equal(t, 1, spy.calls)
	assert.Equal(t, 2, spy.last["helpfulness"])
	assert.Equal(t, 3, spy.last["accuracy"])
	assert.Equal(t, "답변이 빨랐어요", spy.last["feedback"])
}

func TestMissing_Order(t *testing.T) {
	e := NewEngine(loadTestSchema(t, testSchema), &spySubmitter{})
	missing := e.Missing(domain.AnswerMap{"accuracy": 1})
	assert.Equal(t, []string{"helpfulness", "feedback"}, missing)
}
