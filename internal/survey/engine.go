package survey

import (
	"context"
	"fmt"

	"github.com/haneul-dev/bertbot/internal/domain"
)

// Submitter sends a complete answer map to the remote survey store.
type Submitter interface {
	SubmitSurvey(ctx context.Context, answers domain.AnswerMap) error
}

// Engine builds and validates an answer map against the schema and
// delegates submission to the network client.
type Engine struct {
	schema    *Schema
	submitter Submitter
}

func NewEngine(schema *Schema, submitter Submitter) *Engine {
	return &Engine{schema: schema, submitter: submitter}
}

func (e *Engine) Questions() []domain.SurveyQuestion {
	return e.schema.Questions()
}

// Record stores one answer. Free-text questions keep the raw value
// as-is (it may be empty mid-edit); choice questions resolve the value
// against the option list and store its 1-based index, so an absent
// key stays distinguishable from option zero.
//
// Unknown question or option values mean the inputs presented to the
// user disagree with the schema; they cannot be produced through the
// public surface.
func (e *Engine) Record(answers domain.AnswerMap, questionID, raw string) error {
	q, ok := e.schema.Question(questionID)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownQuestion, questionID)
	}

	if q.FreeText() {
		answers[questionID] = raw
		return nil
	}

	for i, opt := range q.Options {
		if opt == raw {
			answers[questionID] = i + 1
			return nil
		}
	}
	return fmt.Errorf("%w: %q for question %q", domain.ErrUnknownOption, raw, questionID)
}

// Missing returns the ids of questions without a usable answer, in
// schema order. Empty means the map is complete.
func (e *Engine) Missing(answers domain.AnswerMap) []string {
	var missing []string
	for _, q := range e.schema.Questions() {
		v, ok := answers[q.ID]
		if !ok {
			missing = append(missing, q.ID)
			continue
		}
		switch val := v.(type) {
		case string:
			if val == "" {
				missing = append(missing, q.ID)
			}
		case int:
			// 1-based index; any recorded int is an answered choice.
		default:
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// Submit validates and, when complete, forwards the answer map to the
// survey endpoint. Incomplete maps return ErrValidationIncomplete
// without touching the network; entered answers are preserved.
func (e *Engine) Submit(ctx context.Context, answers domain.AnswerMap) error {
	if missing := e.Missing(answers); len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", domain.ErrValidationIncomplete, missing)
	}
	return e.submitter.SubmitSurvey(ctx, answers)
}
