package domain

// SurveyQuestion is one static survey descriptor. Options is nil for
// free-text questions and an ordered choice list otherwise.
type SurveyQuestion struct {
	ID      string
	Label   string
	Options []string
}

// FreeText reports whether the question takes a free-form answer.
func (q SurveyQuestion) FreeText() bool { return q.Options == nil }

// AnswerMap maps question IDs to answers: a string for free-text
// questions, a 1-based int index into Options for choice questions.
// Absence of a key means "not answered yet".
type AnswerMap map[string]any
