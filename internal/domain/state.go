package domain

// State is the conversation lifecycle state of a session.
//
// Active -> SurveyPending -> Completed, in that order only. A session
// never re-enters Active after leaving it.
type State string

const (
	// StateActive accepts user messages.
	StateActive State = "active"
	// StateSurveyPending hides chat input and shows the exit survey.
	StateSurveyPending State = "survey_pending"
	// StateCompleted is terminal: chat and survey input stay disabled.
	StateCompleted State = "completed"
)

func (s State) String() string { return string(s) }

// Valid reports whether s is one of the three known states. Used when
// restoring a persisted state value.
func (s State) Valid() bool {
	switch s {
	case StateActive, StateSurveyPending, StateCompleted:
		return true
	}
	return false
}
