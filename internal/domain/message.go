package domain

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Message is one turn in the conversation. Messages are append-only:
// once added to a Log they are never mutated.
//
// The JSON keys match the stored chat-log format, so logs written by
// earlier deployments remain loadable.
type Message struct {
	Role        Role     `json:"role"`
	Text        string   `json:"text"`
	Time        string   `json:"time"`
	Confidence  *float64 `json:"confidence,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Log is the ordered conversation history, oldest first.
type Log []Message

// Answer is the normalized result of one ask-question round trip.
// The remote service's field-name variants are resolved into this
// record at the client boundary.
type Answer struct {
	Text        string
	Confidence  *float64
	Suggestions []string
}
