package config

import "time"

const (
	// QA request timeout. The source widget had none; a resident
	// process needs an upper bound, and a timeout surfaces the same
	// way as any other transport failure.
	RequestTimeout = 30 * time.Second

	// Fixed bot copy. Kept verbatim from the widget this bot replaces
	// so stored logs stay comparable.
	FarewellText     = "챗봇이 종료되었습니다. 설문에 참여해주세요 😊"
	ServerErrorText  = "서버 오류! 연결 실패"
	SurveyThanksText = "설문이 성공적으로 제출되었습니다. 감사합니다!"
	SurveyFailText   = "설문 제출에 실패했습니다. 잠시 후 다시 시도해주세요."

	// NoMatchSentinel is the answer string the QA service returns when
	// nothing relevant was found. Suggestions are suppressed on it.
	NoMatchSentinel = "We couldn't find a sufficiently relevant answer to your inquiry."

	// FreeTextMarker marks a free-text question in the survey schema.
	FreeTextMarker = "주관식"

	// Storage key prefixes.
	ChatLogKeyPrefix      = "bert_chat_log"
	SessionStateKeyPrefix = "bert_chat_state"
	FeedbackKey           = "bert_chatbot_survey"

	// Message timestamp format (hour:minute, as rendered in the log).
	TimeLayout = "15:04"

	// Rate limit (messages per minute per chat)
	RateLimitPerMinute = 20
)

// TerminationKeywords end active chatting and start the survey flow.
// Matching is exact on the trimmed input.
var TerminationKeywords = []string{"그만", "종료", "고마워"}

// IsTerminationKeyword reports whether the trimmed input is an exact
// termination keyword. "그만 할래" is not a match.
func IsTerminationKeyword(trimmed string) bool {
	for _, kw := range TerminationKeywords {
		if trimmed == kw {
			return true
		}
	}
	return false
}
