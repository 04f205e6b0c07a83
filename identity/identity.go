package identity

import (
	"strings"
	"time"
)

// TimeLayout is the fixed human-readable timestamp format shared by message
// ids and persisted records. Changing it would orphan every stored date.
const TimeLayout = "Jan 2, 2006 at 3:04:05 PM MST"

const conversationIDPrefix = "conversation_"

var safeReplacer = strings.NewReplacer(".", "-", "@", "-")

// SafeEmail turns an email address into a storage-path-legal key.
// Realtime database child keys cannot contain "." or "@".
func SafeEmail(email string) string {
	return safeReplacer.Replace(email)
}

func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

// NewMessageID derives a message id from the participant pair and the send
// time. Unique per pair and send time at the layout's granularity; collisions
// at normal send rates are accepted.
func NewMessageID(otherEmail, currentEmail string, sentAt time.Time) string {
	return SafeEmail(otherEmail) + "_" + SafeEmail(currentEmail) + "_" + FormatTime(sentAt)
}

// ConversationID is the canonical id of the shared message log, derived from
// the first message's id.
func ConversationID(messageID string) string {
	return conversationIDPrefix + messageID
}
