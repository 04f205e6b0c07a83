// Package conversation keeps two users' conversation lists and their shared
// message log consistent over the document store. Every conversation is
// written three times: once into each participant's own subtree as a preview
// summary, and once as the shared message log keyed by the conversation id.
package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrFetchFailed          = errors.New("failed to fetch")
)

// Conversation is the per-user denormalized preview of a thread.
type Conversation struct {
	ID             string
	Name           string
	OtherUserEmail string
	LatestMessage  LatestMessage
}

type LatestMessage struct {
	Date   string
	Text   string
	IsRead bool
}

// summaryRecord is the persisted shape of one element of a user's
// conversations array.
type summaryRecord struct {
	ID             string       `json:"id"`
	OtherUserEmail string       `json:"other_user_email"`
	Name           string       `json:"name"`
	LatestMessage  latestRecord `json:"latest_message"`
}

type latestRecord struct {
	Date    string `json:"date"`
	Message string `json:"message"`
	IsRead  bool   `json:"is_read"`
}

func (r summaryRecord) valid() bool {
	return r.ID != "" && r.OtherUserEmail != "" && r.Name != "" && r.LatestMessage.Date != ""
}

func (r summaryRecord) conversation() Conversation {
	return Conversation{
		ID:             r.ID,
		Name:           r.Name,
		OtherUserEmail: r.OtherUserEmail,
		LatestMessage: LatestMessage{
			Date:   r.LatestMessage.Date,
			Text:   r.LatestMessage.Message,
			IsRead: r.LatestMessage.IsRead,
		},
	}
}

// remarshal coerces a generic JSON value into a typed one.
func remarshal(from any, to any) error {
	data, err := json.Marshal(from)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, to)
}

func conversationsPath(safeEmail string) string {
	return fmt.Sprintf("%s/conversations", safeEmail)
}

func messagesPath(conversationID string) string {
	return fmt.Sprintf("%s/messages", conversationID)
}
