package contract

// MessagePayload is the client's view of a message being sent. ID is
// optional; the server derives one from the participant pair and send time
// when absent.
type MessagePayload struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

type CreateConversationRequest struct {
	OtherUserEmail string         `json:"other_user_email"`
	Name           string         `json:"name"`
	Message        MessagePayload `json:"message"`
}

type CreateConversationResponse struct {
	ConversationID string `json:"conversation_id"`
}

type SendMessageRequest struct {
	ConversationID string         `json:"conversation_id"`
	OtherUserEmail string         `json:"other_user_email"`
	Name           string         `json:"name"`
	Message        MessagePayload `json:"message"`
}

type DeleteConversationRequest struct {
	ConversationID string `json:"conversation_id"`
}

type LatestMessage struct {
	Date    string `json:"date"`
	Message string `json:"message"`
	IsRead  bool   `json:"is_read"`
}

type Conversation struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	OtherUserEmail string        `json:"other_user_email"`
	LatestMessage  LatestMessage `json:"latest_message"`
}

type Message struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Content     string `json:"content"`
	Date        string `json:"date"`
	SenderEmail string `json:"sender_email"`
	Name        string `json:"name"`
}

type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type DirectoryUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type UploadAttachmentResponse struct {
	URL string `json:"url"`
}
