package messenger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/ypereira/messenger/auth"
	"github.com/ypereira/messenger/contract"
	"github.com/ypereira/messenger/conversation"
	"github.com/ypereira/messenger/identity"
	"github.com/ypereira/messenger/log"
	"github.com/ypereira/messenger/message"
	"github.com/ypereira/messenger/session"
	"github.com/ypereira/messenger/user"
)

// inbound text content is stored as-is and rendered by several clients;
// strip markup at the boundary
var sanitizer = bluemonday.StrictPolicy()

// beginRequest authenticates the request and returns a context carrying a
// request-scoped logger and trace id. On failure the response is already
// written.
func beginRequest(w http.ResponseWriter, r *http.Request, method string) (context.Context, session.Session, bool) {
	ctx := r.Context()
	requestID := uuid.NewString()
	logger := log.LoggerFromContext(ctx).With(slog.String(requestIDLogField, requestID))
	ctx = log.WithTrace(ctx, requestID)

	if r.Method != method {
		logger.Error("invalid method: " + r.Method)
		http.Error(w, "Method Not Implemented", http.StatusNotImplemented)
		return nil, session.Session{}, false
	}

	token, err := auth.Authenticate(r)
	if err != nil {
		logger.Error("error while authenticating", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, session.Session{}, false
	}
	sess, err := auth.SessionFromToken(token)
	if err != nil {
		logger.Error("error while building session", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, session.Session{}, false
	}

	logger = logger.With(slog.String(userIDLogField, token.UID))
	return log.WithLogger(ctx, logger), sess, true
}

func decodeBody(ctx context.Context, w http.ResponseWriter, r *http.Request, v any) bool {
	logger := log.LoggerFromContext(ctx)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("error while reading request body", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return false
	}
	logger.Info("incoming request", slog.String(bodyLogField, string(data)))

	if err := json.Unmarshal(data, v); err != nil {
		logger.Error("error while decoding request", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(ctx context.Context, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.LoggerFromContext(ctx).Error("error while encoding response", slog.String(ErrorMsgLogField, err.Error()))
	}
}

// messageFromPayload turns the wire payload into a typed message from the
// session user. A missing id is derived from the pair and the send time.
func messageFromPayload(p contract.MessagePayload, sess session.Session, otherUserEmail string) (message.Message, error) {
	sentAt := time.Now()
	id := p.ID
	if id == "" {
		id = identity.NewMessageID(otherUserEmail, sess.Email, sentAt)
	}
	m := message.Message{
		ID:     id,
		SentAt: sentAt,
		Sender: message.Sender{Email: sess.SafeEmail(), DisplayName: sess.DisplayName},
		Kind:   message.Kind(p.Type),
	}
	switch m.Kind {
	case message.KindText:
		m.Text = sanitizer.Sanitize(p.Content)
	case message.KindPhoto, message.KindVideo:
		u, err := url.ParseRequestURI(p.Content)
		if err != nil {
			return message.Message{}, fmt.Errorf("invalid media url: %w", err)
		}
		m.Media = &message.Media{URL: u.String()}
	case message.KindAttributedText, message.KindLocation, message.KindEmoji,
		message.KindAudio, message.KindContact, message.KindLinkPreview, message.KindCustom:
		m.Raw = p.Content
	default:
		return message.Message{}, fmt.Errorf("unknown message type %q", p.Type)
	}
	return m, nil
}

// Register creates the account node and the directory entry for the
// signed-in user.
func Register(w http.ResponseWriter, r *http.Request) {
	ctx, sess, ok := beginRequest(w, r, http.MethodPost)
	if !ok {
		return
	}
	logger := log.LoggerFromContext(ctx)

	var req contract.RegisterRequest
	if !decodeBody(ctx, w, r, &req) {
		return
	}

	s, err := getService(ctx)
	if err != nil {
		logger.Error("error while wiring service", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	exists, err := s.accounts.Exists(ctx, sess.Email)
	if err != nil {
		logger.Error("error while checking account", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if exists {
		http.Error(w, "Conflict", http.StatusConflict)
		return
	}

	u := user.User{FirstName: req.FirstName, LastName: req.LastName, Email: sess.Email}
	if err := s.accounts.Insert(ctx, u); err != nil {
		logger.Error("error while inserting user", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func CreateConversation(w http.ResponseWriter, r *http.Request) {
	ctx, sess, ok := beginRequest(w, r, http.MethodPost)
	if !ok {
		return
	}
	logger := log.LoggerFromContext(ctx)

	var req contract.CreateConversationRequest
	if !decodeBody(ctx, w, r, &req) {
		return
	}
	logger = logger.With(slog.String(otherUserEmailLogField, identity.SafeEmail(req.OtherUserEmail)))
	ctx = log.WithLogger(ctx, logger)

	first, err := messageFromPayload(req.Message, sess, req.OtherUserEmail)
	if err != nil {
		logger.Error("error while building message", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	s, err := getService(ctx)
	if err != nil {
		logger.Error("error while wiring service", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	conversationID, err := s.sync.CreateConversation(ctx, sess, req.OtherUserEmail, req.Name, first)
	if err != nil {
		logger.Error("error while creating conversation", slog.String(ErrorMsgLogField, err.Error()))
		if errors.Is(err, conversation.ErrUserNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(ctx, w, contract.CreateConversationResponse{ConversationID: conversationID})
}

func SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, sess, ok := beginRequest(w, r, http.MethodPost)
	if !ok {
		return
	}
	logger := log.LoggerFromContext(ctx)

	var req contract.SendMessageRequest
	if !decodeBody(ctx, w, r, &req) {
		return
	}
	logger = logger.With(slog.String(conversationIDLogField, req.ConversationID))
	ctx = log.WithLogger(ctx, logger)

	msg, err := messageFromPayload(req.Message, sess, req.OtherUserEmail)
	if err != nil {
		logger.Error("error while building message", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	s, err := getService(ctx)
	if err != nil {
		logger.Error("error while wiring service", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := s.sync.SendMessage(ctx, sess, req.ConversationID, req.OtherUserEmail, req.Name, msg); err != nil {
		logger.Error("error while sending message", slog.String(ErrorMsgLogField, err.Error()))
		if errors.Is(err, conversation.ErrConversationNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func DeleteConversation(w http.ResponseWriter, r *http.Request) {
	ctx, sess, ok := beginRequest(w, r, http.MethodPost)
	if !ok {
		return
	}
	logger := log.LoggerFromContext(ctx)

	var req contract.DeleteConversationRequest
	if !decodeBody(ctx, w, r, &req) {
		return
	}

	s, err := getService(ctx)
	if err != nil {
		logger.Error("error while wiring service", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := s.sync.DeleteConversation(ctx, sess, req.ConversationID); err != nil {
		logger.Error("error while deleting conversation", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Conversations returns the signed-in user's conversation list.
func Conversations(w http.ResponseWriter, r *http.Request) {
	ctx, sess, ok := beginRequest(w, r, http.MethodGet)
	if !ok {
		return
	}
	logger := log.LoggerFromContext(ctx)

	s, err := getService(ctx)
	if err != nil {
		logger.Error("error while wiring service", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	list, err := s.queries.Conversations(ctx, sess.Email)
	if err != nil {
		logger.Error("error while listing conversations", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	out := make([]contract.Conversation, 0, len(list))
	for _, c := range list {
		out = append(out, contract.Conversation{
			ID:             c.ID,
			Name:           c.Name,
			OtherUserEmail: c.OtherUserEmail,
			LatestMessage: contract.LatestMessage{
				Date:    c.LatestMessage.Date,
				Message: c.LatestMessage.Text,
				IsRead:  c.LatestMessage.IsRead,
			},
		})
	}
	writeJSON(ctx, w, out)
}

// Messages returns the message log of the conversation named by the
// conversation_id query parameter.
func Messages(w http.ResponseWriter, r *http.Request) {
	ctx, _, ok := beginRequest(w, r, http.MethodGet)
	if !ok {
		return
	}
	logger := log.LoggerFromContext(ctx)

	conversationID := r.URL.Query().Get("conversation_id")
	if conversationID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	logger = logger.With(slog.String(conversationIDLogField, conversationID))
	ctx = log.WithLogger(ctx, logger)

	s, err := getService(ctx)
	if err != nil {
		logger.Error("error while wiring service", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	msgs, err := s.queries.Messages(ctx, conversationID)
	if err != nil {
		logger.Error("error while listing messages", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	out := make([]contract.Message, 0, len(msgs))
	for _, m := range msgs {
		record := message.Encode(m)
		out = append(out, contract.Message{
			ID:          record.ID,
			Type:        record.Type,
			Content:     record.Content,
			Date:        record.Date,
			SenderEmail: record.SenderEmail,
			Name:        record.Name,
		})
	}
	writeJSON(ctx, w, out)
}

// Users returns the global user directory for the search screen.
func Users(w http.ResponseWriter, r *http.Request) {
	ctx, _, ok := beginRequest(w, r, http.MethodGet)
	if !ok {
		return
	}
	logger := log.LoggerFromContext(ctx)

	s, err := getService(ctx)
	if err != nil {
		logger.Error("error while wiring service", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	directory, err := s.accounts.All(ctx)
	if err != nil {
		logger.Error("error while listing users", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	out := make([]contract.DirectoryUser, 0, len(directory))
	for _, entry := range directory {
		out = append(out, contract.DirectoryUser{Name: entry.Name, Email: entry.Email})
	}
	writeJSON(ctx, w, out)
}

// UploadAttachment stores a photo or video asset (raw request body) and
// returns the download URL to reference from a photo/video message.
func UploadAttachment(w http.ResponseWriter, r *http.Request) {
	ctx, sess, ok := beginRequest(w, r, http.MethodPost)
	if !ok {
		return
	}
	logger := log.LoggerFromContext(ctx)

	data, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("error while reading request body", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if len(data) == 0 {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	s, err := getService(ctx)
	if err != nil {
		logger.Error("error while wiring service", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var downloadURL string
	fileName := sess.SafeEmail() + "_" + uuid.NewString()
	switch kind := r.URL.Query().Get("kind"); kind {
	case "photo":
		downloadURL, err = s.blobs.UploadMessagePhoto(ctx, data, fileName+".png")
	case "video":
		downloadURL, err = s.blobs.UploadMessageVideo(ctx, data, fileName+".mov")
	case "profile_picture":
		downloadURL, err = s.blobs.UploadProfilePicture(ctx, data, sess.SafeEmail()+"_profile_picture.png")
	default:
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err != nil {
		logger.Error("error while uploading attachment", slog.String(ErrorMsgLogField, err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(ctx, w, contract.UploadAttachmentResponse{URL: downloadURL})
}
