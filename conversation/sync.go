package conversation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ypereira/messenger/identity"
	"github.com/ypereira/messenger/log"
	"github.com/ypereira/messenger/message"
	"github.com/ypereira/messenger/session"
	"github.com/ypereira/messenger/store"
)

const errorMsgLogField = "errorMsg"

// Synchronizer issues the read-modify-write round trips that keep both
// participants' summary lists and the shared message log in step. The store
// gives at most last-writer-wins per path, so two concurrent sends against
// the same conversation can clobber each other's append; the design accepts
// that race rather than hiding a lock here.
type Synchronizer struct {
	store store.Store
}

func NewSynchronizer(st store.Store) *Synchronizer {
	return &Synchronizer{store: st}
}

// CreateConversation starts a new conversation between the session user and
// otherUserEmail, seeded with firstMessage, and returns the new conversation
// id. The sender's summary and the message log must both be written for the
// call to succeed; the fan-out into the recipient's list is best effort and
// a failure there is logged, never surfaced.
func (s *Synchronizer) CreateConversation(ctx context.Context, sess session.Session, otherUserEmail, name string, firstMessage message.Message) (string, error) {
	logger := log.LoggerFromContext(ctx)
	safeEmail := sess.SafeEmail()

	var userNode map[string]any
	if err := s.store.Get(ctx, safeEmail, &userNode); err != nil {
		return "", fmt.Errorf("reading user record: %w", err)
	}
	if userNode == nil {
		return "", ErrUserNotFound
	}

	record := message.Encode(firstMessage)
	conversationID := identity.ConversationID(firstMessage.ID)
	latest := latestRecord{Date: record.Date, Message: record.Content, IsRead: false}

	summary := summaryRecord{
		ID:             conversationID,
		OtherUserEmail: identity.SafeEmail(otherUserEmail),
		Name:           name,
		LatestMessage:  latest,
	}
	mirrored := summaryRecord{
		ID:             conversationID,
		OtherUserEmail: safeEmail,
		Name:           sess.DisplayName,
		LatestMessage:  latest,
	}

	s.fanOutToRecipient(ctx, identity.SafeEmail(otherUserEmail), mirrored)

	var ownList []summaryRecord
	if raw, ok := userNode["conversations"]; ok {
		if err := remarshal(raw, &ownList); err != nil {
			return "", fmt.Errorf("%w: conversations list: %v", ErrFetchFailed, err)
		}
	}
	userNode["conversations"] = append(ownList, summary)
	if err := s.store.Set(ctx, safeEmail, userNode); err != nil {
		return "", fmt.Errorf("writing conversation list: %w", err)
	}

	// the log starts with exactly the first message
	seed := map[string]any{"messages": []message.Record{record}}
	if err := s.store.Set(ctx, conversationID, seed); err != nil {
		return "", fmt.Errorf("creating message log: %w", err)
	}

	logger.Info("conversation created",
		slog.String("conversationID", conversationID),
	)
	return conversationID, nil
}

// fanOutToRecipient appends the mirrored summary to the recipient's list,
// creating the list when absent. Errors are logged and swallowed; the
// caller's outcome never depends on this write.
func (s *Synchronizer) fanOutToRecipient(ctx context.Context, recipientSafeEmail string, mirrored summaryRecord) {
	logger := log.LoggerFromContext(ctx)
	path := conversationsPath(recipientSafeEmail)

	var list []summaryRecord
	if err := s.store.Get(ctx, path, &list); err != nil {
		logger.Error("reading recipient conversation list", slog.String(errorMsgLogField, err.Error()))
		return
	}
	if err := s.store.Set(ctx, path, append(list, mirrored)); err != nil {
		logger.Error("writing recipient conversation list", slog.String(errorMsgLogField, err.Error()))
	}
}

// SendMessage appends msg to an existing conversation and refreshes the
// latest-message preview in both participants' lists. The append is a full
// array rewrite (the store has no append primitive). A failure of either
// preview update fails the call with no rollback; the appended message stays.
func (s *Synchronizer) SendMessage(ctx context.Context, sess session.Session, conversationID, otherUserEmail, name string, msg message.Message) error {
	var records []message.Record
	if err := s.store.Get(ctx, messagesPath(conversationID), &records); err != nil {
		return fmt.Errorf("reading message log: %w", err)
	}
	if records == nil {
		return ErrConversationNotFound
	}

	record := message.Encode(msg)
	if err := s.store.Set(ctx, messagesPath(conversationID), append(records, record)); err != nil {
		return fmt.Errorf("appending message: %w", err)
	}

	latest := latestRecord{Date: record.Date, Message: record.Content, IsRead: false}
	safeEmail := sess.SafeEmail()
	otherSafeEmail := identity.SafeEmail(otherUserEmail)

	if err := s.updateSummary(ctx, safeEmail, conversationID, otherSafeEmail, name, latest); err != nil {
		return fmt.Errorf("updating sender conversation list: %w", err)
	}
	if err := s.updateSummary(ctx, otherSafeEmail, conversationID, safeEmail, sess.DisplayName, latest); err != nil {
		return fmt.Errorf("updating recipient conversation list: %w", err)
	}
	return nil
}

// updateSummary overwrites the latest message of the owner's entry matching
// conversationID. When the entry is gone (the owner deleted the conversation
// on their side) a fresh summary is appended, so the thread reappears.
func (s *Synchronizer) updateSummary(ctx context.Context, ownerSafeEmail, conversationID, otherUserEmail, name string, latest latestRecord) error {
	path := conversationsPath(ownerSafeEmail)

	var list []summaryRecord
	if err := s.store.Get(ctx, path, &list); err != nil {
		return err
	}

	found := false
	for i := range list {
		if list[i].ID == conversationID {
			list[i].LatestMessage = latest
			found = true
			break
		}
	}
	if !found {
		list = append(list, summaryRecord{
			ID:             conversationID,
			OtherUserEmail: otherUserEmail,
			Name:           name,
			LatestMessage:  latest,
		})
	}
	return s.store.Set(ctx, path, list)
}

// DeleteConversation removes the conversation from the session user's own
// list only. The other participant's summary and the shared message log are
// untouched; deletion is local to one side.
func (s *Synchronizer) DeleteConversation(ctx context.Context, sess session.Session, conversationID string) error {
	logger := log.LoggerFromContext(ctx)
	path := conversationsPath(sess.SafeEmail())

	var list []summaryRecord
	if err := s.store.Get(ctx, path, &list); err != nil {
		return fmt.Errorf("reading conversation list: %w", err)
	}

	kept := make([]summaryRecord, 0, len(list))
	for _, c := range list {
		if c.ID != conversationID {
			kept = append(kept, c)
		}
	}
	if err := s.store.Set(ctx, path, kept); err != nil {
		return fmt.Errorf("writing conversation list: %w", err)
	}

	logger.Info("conversation deleted", slog.String("conversationID", conversationID))
	return nil
}

// ConversationExists looks for an existing thread between the session user
// and recipientEmail by scanning the recipient's list for an entry pointing
// back at the sender, and returns its id. ErrConversationNotFound means a
// new conversation should be created instead.
func (s *Synchronizer) ConversationExists(ctx context.Context, sess session.Session, recipientEmail string) (string, error) {
	var list []summaryRecord
	if err := s.store.Get(ctx, conversationsPath(identity.SafeEmail(recipientEmail)), &list); err != nil {
		return "", fmt.Errorf("reading recipient conversation list: %w", err)
	}
	if list == nil {
		return "", ErrConversationNotFound
	}

	senderSafeEmail := sess.SafeEmail()
	for _, c := range list {
		if c.OtherUserEmail == senderSafeEmail {
			return c.ID, nil
		}
	}
	return "", ErrConversationNotFound
}
