package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ypereira/messenger/identity"
	"github.com/ypereira/messenger/log"
	"github.com/ypereira/messenger/message"
	"github.com/ypereira/messenger/store"
)

// Queries are the read-side projections the client screens consume. They
// never write; malformed entries are logged and skipped rather than failing
// the whole list.
type Queries struct {
	store store.Store
}

func NewQueries(st store.Store) *Queries {
	return &Queries{store: st}
}

// Conversations returns the user's current conversation list once.
func (q *Queries) Conversations(ctx context.Context, email string) ([]Conversation, error) {
	var raw []json.RawMessage
	if err := q.store.Get(ctx, conversationsPath(identity.SafeEmail(email)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if raw == nil {
		return nil, ErrFetchFailed
	}
	return decodeSummaries(ctx, raw), nil
}

// ObserveConversations subscribes to the user's conversation list and calls
// onChange with the decoded list on every snapshot. Blocks until ctx is done.
func (q *Queries) ObserveConversations(ctx context.Context, email string, onChange func([]Conversation)) error {
	return q.store.Observe(ctx, conversationsPath(identity.SafeEmail(email)), func(data json.RawMessage) {
		logger := log.LoggerFromContext(ctx)
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			logger.Error("conversation list unreadable", slog.String(errorMsgLogField, err.Error()))
			return
		}
		onChange(decodeSummaries(ctx, raw))
	})
}

// Messages returns the conversation's message log once, oldest first.
func (q *Queries) Messages(ctx context.Context, conversationID string) ([]message.Message, error) {
	var raw []json.RawMessage
	if err := q.store.Get(ctx, messagesPath(conversationID), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if raw == nil {
		return nil, ErrFetchFailed
	}
	return decodeRecords(ctx, raw), nil
}

// ObserveMessages subscribes to the conversation's message log. Blocks until
// ctx is done.
func (q *Queries) ObserveMessages(ctx context.Context, conversationID string, onChange func([]message.Message)) error {
	return q.store.Observe(ctx, messagesPath(conversationID), func(data json.RawMessage) {
		logger := log.LoggerFromContext(ctx)
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			logger.Error("message log unreadable", slog.String(errorMsgLogField, err.Error()))
			return
		}
		onChange(decodeRecords(ctx, raw))
	})
}

func decodeSummaries(ctx context.Context, raw []json.RawMessage) []Conversation {
	logger := log.LoggerFromContext(ctx)
	out := make([]Conversation, 0, len(raw))
	for _, entry := range raw {
		var rec summaryRecord
		if err := json.Unmarshal(entry, &rec); err != nil {
			logger.Info("dropping malformed conversation entry", slog.String(errorMsgLogField, err.Error()))
			continue
		}
		if !rec.valid() {
			logger.Info("dropping incomplete conversation entry", slog.String("id", rec.ID))
			continue
		}
		out = append(out, rec.conversation())
	}
	return out
}

func decodeRecords(ctx context.Context, raw []json.RawMessage) []message.Message {
	logger := log.LoggerFromContext(ctx)
	out := make([]message.Message, 0, len(raw))
	for _, entry := range raw {
		var r message.Record
		if err := json.Unmarshal(entry, &r); err != nil {
			logger.Info("dropping malformed message record", slog.String(errorMsgLogField, err.Error()))
			continue
		}
		m, err := message.Decode(r)
		if err != nil {
			logger.Info("dropping malformed message record",
				slog.String("id", r.ID),
				slog.String(errorMsgLogField, err.Error()),
			)
			continue
		}
		out = append(out, m)
	}
	return out
}
