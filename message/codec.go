package message

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/ypereira/messenger/identity"
)

// Record is the flat shape persisted in a conversation's messages array.
type Record struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Content     string `json:"content"`
	Date        string `json:"date"`
	SenderEmail string `json:"sender_email"`
	IsRead      bool   `json:"is_read"`
	Name        string `json:"name"`
}

const (
	// placeholder shown while a photo/video downloads; fixed bubble size
	mediaPlaceholder = "plus"
	mediaSize        = 300
)

var errMissingField = errors.New("record is missing a required field")

// Encode flattens a message into its persisted record. Content is the literal
// text for text messages, the asset download URL for photo/video, and the
// opaque raw payload for every other kind.
func Encode(m Message) Record {
	var content string
	switch m.Kind {
	case KindText:
		content = m.Text
	case KindPhoto, KindVideo:
		if m.Media != nil {
			content = m.Media.URL
		}
	default:
		content = m.Raw
	}
	return Record{
		ID:          m.ID,
		Type:        string(m.Kind),
		Content:     content,
		Date:        identity.FormatTime(m.SentAt),
		SenderEmail: identity.SafeEmail(m.Sender.Email),
		IsRead:      false,
		Name:        m.Sender.DisplayName,
	}
}

// Decode reconstructs a message from its record. It fails when a required
// field is absent, the date does not parse with the fixed layout, or a
// photo/video content is not a well-formed URL. Photo and video messages come
// back wrapped with the placeholder image and the default bubble size.
func Decode(r Record) (Message, error) {
	if r.ID == "" || r.Type == "" || r.Date == "" || r.SenderEmail == "" || r.Name == "" {
		return Message{}, errMissingField
	}
	sentAt, err := identity.ParseTime(r.Date)
	if err != nil {
		return Message{}, fmt.Errorf("parsing date %q: %w", r.Date, err)
	}

	m := Message{
		ID:     r.ID,
		SentAt: sentAt,
		Sender: Sender{Email: r.SenderEmail, DisplayName: r.Name},
		Kind:   Kind(r.Type),
	}
	switch m.Kind {
	case KindText:
		m.Text = r.Content
	case KindPhoto, KindVideo:
		u, err := url.ParseRequestURI(r.Content)
		if err != nil {
			return Message{}, fmt.Errorf("parsing media url: %w", err)
		}
		m.Media = &Media{
			URL:              u.String(),
			PlaceholderImage: mediaPlaceholder,
			Width:            mediaSize,
			Height:           mediaSize,
		}
	case KindAttributedText, KindLocation, KindEmoji, KindAudio, KindContact, KindLinkPreview, KindCustom:
		m.Raw = r.Content
	default:
		return Message{}, fmt.Errorf("unknown message type %q", r.Type)
	}
	return m, nil
}
