package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ypereira/messenger/identity"
)

var sentAt = time.Date(2023, time.October, 17, 15, 4, 5, 0, time.UTC)

func textMessage(text string) Message {
	return Message{
		ID:     "bob-y-com_alice-x-com_" + identity.FormatTime(sentAt),
		SentAt: sentAt,
		Sender: Sender{Email: "alice-x-com", DisplayName: "Alice"},
		Kind:   KindText,
		Text:   text,
	}
}

func TestTextRoundTrip(t *testing.T) {
	// sender email is the safe identifier, as stored records always carry it
	original := textMessage("hello there")
	decoded, err := Decode(Encode(original))
	require.NoError(t, err)
	assert.True(t, decoded.SentAt.Equal(original.SentAt))
	decoded.SentAt = original.SentAt
	assert.Equal(t, original, decoded)
}

func TestEncodeMedia(t *testing.T) {
	m := textMessage("")
	m.Kind = KindPhoto
	m.Text = ""
	m.Media = &Media{URL: "https://storage.example.com/message_images/p.png"}

	record := Encode(m)
	assert.Equal(t, "photo", record.Type)
	assert.Equal(t, "https://storage.example.com/message_images/p.png", record.Content)
	assert.False(t, record.IsRead)
}

func TestDecodeMedia(t *testing.T) {
	record := Record{
		ID:          "id1",
		Type:        "video",
		Content:     "https://storage.example.com/message_videos/v.mov",
		Date:        identity.FormatTime(sentAt),
		SenderEmail: "alice-x-com",
		Name:        "Alice",
	}
	m, err := Decode(record)
	require.NoError(t, err)
	assert.Equal(t, KindVideo, m.Kind)
	require.NotNil(t, m.Media)
	assert.Equal(t, record.Content, m.Media.URL)
	assert.Equal(t, mediaPlaceholder, m.Media.PlaceholderImage)
	assert.Equal(t, mediaSize, m.Media.Width)
	assert.Equal(t, mediaSize, m.Media.Height)
}

// Opaque kinds used to encode an empty content string and were unrecoverable.
// They now carry their raw payload through the record and back.
func TestOpaqueKindRoundTrip(t *testing.T) {
	original := textMessage("")
	original.Text = ""
	original.Kind = KindLocation
	original.Raw = "4.60971,-74.08175"

	decoded, err := Decode(Encode(original))
	require.NoError(t, err)
	decoded.SentAt = original.SentAt
	assert.Equal(t, original, decoded)
}

func TestDecodeFailures(t *testing.T) {
	valid := Encode(textMessage("hi"))

	tests := []struct {
		name   string
		mutate func(r *Record)
	}{
		{
			name:   "missing id",
			mutate: func(r *Record) { r.ID = "" },
		},
		{
			name:   "missing type",
			mutate: func(r *Record) { r.Type = "" },
		},
		{
			name:   "missing sender",
			mutate: func(r *Record) { r.SenderEmail = "" },
		},
		{
			name:   "missing name",
			mutate: func(r *Record) { r.Name = "" },
		},
		{
			name:   "unparseable date",
			mutate: func(r *Record) { r.Date = "2023-10-17T15:04:05Z" },
		},
		{
			name:   "unknown type",
			mutate: func(r *Record) { r.Type = "sticker" },
		},
		{
			name: "malformed media url",
			mutate: func(r *Record) {
				r.Type = "photo"
				r.Content = "not a url"
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			record := valid
			test.mutate(&record)
			_, err := Decode(record)
			assert.Error(t, err)
		})
	}
}
