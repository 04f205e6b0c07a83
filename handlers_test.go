package messenger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ypereira/messenger/contract"
	"github.com/ypereira/messenger/message"
	"github.com/ypereira/messenger/session"
)

var testSession = session.Session{Email: "alice@x.com", DisplayName: "Alice Liddell"}

func TestMessageFromPayloadText(t *testing.T) {
	m, err := messageFromPayload(contract.MessagePayload{Type: "text", Content: "hello"}, testSession, "bob@y.com")
	require.NoError(t, err)
	assert.Equal(t, message.KindText, m.Kind)
	assert.Equal(t, "hello", m.Text)
	assert.Equal(t, "alice-x-com", m.Sender.Email)
	// derived id starts with the pair
	assert.True(t, strings.HasPrefix(m.ID, "bob-y-com_alice-x-com_"), m.ID)
}

func TestMessageFromPayloadStripsMarkup(t *testing.T) {
	payload := contract.MessagePayload{Type: "text", Content: `hi <script>alert("x")</script>there`}
	m, err := messageFromPayload(payload, testSession, "bob@y.com")
	require.NoError(t, err)
	assert.NotContains(t, m.Text, "<script>")
	assert.Contains(t, m.Text, "hi ")
}

func TestMessageFromPayloadKeepsClientID(t *testing.T) {
	m, err := messageFromPayload(contract.MessagePayload{ID: "m42", Type: "text", Content: "x"}, testSession, "bob@y.com")
	require.NoError(t, err)
	assert.Equal(t, "m42", m.ID)
}

func TestMessageFromPayloadMedia(t *testing.T) {
	payload := contract.MessagePayload{Type: "photo", Content: "https://storage.example.com/message_images/p.png"}
	m, err := messageFromPayload(payload, testSession, "bob@y.com")
	require.NoError(t, err)
	require.NotNil(t, m.Media)
	assert.Equal(t, payload.Content, m.Media.URL)
}

func TestMessageFromPayloadBadMediaURL(t *testing.T) {
	_, err := messageFromPayload(contract.MessagePayload{Type: "video", Content: "not a url"}, testSession, "bob@y.com")
	assert.Error(t, err)
}

func TestMessageFromPayloadOpaqueKind(t *testing.T) {
	payload := contract.MessagePayload{Type: "location", Content: "4.60971,-74.08175"}
	m, err := messageFromPayload(payload, testSession, "bob@y.com")
	require.NoError(t, err)
	assert.Equal(t, message.KindLocation, m.Kind)
	assert.Equal(t, payload.Content, m.Raw)
}

func TestMessageFromPayloadUnknownKind(t *testing.T) {
	_, err := messageFromPayload(contract.MessagePayload{Type: "sticker", Content: "x"}, testSession, "bob@y.com")
	assert.Error(t, err)
}
