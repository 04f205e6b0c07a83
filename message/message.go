package message

import "time"

// Kind tags the payload variant of a Message. The set is closed; records with
// an unknown type tag fail to decode.
type Kind string

const (
	KindText           Kind = "text"
	KindAttributedText Kind = "attributed_text"
	KindPhoto          Kind = "photo"
	KindVideo          Kind = "video"
	KindLocation       Kind = "location"
	KindEmoji          Kind = "emoji"
	KindAudio          Kind = "audio"
	KindContact        Kind = "contact"
	KindLinkPreview    Kind = "linkPreview"
	KindCustom         Kind = "custom"
)

type Sender struct {
	Email       string
	DisplayName string
}

// Media references an already-uploaded asset. The codec only ever sees the
// download URL; uploading bytes is the blob store's job.
type Media struct {
	URL              string
	PlaceholderImage string
	Width            int
	Height           int
}

// Message is the tagged payload exchanged in a conversation. Exactly one of
// Text, Media or Raw is populated, selected by Kind: Text for KindText, Media
// for KindPhoto/KindVideo, Raw for every other kind (an opaque payload that
// round-trips through the record untouched).
type Message struct {
	ID     string
	SentAt time.Time
	Sender Sender
	Kind   Kind
	Text   string
	Media  *Media
	Raw    string
}
