package model

import "time"

// SendRequest is the body of POST /api/send.
type SendRequest struct {
	Phone     string `json:"phone"`
	Message   string `json:"message,omitempty"`
	MediaURL  string `json:"media_url,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	Caption   string `json:"caption,omitempty"`
}

// MediaPayload is a fetched media resource ready to be uploaded.
type MediaPayload struct {
	MimeType string
	Data     []byte
	Filename string
}

// OutboundMessage is what the WhatsApp client is asked to deliver. Exactly
// one of Text or Media is used; Caption only applies to media kinds that
// carry one.
type OutboundMessage struct {
	To      string
	Text    string
	Media   *MediaPayload
	Kind    MediaKind
	Caption string
}

type SentMessage struct {
	ID        string
	Timestamp time.Time
}

type SendResult struct {
	MessageID string    `json:"message_id"`
	Phone     string    `json:"phone"`
	Timestamp time.Time `json:"timestamp"`
}
