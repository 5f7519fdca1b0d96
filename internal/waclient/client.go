// Package waclient isolates the WhatsApp protocol library behind a small
// capability interface so the session lifecycle can be driven and tested
// without a live connection.
package waclient

import (
	"context"

	"github.com/openclaw/wa-gateway-go/internal/model"
)

const (
	// UserServer is appended to a phone number's digits to address a user.
	UserServer = "s.whatsapp.net"
	// GroupServer addresses group chats.
	GroupServer = "g.us"
)

// UserID builds a user address from a normalized phone number.
func UserID(digits string) string {
	return digits + "@" + UserServer
}

// Client is one live WhatsApp session handle.
type Client interface {
	// Start opens the connection. Pairing and readiness are reported
	// asynchronously through the Events the client was built with.
	Start(ctx context.Context) error
	SendMessage(ctx context.Context, msg model.OutboundMessage) (*model.SentMessage, error)
	Logout(ctx context.Context) error
	GetContacts(ctx context.Context) ([]model.Contact, error)
	GetChats(ctx context.Context) ([]model.Chat, error)
	// GetChatByID returns nil, nil when the chat does not exist.
	GetChatByID(ctx context.Context, id string) (*model.Chat, error)
	// GetContactByID returns nil, nil when no record is known.
	GetContactByID(ctx context.Context, id string) (*model.Contact, error)
	Info() *model.ClientInfo
	// Close drops the connection without logging out.
	Close()
}

// Events receives lifecycle notifications from a Client. Implementations
// must be safe to call from any goroutine.
type Events interface {
	OnQR(code string)
	OnAuthenticated()
	OnReady()
	OnAuthFailure(reason string)
	OnDisconnected(reason string)
}

// Factory builds a Client bound to the session store that reports to events.
type Factory interface {
	NewClient(ctx context.Context, events Events) (Client, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, events Events) (Client, error)

func (f FactoryFunc) NewClient(ctx context.Context, events Events) (Client, error) {
	return f(ctx, events)
}
