package waclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openclaw/wa-gateway-go/internal/model"
)

// Fake is an in-memory Client for tests. Lifecycle events are driven by the
// test through the Events the fake was built with.
type Fake struct {
	mu sync.Mutex

	events Events

	StartErr   error
	SendErr    error
	LogoutErr  error
	QueryErr   error
	ClientInfo *model.ClientInfo
	// CloseHook, when set, runs inside Close before it returns.
	CloseHook func()
	Contacts   []model.Contact
	Chats      []model.Chat

	starts    int
	closed    bool
	loggedOut bool
	sent      []model.OutboundMessage
}

func (f *Fake) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.StartErr
}

func (f *Fake) SendMessage(ctx context.Context, msg model.OutboundMessage) (*model.SentMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return nil, f.SendErr
	}
	f.sent = append(f.sent, msg)
	return &model.SentMessage{
		ID:        fmt.Sprintf("3EB0FAKE%04d", len(f.sent)),
		Timestamp: time.Now(),
	}, nil
}

func (f *Fake) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = true
	return f.LogoutErr
}

func (f *Fake) GetContacts(ctx context.Context) ([]model.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.QueryErr != nil {
		return nil, f.QueryErr
	}
	return append([]model.Contact(nil), f.Contacts...), nil
}

func (f *Fake) GetChats(ctx context.Context) ([]model.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.QueryErr != nil {
		return nil, f.QueryErr
	}
	return append([]model.Chat(nil), f.Chats...), nil
}

func (f *Fake) GetChatByID(ctx context.Context, id string) (*model.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.QueryErr != nil {
		return nil, f.QueryErr
	}
	for i := range f.Chats {
		if f.Chats[i].ID == id {
			chat := f.Chats[i]
			return &chat, nil
		}
	}
	return nil, nil
}

func (f *Fake) GetContactByID(ctx context.Context, id string) (*model.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Contacts {
		if f.Contacts[i].ID == id {
			contact := f.Contacts[i]
			return &contact, nil
		}
	}
	return nil, nil
}

func (f *Fake) Info() *model.ClientInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ClientInfo
}

func (f *Fake) Close() {
	f.mu.Lock()
	f.closed = true
	hook := f.CloseHook
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// Emit returns the sink the fake reports lifecycle events to.
func (f *Fake) Emit() Events {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events
}

func (f *Fake) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *Fake) LoggedOut() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loggedOut
}

func (f *Fake) Sent() []model.OutboundMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.OutboundMessage(nil), f.sent...)
}

// FakeFactory records every Fake it builds. Configure, when set, runs on
// each new Fake before it is returned.
type FakeFactory struct {
	mu        sync.Mutex
	Err       error
	Configure func(*Fake)
	clients   []*Fake
}

func (ff *FakeFactory) NewClient(ctx context.Context, events Events) (Client, error) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if ff.Err != nil {
		return nil, ff.Err
	}
	f := &Fake{events: events}
	if ff.Configure != nil {
		ff.Configure(f)
	}
	ff.clients = append(ff.clients, f)
	return f, nil
}

// Built returns how many clients the factory has constructed.
func (ff *FakeFactory) Built() int {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	return len(ff.clients)
}

// Last returns the most recently built client, or nil.
func (ff *FakeFactory) Last() *Fake {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if len(ff.clients) == 0 {
		return nil
	}
	return ff.clients[len(ff.clients)-1]
}
