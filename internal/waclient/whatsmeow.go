package waclient

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/openclaw/wa-gateway-go/internal/model"
)

// DeviceStore hands out the container that persists linked-device
// credentials. It is opened lazily so the session directory only needs to
// exist by the first initialization.
type DeviceStore interface {
	Devices(ctx context.Context) (*sqlstore.Container, error)
}

type WhatsmeowFactory struct {
	store  DeviceStore
	logger zerolog.Logger
}

func NewWhatsmeowFactory(store DeviceStore, logger zerolog.Logger) *WhatsmeowFactory {
	return &WhatsmeowFactory{
		store:  store,
		logger: logger.With().Str("component", "whatsmeow").Logger(),
	}
}

func (f *WhatsmeowFactory) NewClient(ctx context.Context, sink Events) (Client, error) {
	container, err := f.store.Devices(ctx)
	if err != nil {
		return nil, fmt.Errorf("open device store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}

	cli := whatsmeow.NewClient(device, waLog.Zerolog(f.logger))
	// Reconnects are owned by the session lifecycle, not the library.
	cli.EnableAutoReconnect = false

	c := &whatsmeowClient{
		cli:    cli,
		events: sink,
		logger: f.logger,
	}
	cli.AddEventHandler(c.handleEvent)

	return c, nil
}

type whatsmeowClient struct {
	cli    *whatsmeow.Client
	events Events
	logger zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
}

func (c *whatsmeowClient) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	if c.cli.Store.ID == nil {
		qrChan, err := c.cli.GetQRChannel(ctx)
		if err != nil {
			cancel()
			return fmt.Errorf("get qr channel: %w", err)
		}
		go c.watchQR(qrChan)
	}

	if err := c.cli.Connect(); err != nil {
		cancel()
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

func (c *whatsmeowClient) watchQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for item := range qrChan {
		translateQRItem(item, c.events)
	}
}

func (c *whatsmeowClient) handleEvent(evt any) {
	if !translateEvent(evt, c.events) {
		return
	}
	c.logger.Debug().Str("event", fmt.Sprintf("%T", evt)).Msg("lifecycle event")
}

func (c *whatsmeowClient) SendMessage(ctx context.Context, msg model.OutboundMessage) (*model.SentMessage, error) {
	to, err := types.ParseJID(msg.To)
	if err != nil {
		return nil, fmt.Errorf("parse recipient: %w", err)
	}

	content := buildTextMessage(msg.Text)
	if msg.Media != nil {
		up, err := c.cli.Upload(ctx, msg.Media.Data, uploadMediaType(msg.Kind))
		if err != nil {
			return nil, fmt.Errorf("upload media: %w", err)
		}
		content = buildMediaMessage(msg, up)
	}

	resp, err := c.cli.SendMessage(ctx, to, content)
	if err != nil {
		return nil, err
	}

	return &model.SentMessage{
		ID:        resp.ID,
		Timestamp: resp.Timestamp,
	}, nil
}

func (c *whatsmeowClient) Logout(ctx context.Context) error {
	return c.cli.Logout(ctx)
}

func (c *whatsmeowClient) GetContacts(ctx context.Context) ([]model.Contact, error) {
	all, err := c.cli.Store.Contacts.GetAllContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get contacts: %w", err)
	}

	blocked := c.blockedSet(ctx)
	own := c.ownUser()

	contacts := make([]model.Contact, 0, len(all))
	for jid, info := range all {
		contact := toContact(jid, info, own)
		contact.IsBlocked = blocked[jid.ToNonAD().String()]
		contacts = append(contacts, contact)
	}
	return contacts, nil
}

func (c *whatsmeowClient) blockedSet(ctx context.Context) map[string]bool {
	blocked := make(map[string]bool)
	list, err := c.cli.GetBlocklist(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to fetch blocklist")
		return blocked
	}
	for _, jid := range list.JIDs {
		blocked[jid.ToNonAD().String()] = true
	}
	return blocked
}

func (c *whatsmeowClient) GetChats(ctx context.Context) ([]model.Chat, error) {
	groups, err := c.cli.GetJoinedGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("get joined groups: %w", err)
	}

	chats := make([]model.Chat, 0, len(groups))
	for _, g := range groups {
		chats = append(chats, toGroupChat(g))
	}

	contacts, err := c.GetContacts(ctx)
	if err != nil {
		return nil, err
	}
	for _, contact := range contacts {
		if contact.IsGroup || !contact.IsRegistered {
			continue
		}
		chats = append(chats, model.Chat{
			ID:   contact.ID,
			Name: contact.DisplayName(),
		})
	}
	return chats, nil
}

func (c *whatsmeowClient) GetChatByID(ctx context.Context, id string) (*model.Chat, error) {
	jid, err := types.ParseJID(id)
	if err != nil {
		return nil, nil
	}

	if jid.Server == types.GroupServer {
		info, err := c.cli.GetGroupInfo(ctx, jid)
		if errors.Is(err, whatsmeow.ErrGroupNotFound) || errors.Is(err, whatsmeow.ErrNotInGroup) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("get group info: %w", err)
		}
		chat := toGroupChat(info)
		return &chat, nil
	}

	contact, err := c.GetContactByID(ctx, id)
	if err != nil || contact == nil {
		return nil, err
	}
	return &model.Chat{ID: contact.ID, Name: contact.DisplayName()}, nil
}

func (c *whatsmeowClient) GetContactByID(ctx context.Context, id string) (*model.Contact, error) {
	jid, err := types.ParseJID(id)
	if err != nil {
		return nil, nil
	}

	info, err := c.cli.Store.Contacts.GetContact(ctx, jid)
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	if !info.Found && info.PushName == "" && info.FullName == "" {
		return nil, nil
	}

	contact := toContact(jid, info, c.ownUser())
	return &contact, nil
}

func (c *whatsmeowClient) Info() *model.ClientInfo {
	id := c.cli.Store.ID
	if id == nil {
		return nil
	}
	return &model.ClientInfo{
		ID:       id.ToNonAD().String(),
		PushName: c.cli.Store.PushName,
		Platform: c.cli.Store.Platform,
	}
}

// Close is safe to call from inside an event handler. whatsmeow holds the
// handler list read lock while dispatching, so handlers are removed
// asynchronously.
func (c *whatsmeowClient) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	go c.cli.RemoveEventHandlers()
	c.cli.Disconnect()
}

func (c *whatsmeowClient) ownUser() string {
	if c.cli.Store.ID == nil {
		return ""
	}
	return c.cli.Store.ID.User
}

// translateEvent forwards the whatsmeow events that drive the session
// lifecycle. It reports whether evt was one of them.
func translateEvent(evt any, sink Events) bool {
	switch e := evt.(type) {
	case *events.PairSuccess:
		sink.OnAuthenticated()
	case *events.Connected:
		sink.OnAuthenticated()
		sink.OnReady()
	case *events.PairError:
		sink.OnAuthFailure(fmt.Sprintf("pairing failed: %v", e.Error))
	case *events.ConnectFailure:
		reason := fmt.Sprintf("connect failure: %v %s", e.Reason, e.Message)
		if transientConnectFailure(e.Reason) {
			sink.OnDisconnected(reason)
		} else {
			sink.OnAuthFailure(reason)
		}
	case *events.CATRefreshError:
		sink.OnDisconnected(fmt.Sprintf("cat refresh failed: %v", e.Error))
	case *events.ClientOutdated:
		sink.OnAuthFailure("client outdated")
	case *events.TemporaryBan:
		sink.OnAuthFailure(fmt.Sprintf("temporarily banned: %v", e.Code))
	case *events.LoggedOut:
		sink.OnDisconnected(fmt.Sprintf("logged out: %v", e.Reason))
	case *events.StreamReplaced:
		sink.OnDisconnected("stream replaced")
	case *events.Disconnected:
		sink.OnDisconnected("connection lost")
	default:
		return false
	}
	return true
}

// transientConnectFailure reports server-side failures that a fresh
// connection can recover from.
func transientConnectFailure(reason events.ConnectFailureReason) bool {
	switch reason {
	case events.ConnectFailureServiceUnavailable,
		events.ConnectFailureInternalServerError,
		events.ConnectFailureCATExpired,
		events.ConnectFailureCATInvalid:
		return true
	}
	return false
}

func translateQRItem(item whatsmeow.QRChannelItem, sink Events) {
	switch item.Event {
	case "code":
		sink.OnQR(item.Code)
	case whatsmeow.QRChannelSuccess.Event:
		sink.OnAuthenticated()
	case whatsmeow.QRChannelTimeout.Event:
		sink.OnDisconnected("pairing timed out")
	case "error":
		reason := "pairing error"
		if item.Error != nil {
			reason = item.Error.Error()
		}
		sink.OnAuthFailure(reason)
	default:
		sink.OnAuthFailure(item.Event)
	}
}

func toContact(jid types.JID, info types.ContactInfo, ownUser string) model.Contact {
	name := info.FullName
	if name == "" {
		name = info.FirstName
	}
	if name == "" {
		name = info.BusinessName
	}
	return model.Contact{
		ID:           jid.ToNonAD().String(),
		Name:         name,
		PushName:     info.PushName,
		Number:       jid.User,
		IsMe:         ownUser != "" && jid.User == ownUser,
		IsGroup:      jid.Server == types.GroupServer,
		IsRegistered: info.Found && jid.Server == types.DefaultUserServer,
	}
}

func toGroupChat(g *types.GroupInfo) model.Chat {
	participants := make([]model.Participant, 0, len(g.Participants))
	for _, p := range g.Participants {
		participants = append(participants, model.Participant{
			ID:           p.JID.ToNonAD().String(),
			IsAdmin:      p.IsAdmin,
			IsSuperAdmin: p.IsSuperAdmin,
		})
	}
	return model.Chat{
		ID:           g.JID.String(),
		Name:         g.Name,
		IsGroup:      true,
		Participants: participants,
	}
}
