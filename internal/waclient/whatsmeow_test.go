package waclient

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

type recordingSink struct {
	mu    sync.Mutex
	calls []string
	codes []string
}

func (s *recordingSink) record(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
}

func (s *recordingSink) OnQR(code string) {
	s.mu.Lock()
	s.codes = append(s.codes, code)
	s.mu.Unlock()
	s.record("qr")
}
func (s *recordingSink) OnAuthenticated()             { s.record("authenticated") }
func (s *recordingSink) OnReady()                     { s.record("ready") }
func (s *recordingSink) OnAuthFailure(reason string)  { s.record("auth_failure") }
func (s *recordingSink) OnDisconnected(reason string) { s.record("disconnected") }

func TestTranslateEvent(t *testing.T) {
	tests := []struct {
		name    string
		evt     any
		handled bool
		calls   []string
	}{
		{"pair success", &events.PairSuccess{}, true, []string{"authenticated"}},
		{"connected", &events.Connected{}, true, []string{"authenticated", "ready"}},
		{"pair error", &events.PairError{Error: errors.New("boom")}, true, []string{"auth_failure"}},
		{"connect failure", &events.ConnectFailure{Reason: events.ConnectFailureGeneric}, true, []string{"auth_failure"}},
		{"connect failure bad user agent", &events.ConnectFailure{Reason: events.ConnectFailureBadUserAgent}, true, []string{"auth_failure"}},
		{"connect failure service unavailable", &events.ConnectFailure{Reason: events.ConnectFailureServiceUnavailable}, true, []string{"disconnected"}},
		{"connect failure internal server error", &events.ConnectFailure{Reason: events.ConnectFailureInternalServerError}, true, []string{"disconnected"}},
		{"connect failure cat expired", &events.ConnectFailure{Reason: events.ConnectFailureCATExpired}, true, []string{"disconnected"}},
		{"connect failure cat invalid", &events.ConnectFailure{Reason: events.ConnectFailureCATInvalid}, true, []string{"disconnected"}},
		{"cat refresh error", &events.CATRefreshError{Error: errors.New("expired")}, true, []string{"disconnected"}},
		{"client outdated", &events.ClientOutdated{}, true, []string{"auth_failure"}},
		{"temporary ban", &events.TemporaryBan{}, true, []string{"auth_failure"}},
		{"logged out", &events.LoggedOut{}, true, []string{"disconnected"}},
		{"stream replaced", &events.StreamReplaced{}, true, []string{"disconnected"}},
		{"disconnected", &events.Disconnected{}, true, []string{"disconnected"}},
		{"unrelated", &events.Receipt{}, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}

			handled := translateEvent(tt.evt, sink)

			assert.Equal(t, tt.handled, handled)
			assert.Equal(t, tt.calls, sink.calls)
		})
	}
}

func TestTranslateQRItem(t *testing.T) {
	t.Run("code is forwarded", func(t *testing.T) {
		sink := &recordingSink{}
		translateQRItem(whatsmeow.QRChannelItem{Event: "code", Code: "2@abc"}, sink)

		assert.Equal(t, []string{"qr"}, sink.calls)
		assert.Equal(t, []string{"2@abc"}, sink.codes)
	})

	t.Run("success authenticates", func(t *testing.T) {
		sink := &recordingSink{}
		translateQRItem(whatsmeow.QRChannelSuccess, sink)
		assert.Equal(t, []string{"authenticated"}, sink.calls)
	})

	t.Run("timeout disconnects", func(t *testing.T) {
		sink := &recordingSink{}
		translateQRItem(whatsmeow.QRChannelTimeout, sink)
		assert.Equal(t, []string{"disconnected"}, sink.calls)
	})

	t.Run("error fails auth", func(t *testing.T) {
		sink := &recordingSink{}
		translateQRItem(whatsmeow.QRChannelItem{Event: "error", Error: errors.New("bad")}, sink)
		assert.Equal(t, []string{"auth_failure"}, sink.calls)
	})

	t.Run("unknown event fails auth", func(t *testing.T) {
		sink := &recordingSink{}
		translateQRItem(whatsmeow.QRChannelItem{Event: "err-unexpected-state"}, sink)
		assert.Equal(t, []string{"auth_failure"}, sink.calls)
	})
}

func TestToContact(t *testing.T) {
	jid := types.NewJID("5511999999999", types.DefaultUserServer)

	t.Run("prefers full name", func(t *testing.T) {
		c := toContact(jid, types.ContactInfo{Found: true, FullName: "Ana Souza", FirstName: "Ana", PushName: "ana"}, "")

		assert.Equal(t, "5511999999999@s.whatsapp.net", c.ID)
		assert.Equal(t, "Ana Souza", c.Name)
		assert.Equal(t, "ana", c.PushName)
		assert.Equal(t, "5511999999999", c.Number)
		assert.True(t, c.IsRegistered)
		assert.False(t, c.IsGroup)
		assert.False(t, c.IsMe)
	})

	t.Run("falls back to business name", func(t *testing.T) {
		c := toContact(jid, types.ContactInfo{BusinessName: "Padaria"}, "")
		assert.Equal(t, "Padaria", c.Name)
		assert.False(t, c.IsRegistered)
	})

	t.Run("marks own account", func(t *testing.T) {
		c := toContact(jid, types.ContactInfo{Found: true}, "5511999999999")
		assert.True(t, c.IsMe)
	})

	t.Run("group address", func(t *testing.T) {
		c := toContact(types.NewJID("120363000000000000", types.GroupServer), types.ContactInfo{Found: true}, "")
		assert.True(t, c.IsGroup)
		assert.False(t, c.IsRegistered)
	})
}

func TestToGroupChat(t *testing.T) {
	info := &types.GroupInfo{
		JID:       types.NewJID("120363000000000000", types.GroupServer),
		GroupName: types.GroupName{Name: "Family"},
		Participants: []types.GroupParticipant{
			{JID: types.NewJID("5511111111111", types.DefaultUserServer), IsAdmin: true},
			{JID: types.NewJID("5522222222222", types.DefaultUserServer), IsAdmin: true, IsSuperAdmin: true},
			{JID: types.NewJID("5533333333333", types.DefaultUserServer)},
		},
	}

	chat := toGroupChat(info)

	assert.Equal(t, "120363000000000000@g.us", chat.ID)
	assert.Equal(t, "Family", chat.Name)
	assert.True(t, chat.IsGroup)
	require.Len(t, chat.Participants, 3)
	assert.Equal(t, "5511111111111@s.whatsapp.net", chat.Participants[0].ID)
	assert.True(t, chat.Participants[0].IsAdmin)
	assert.True(t, chat.Participants[1].IsSuperAdmin)
	assert.False(t, chat.Participants[2].IsAdmin)
}
