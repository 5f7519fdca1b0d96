package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/wa-gateway-go/internal/config"
	apperrors "github.com/openclaw/wa-gateway-go/internal/errors"
	"github.com/openclaw/wa-gateway-go/internal/jobs"
	"github.com/openclaw/wa-gateway-go/internal/model"
	"github.com/openclaw/wa-gateway-go/internal/sse"
	"github.com/openclaw/wa-gateway-go/internal/waclient"
)

// SSE event types published on every lifecycle transition.
const (
	EventStatus        = "status"
	EventQR            = "qr"
	EventAuthenticated = "authenticated"
	EventReady         = "ready"
	EventAuthFailure   = "auth_failure"
	EventDisconnected  = "disconnected"
)

// SessionDir is the part of the session store the lifecycle needs before a
// client is constructed.
type SessionDir interface {
	EnsureDir() error
}

type session struct {
	status          model.SessionStatus
	pairingToken    string
	client          waclient.Client
	authenticated   bool
	everInitialized bool
	// generation identifies the current handle. Events tagged with an older
	// generation come from a discarded client and are dropped.
	generation uint64
}

// LifecycleManager owns the single WhatsApp client handle and its state
// machine. All transitions happen under mu; calls into the client are made
// outside it.
type LifecycleManager struct {
	factory   waclient.Factory
	dir       SessionDir
	publisher sse.Publisher
	reconnect *jobs.ReconnectJob

	mu      sync.Mutex
	session session
}

func NewLifecycleManager(
	factory waclient.Factory,
	dir SessionDir,
	publisher sse.Publisher,
	reconnectDelay time.Duration,
) *LifecycleManager {
	m := &LifecycleManager{
		factory:   factory,
		dir:       dir,
		publisher: publisher,
		session:   session{status: model.SessionStatusDisconnected},
	}
	m.reconnect = jobs.NewReconnectJob(reconnectDelay, config.ReconnectRunTimeout, m.attemptReconnect)
	return m
}

// Initialize builds and starts a new client unless one is already
// connecting or connected. Concurrent callers construct at most one client.
func (m *LifecycleManager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.session.status != model.SessionStatusDisconnected {
		m.mu.Unlock()
		return nil
	}
	if err := m.dir.EnsureDir(); err != nil {
		m.mu.Unlock()
		return apperrors.Internal("Failed to prepare session directory").WithCause(err)
	}

	m.reconnect.Stop()
	stale := m.session.client
	m.session.generation++
	gen := m.session.generation
	m.session = session{
		status:          model.SessionStatusConnecting,
		everInitialized: true,
		generation:      gen,
	}
	m.mu.Unlock()

	if stale != nil {
		stale.Close()
	}

	log.Info().Uint64("generation", gen).Msg("initializing whatsapp client")
	m.publishStatus()

	sink := &eventSink{m: m, generation: gen}
	client, err := m.factory.NewClient(ctx, sink)
	if err != nil {
		log.Error().Err(err).Msg("failed to construct whatsapp client")
		sink.OnDisconnected(fmt.Sprintf("construct client: %v", err))
		return apperrors.Upstream(err)
	}

	m.mu.Lock()
	if m.session.generation != gen {
		m.mu.Unlock()
		client.Close()
		return nil
	}
	m.session.client = client
	m.mu.Unlock()

	go func() {
		if err := client.Start(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to start whatsapp client")
			sink.OnDisconnected(fmt.Sprintf("start client: %v", err))
		}
	}()

	return nil
}

// Status returns a snapshot of the session. Info is only filled when
// connected.
func (m *LifecycleManager) Status() model.StatusSnapshot {
	m.mu.Lock()
	snap := model.StatusSnapshot{
		Status:          m.session.status,
		Authenticated:   m.session.authenticated,
		EverInitialized: m.session.everInitialized,
		HasClient:       m.session.client != nil,
	}
	client := m.session.client
	m.mu.Unlock()

	if snap.Status == model.SessionStatusConnected && client != nil {
		snap.Info = client.Info()
	}
	return snap
}

func (m *LifecycleManager) PairingToken() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.pairingToken, m.session.pairingToken != ""
}

func (m *LifecycleManager) HasClient() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.client != nil
}

// Logout ends the linked-device session. The handle is discarded and a
// re-initialization is scheduled whether or not the remote logout succeeds.
func (m *LifecycleManager) Logout(ctx context.Context) error {
	m.mu.Lock()
	client := m.session.client
	m.mu.Unlock()

	if client == nil {
		return apperrors.NotConnected()
	}

	ctx, cancel := context.WithTimeout(ctx, config.LogoutTimeout)
	defer cancel()
	logoutErr := client.Logout(ctx)

	m.mu.Lock()
	if m.session.client == client {
		m.session.generation++
		m.session.client = nil
		m.session.status = model.SessionStatusDisconnected
		m.session.pairingToken = ""
		m.session.authenticated = false
	}
	m.mu.Unlock()

	client.Close()
	m.reconnect.Schedule("logout")

	if logoutErr != nil {
		log.Warn().Err(logoutErr).Msg("whatsapp logout failed, session discarded anyway")
	} else {
		log.Info().Msg("whatsapp session logged out")
	}
	m.publish(EventDisconnected, map[string]string{"reason": "logout"})
	m.publishStatus()

	if logoutErr != nil {
		return apperrors.Upstream(logoutErr)
	}
	return nil
}

// WithReadyClient runs fn against the live client, or fails with
// NotConnected when the session is not connected.
func (m *LifecycleManager) WithReadyClient(ctx context.Context, fn func(waclient.Client) error) error {
	m.mu.Lock()
	client := m.session.client
	ready := m.session.status == model.SessionStatusConnected && client != nil
	m.mu.Unlock()

	if !ready {
		return apperrors.NotConnected()
	}
	return fn(client)
}

// Shutdown cancels any pending reconnect and closes the client without
// logging out, so the stored session survives a restart.
func (m *LifecycleManager) Shutdown() {
	m.reconnect.Close()

	m.mu.Lock()
	client := m.session.client
	m.session.generation++
	m.session.client = nil
	m.session.status = model.SessionStatusDisconnected
	m.session.pairingToken = ""
	m.session.authenticated = false
	m.mu.Unlock()

	if client != nil {
		client.Close()
	}
	log.Info().Msg("whatsapp client shut down")
}

// ReconnectPending reports whether a recovery attempt is armed.
func (m *LifecycleManager) ReconnectPending() bool {
	return m.reconnect.Pending()
}

func (m *LifecycleManager) attemptReconnect(ctx context.Context) {
	m.mu.Lock()
	status := m.session.status
	m.mu.Unlock()

	if status != model.SessionStatusDisconnected {
		log.Debug().Str("status", string(status)).Msg("skipping reconnect, session already active")
		return
	}
	if err := m.Initialize(ctx); err != nil {
		log.Error().Err(err).Msg("reconnect attempt failed")
	}
}

// apply runs fn under the lock if gen is still current. It reports whether
// the event was accepted.
func (m *LifecycleManager) apply(gen uint64, fn func(s *session) bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.session.generation {
		return false
	}
	return fn(&m.session)
}

func (m *LifecycleManager) publishStatus() {
	snap := m.Status()
	m.publish(EventStatus, StatusView(snap))
}

func (m *LifecycleManager) publish(eventType string, data any) {
	if m.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), config.EventPublishTimeout)
	defer cancel()
	if err := m.publisher.Publish(ctx, eventType, data); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("failed to publish lifecycle event")
	}
}

// StatusResult is the public projection of a StatusSnapshot.
type StatusResult struct {
	Active        bool                `json:"active"`
	Status        model.SessionStatus `json:"status"`
	Authenticated bool                `json:"authenticated"`
	Info          *model.ClientInfo   `json:"info"`
}

// StatusView projects a snapshot for clients. A session that was never
// initialized is reported inactive.
func StatusView(snap model.StatusSnapshot) StatusResult {
	res := StatusResult{
		Status:        snap.Status,
		Authenticated: snap.Authenticated,
	}
	if !snap.EverInitialized {
		return res
	}
	res.Active = snap.Status == model.SessionStatusConnected
	if res.Active {
		res.Info = snap.Info
	}
	return res
}

// eventSink binds client callbacks to the generation that created them.
type eventSink struct {
	m          *LifecycleManager
	generation uint64
}

func (e *eventSink) OnQR(code string) {
	accepted := e.m.apply(e.generation, func(s *session) bool {
		if s.status != model.SessionStatusConnecting || s.authenticated {
			return false
		}
		s.pairingToken = code
		return true
	})
	if !accepted {
		return
	}
	log.Info().Msg("pairing code received, waiting for scan")
	e.m.publish(EventQR, map[string]string{"qrCodeData": code})
}

func (e *eventSink) OnAuthenticated() {
	accepted := e.m.apply(e.generation, func(s *session) bool {
		if s.status != model.SessionStatusConnecting || s.authenticated {
			return false
		}
		s.authenticated = true
		s.pairingToken = ""
		return true
	})
	if !accepted {
		return
	}
	log.Info().Msg("whatsapp client authenticated")
	e.m.publish(EventAuthenticated, map[string]bool{"authenticated": true})
}

func (e *eventSink) OnReady() {
	accepted := e.m.apply(e.generation, func(s *session) bool {
		if s.status != model.SessionStatusConnecting {
			return false
		}
		s.status = model.SessionStatusConnected
		s.authenticated = true
		s.pairingToken = ""
		return true
	})
	if !accepted {
		return
	}
	e.m.reconnect.Stop()

	snap := e.m.Status()
	ev := log.Info()
	if snap.Info != nil {
		ev = ev.Str("id", snap.Info.ID).Str("pushname", snap.Info.PushName)
	}
	ev.Msg("whatsapp client ready")
	e.m.publish(EventReady, StatusView(snap))
}

func (e *eventSink) OnAuthFailure(reason string) {
	accepted := e.m.apply(e.generation, func(s *session) bool {
		if s.status == model.SessionStatusDisconnected {
			return false
		}
		// The handle is kept but unusable until an explicit re-initialize.
		s.status = model.SessionStatusDisconnected
		s.authenticated = false
		s.pairingToken = ""
		return true
	})
	if !accepted {
		return
	}
	log.Error().Str("reason", reason).Msg("whatsapp authentication failed")
	e.m.publish(EventAuthFailure, map[string]string{"reason": reason})
	e.m.publishStatus()
}

func (e *eventSink) OnDisconnected(reason string) {
	var client waclient.Client
	accepted := e.m.apply(e.generation, func(s *session) bool {
		if s.status == model.SessionStatusDisconnected {
			return false
		}
		client = s.client
		s.generation++
		s.client = nil
		s.status = model.SessionStatusDisconnected
		s.authenticated = false
		s.pairingToken = ""
		return true
	})
	if !accepted {
		return
	}

	log.Warn().Str("reason", reason).Msg("whatsapp client disconnected")
	e.m.reconnect.Schedule(reason)
	e.m.publish(EventDisconnected, map[string]string{"reason": reason})
	e.m.publishStatus()

	if client != nil {
		client.Close()
	}
}
