package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/openclaw/wa-gateway-go/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second
	clientBufferSize  = 32
)

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	Events chan Event
	Done   chan struct{}
}

// Publisher is what the session lifecycle needs to announce state changes.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

// Broker fans session events out to connected SSE clients. With a Redis
// client, events travel through pub/sub so every gateway replica sharing
// the channel sees them; without one they are delivered in-process.
type Broker struct {
	redis   *redisclient.Client
	channel string

	clients  map[*Client]bool
	relaying bool
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewBroker builds a broker. redisClient may be nil.
func NewBroker(redisClient *redisclient.Client, channel string) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:   redisClient,
		channel: channel,
		clients: make(map[*Client]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *Broker) Subscribe() *Client {
	client := &Client{
		Events: make(chan Event, clientBufferSize),
		Done:   make(chan struct{}),
	}

	b.mu.Lock()
	b.clients[client] = true
	if b.redis != nil && !b.relaying {
		b.relaying = true
		go b.subscribeToRedis()
	}
	clientCount := len(b.clients)
	b.mu.Unlock()

	log.Info().Int("clientCount", clientCount).Msg("sse client subscribed")

	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.clients[client]; !ok {
		return
	}
	delete(b.clients, client)
	close(client.Done)

	log.Info().Int("clientCount", len(b.clients)).Msg("sse client unsubscribed")
}

func (b *Broker) Publish(ctx context.Context, eventType string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	event := Event{Type: eventType, Data: raw}

	if b.redis == nil {
		b.broadcast(event)
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.redis.Publish(ctx, b.channel, payload).Err()
}

func (b *Broker) subscribeToRedis() {
	pubsub := b.redis.Subscribe(b.ctx, b.channel)
	defer pubsub.Close()

	log.Debug().Str("channel", b.channel).Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-b.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			b.broadcast(event)
		}
	}
}

func (b *Broker) broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for client := range b.clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().Str("type", event.Type).Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for client := range b.clients {
		close(client.Done)
	}
	b.clients = make(map[*Client]bool)
}

func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
