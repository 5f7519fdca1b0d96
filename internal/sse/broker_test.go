package sse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_LocalDelivery(t *testing.T) {
	b := NewBroker(nil, "unused")
	defer b.Close()

	c1 := b.Subscribe()
	c2 := b.Subscribe()
	assert.Equal(t, 2, b.ClientCount())

	require.NoError(t, b.Publish(context.Background(), "status", map[string]string{"status": "connected"}))

	for _, c := range []*Client{c1, c2} {
		select {
		case evt := <-c.Events:
			assert.Equal(t, "status", evt.Type)
			assert.JSONEq(t, `{"status":"connected"}`, string(evt.Data))
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestBroker_Unsubscribe(t *testing.T) {
	b := NewBroker(nil, "unused")
	defer b.Close()

	c := b.Subscribe()
	b.Unsubscribe(c)
	b.Unsubscribe(c)

	assert.Equal(t, 0, b.ClientCount())
	select {
	case <-c.Done:
	default:
		t.Fatal("done channel not closed")
	}
}

func TestBroker_DropsWhenBufferFull(t *testing.T) {
	b := NewBroker(nil, "unused")
	defer b.Close()

	c := b.Subscribe()
	for i := 0; i < clientBufferSize+5; i++ {
		require.NoError(t, b.Publish(context.Background(), "qr", i))
	}

	assert.Len(t, c.Events, clientBufferSize)
}

func TestBroker_CloseReleasesClients(t *testing.T) {
	b := NewBroker(nil, "unused")
	c := b.Subscribe()

	b.Close()

	select {
	case <-c.Done:
	default:
		t.Fatal("done channel not closed")
	}
	assert.Equal(t, 0, b.ClientCount())
}

func TestBroker_PublishRejectsUnencodable(t *testing.T) {
	b := NewBroker(nil, "unused")
	defer b.Close()

	err := b.Publish(context.Background(), "bad", make(chan int))
	assert.Error(t, err)
}
