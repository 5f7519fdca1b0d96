package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelNames(t *testing.T) {
	assert.Equal(t, "session-events:wa-gateway", SessionEventsChannel("wa-gateway"))
	assert.Equal(t, "ratelimit:wa-gateway:10.0.0.1", RateLimitKey("wa-gateway", "10.0.0.1"))
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "not a url")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis url")
}
