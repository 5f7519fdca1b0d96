package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/wa-gateway-go/internal/model"
	"github.com/openclaw/wa-gateway-go/internal/sse"
)

type staticStatus struct {
	snap model.StatusSnapshot
}

func (s staticStatus) Status() model.StatusSnapshot { return s.snap }

// syncRecorder guards the body so the test can read it while the stream
// is still being written.
type syncRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func (r *syncRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(p)
}

func (r *syncRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ResponseRecorder.Flush()
}

func (r *syncRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Body.String()
}

func TestEventsHandler_Stream(t *testing.T) {
	broker := sse.NewBroker(nil, "test")
	defer broker.Close()

	h := NewEventsHandler(broker, staticStatus{snap: model.StatusSnapshot{
		Status:          model.SessionStatusConnecting,
		EverInitialized: true,
	}})
	h.heartbeat = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	rec := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		h.ServeHTTP(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return broker.ClientCount() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, broker.Publish(context.Background(), "qr", map[string]string{"qrCodeData": "2@abc"}))

	assert.Eventually(t, func() bool {
		body := rec.body()
		return strings.Contains(body, "event: qr\n") && strings.Contains(body, ": ping")
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	body := rec.body()
	assert.True(t, strings.HasPrefix(body, "event: status\n"))
	assert.Contains(t, body, `"status":"connecting"`)
	assert.Contains(t, body, `data: {"qrCodeData":"2@abc"}`)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, 0, broker.ClientCount())
}

func TestEventsHandler_sendRawEvent(t *testing.T) {
	h := &EventsHandler{}
	rec := httptest.NewRecorder()

	event := sse.Event{
		Type: "ready",
		Data: json.RawMessage(`{"active": true}`),
	}

	err := h.sendRawEvent(rec, rec, event)

	assert.NoError(t, err)
	body := rec.Body.String()
	assert.Contains(t, body, "event: ready\n")
	assert.Contains(t, body, `data: {"active": true}`)
	assert.True(t, strings.HasSuffix(body, "\n\n"))
}
