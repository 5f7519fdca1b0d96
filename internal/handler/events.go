package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/openclaw/wa-gateway-go/internal/errors"
	"github.com/openclaw/wa-gateway-go/internal/model"
	"github.com/openclaw/wa-gateway-go/internal/service"
	"github.com/openclaw/wa-gateway-go/internal/sse"
)

// StatusSource supplies the snapshot sent when a stream opens.
type StatusSource interface {
	Status() model.StatusSnapshot
}

type EventsHandler struct {
	broker    *sse.Broker
	status    StatusSource
	heartbeat time.Duration
}

func NewEventsHandler(broker *sse.Broker, status StatusSource) *EventsHandler {
	return &EventsHandler{
		broker:    broker,
		status:    status,
		heartbeat: sse.HeartbeatInterval,
	}
}

// GET /api/events
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, apperrors.Internal("Streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := h.broker.Subscribe()
	defer h.broker.Unsubscribe(client)

	log.Info().Str("remoteAddr", r.RemoteAddr).Msg("sse connection established")

	if err := h.sendEvent(w, flusher, service.EventStatus, service.StatusView(h.status.Status())); err != nil {
		log.Error().Err(err).Msg("failed to send initial status")
		return
	}

	ctx := r.Context()
	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sse connection closed by client")
			return

		case <-client.Done:
			log.Info().Msg("sse connection closed by broker")
			return

		case event := <-client.Events:
			if err := h.sendRawEvent(w, flusher, event); err != nil {
				log.Error().Err(err).Msg("failed to send event")
				return
			}

		case <-heartbeat.C:
			if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
				log.Debug().Msg("heartbeat failed, closing connection")
				return
			}
			flusher.Flush()
		}
	}
}

func (h *EventsHandler) sendEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return h.sendRawEvent(w, flusher, sse.Event{Type: eventType, Data: jsonData})
}

func (h *EventsHandler) sendRawEvent(w http.ResponseWriter, flusher http.Flusher, event sse.Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", event.Data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
