package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/wa-gateway-go/internal/audit"
	"github.com/openclaw/wa-gateway-go/internal/model"
	"github.com/openclaw/wa-gateway-go/internal/service"
)

type SessionHandler struct {
	lifecycle *service.LifecycleManager
}

func NewSessionHandler(lifecycle *service.LifecycleManager) *SessionHandler {
	return &SessionHandler{lifecycle: lifecycle}
}

// GET /api/status
func (h *SessionHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	view := service.StatusView(h.lifecycle.Status())
	writeJSON(w, http.StatusOK, StatusResponse{Success: true, StatusResult: view})
}

// GET /api/qrcode
func (h *SessionHandler) GetQRCode(w http.ResponseWriter, r *http.Request) {
	snap := h.lifecycle.Status()

	switch snap.Status {
	case model.SessionStatusConnected:
		writeJSON(w, http.StatusOK, QRResponse{
			Success: true,
			State:   QRStateConnected,
			Message: "WhatsApp is already connected",
		})
		return

	case model.SessionStatusDisconnected:
		if err := h.lifecycle.Initialize(r.Context()); err != nil {
			log.Error().Err(err).Msg("failed to initialize client from qr request")
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, QRResponse{
			Success: true,
			State:   QRStateInitializing,
			Message: "WhatsApp client is initializing, try again in a few seconds",
		})
		return
	}

	token, ok := h.lifecycle.PairingToken()
	if !ok {
		message := "QR code not yet available, try again in a few seconds"
		if snap.Authenticated {
			message = "QR code scanned, waiting for WhatsApp to finish connecting"
		}
		writeJSON(w, http.StatusOK, QRResponse{
			Success: true,
			State:   QRStatePending,
			Message: message,
		})
		return
	}

	dataURL, err := service.RenderQRDataURL(token)
	if err != nil {
		log.Error().Err(err).Msg("failed to render qr code")
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventPairingRequest})

	writeJSON(w, http.StatusOK, QRResponse{
		Success:    true,
		State:      QRStateReady,
		QRCode:     dataURL,
		QRCodeData: token,
	})
}

// POST /api/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.lifecycle.Logout(r.Context())

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventLogout,
		Details: map[string]interface{}{"success": err == nil},
	})

	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}
