package handler

import (
	"net/http"
	"time"

	"github.com/openclaw/wa-gateway-go/internal/httputil"
	"github.com/openclaw/wa-gateway-go/internal/model"
	"github.com/openclaw/wa-gateway-go/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

type HealthResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

type StatusResponse struct {
	Success bool `json:"success"`
	service.StatusResult
}

// QR response states.
const (
	QRStateConnected    = "connected"
	QRStateInitializing = "initializing"
	QRStatePending      = "pending"
	QRStateReady        = "ready"
)

type QRResponse struct {
	Success    bool   `json:"success"`
	State      string `json:"state"`
	Message    string `json:"message,omitempty"`
	QRCode     string `json:"qrCode,omitempty"`
	QRCodeData string `json:"qrCodeData,omitempty"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SendResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"message_id"`
	Phone     string `json:"phone"`
	Timestamp string `json:"timestamp"`
}

type ContactsResponse struct {
	Success  bool                   `json:"success"`
	Contacts []model.ContactSummary `json:"contacts"`
}

type GroupsResponse struct {
	Success bool                 `json:"success"`
	Groups  []model.GroupSummary `json:"groups"`
}

type GroupMembersResponse struct {
	Success bool                  `json:"success"`
	Group   model.GroupRef        `json:"group"`
	Members []model.MemberSummary `json:"members"`
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}
