package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/openclaw/wa-gateway-go/internal/errors"
	"github.com/openclaw/wa-gateway-go/internal/httputil"
	"github.com/openclaw/wa-gateway-go/internal/model"
	"github.com/openclaw/wa-gateway-go/internal/service"
)

type MessagingHandler struct {
	messaging *service.MessagingService
}

func NewMessagingHandler(messaging *service.MessagingService) *MessagingHandler {
	return &MessagingHandler{messaging: messaging}
}

// POST /api/send
func (h *MessagingHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req model.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteErrorWithStatus(w, http.StatusRequestEntityTooLarge,
				apperrors.ValidationError("Request body too large"))
			return
		}
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}

	result, err := h.messaging.Send(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SendResponse{
		Success:   true,
		Message:   "Message sent successfully",
		MessageID: result.MessageID,
		Phone:     result.Phone,
		Timestamp: formatTimestamp(result.Timestamp),
	})
}

// GET /api/contacts
func (h *MessagingHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.messaging.Contacts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ContactsResponse{Success: true, Contacts: contacts})
}

// GET /api/groups
func (h *MessagingHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.messaging.Groups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, GroupsResponse{Success: true, Groups: groups})
}

// GET /api/groups/{groupId}/members
func (h *MessagingHandler) ListGroupMembers(w http.ResponseWriter, r *http.Request) {
	result, err := h.messaging.GroupMembers(r.Context(), chi.URLParam(r, "groupId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, GroupMembersResponse{
		Success: true,
		Group:   result.Group,
		Members: result.Members,
	})
}
