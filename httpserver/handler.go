package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/thresholdshare/escrow-backend/api"
	"github.com/thresholdshare/escrow-backend/escrow"
	"github.com/thresholdshare/escrow-backend/interfaces"
	"github.com/thresholdshare/escrow-backend/repository"
	"github.com/thresholdshare/escrow-backend/sharing"
)

// maxBodySize is the maximum allowed request body size (16MB). Payloads are
// base64-encoded JSON fields, so the effective file size limit is lower.
const maxBodySize = 16 * 1024 * 1024

// Handler processes HTTP requests for the escrow service. It translates
// wire types to coordinator calls and maps protocol errors to status codes.
type Handler struct {
	coordinator *escrow.Coordinator
	repo        repository.Store
	log         *slog.Logger
}

// NewHandler creates an HTTP request handler backed by the given
// coordinator and store.
func NewHandler(coordinator *escrow.Coordinator, repo repository.Store, log *slog.Logger) *Handler {
	return &Handler{
		coordinator: coordinator,
		repo:        repo,
		log:         log,
	}
}

// writeError maps protocol errors to HTTP status codes: validation
// failures to 400, unknown identifiers to 404, everything else to 500.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, interfaces.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, interfaces.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		h.log.Error("Request failed", "err", err)
	}
	http.Error(w, err.Error(), status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, into any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// HandleRegisterUser registers a participant.
//
// URL format: POST /api/users
func (h *Handler) HandleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterUserRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		http.Error(w, "name must not be empty", http.StatusBadRequest)
		return
	}

	user, err := h.repo.CreateUser(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("User registered", "user", user.ID)
	h.writeJSON(w, http.StatusOK, user)
}

// HandleListUsers returns all registered participants.
//
// URL format: GET /api/users
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

// HandleSendMessage escrows a payload for a set of recipients.
//
// URL format: POST /api/messages
func (h *Handler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req api.SendMessageRequest
	if !h.decode(w, r, &req) {
		return
	}

	sender, err := interfaces.ParseUserID(req.SenderID)
	if err != nil {
		http.Error(w, "invalid sender_id: "+err.Error(), http.StatusBadRequest)
		return
	}

	recipients := make([]interfaces.UserID, 0, len(req.ReceiverIDs))
	for _, raw := range req.ReceiverIDs {
		id, err := interfaces.ParseUserID(raw)
		if err != nil {
			http.Error(w, "invalid receiver_id: "+err.Error(), http.StatusBadRequest)
			return
		}
		recipients = append(recipients, id)
	}

	msg, err := h.coordinator.Send(r.Context(), sender, recipients, req.Threshold, req.Filename, req.Payload)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.MessageResponseFrom(msg))
}

// HandlePending returns everything currently owed to a recipient: key
// shares for newly escrowed messages and payloads for decrypted ones.
// Responds 204 when nothing is pending.
//
// URL format: GET /api/users/{user_id}/pending
func (h *Handler) HandlePending(w http.ResponseWriter, r *http.Request) {
	recipient, err := interfaces.ParseUserID(chi.URLParam(r, "user_id"))
	if err != nil {
		http.Error(w, "invalid user_id: "+err.Error(), http.StatusBadRequest)
		return
	}

	items, err := h.coordinator.PendingFor(r.Context(), recipient)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if len(items) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	response := make([]api.PendingItemResponse, len(items))
	for i, item := range items {
		wire := api.PendingItemResponse{
			MessageID: item.MessageID.String(),
			SenderID:  item.Sender.String(),
			Kind:      string(item.Kind),
			Filename:  item.Filename,
		}
		if item.Kind == escrow.ItemKeyShare {
			wire.Share = sharing.EncodeShare(item.Data)
		} else {
			wire.Payload = item.Data
		}
		response[i] = wire
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleAcknowledge records a recipient returning their key share. No-op
// acknowledgments (repeated, premature, or after decryption) respond 200
// with effect set to false.
//
// URL format: POST /api/messages/{message_id}/acknowledge
func (h *Handler) HandleAcknowledge(w http.ResponseWriter, r *http.Request) {
	messageID, err := interfaces.ParseMessageID(chi.URLParam(r, "message_id"))
	if err != nil {
		http.Error(w, "invalid message_id: "+err.Error(), http.StatusBadRequest)
		return
	}

	var req api.AcknowledgeRequest
	if !h.decode(w, r, &req) {
		return
	}

	recipient, err := interfaces.ParseUserID(req.UserID)
	if err != nil {
		http.Error(w, "invalid user_id: "+err.Error(), http.StatusBadRequest)
		return
	}

	share, err := sharing.DecodeShare(req.Share)
	if err != nil {
		http.Error(w, "invalid share: "+err.Error(), http.StatusBadRequest)
		return
	}

	effect, err := h.coordinator.Acknowledge(r.Context(), recipient, messageID, share)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := api.AcknowledgeResponse{Effect: effect}
	if msg, err := h.repo.GetMessage(r.Context(), messageID); err == nil {
		wire := api.MessageResponseFrom(msg)
		response.Message = &wire
	}

	h.writeJSON(w, http.StatusOK, response)
}
