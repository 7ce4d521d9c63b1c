package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/sparkmatch/backend/internal/services/auth"
	messagessvc "github.com/sparkmatch/backend/internal/services/messages"
	ratesvc "github.com/sparkmatch/backend/internal/services/rate"
	"github.com/sparkmatch/backend/internal/transport/http/dto"
	httperrors "github.com/sparkmatch/backend/internal/transport/http/errors"
)

type MessagesHandler struct {
	service *messagessvc.Service
}

func NewMessagesHandler(service *messagessvc.Service) *MessagesHandler {
	return &MessagesHandler{service: service}
}

func (h *MessagesHandler) Send(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MESSAGES_SERVICE_UNAVAILABLE", "messages service is unavailable")
		return
	}

	matchID, ok := matchIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid match id")
		return
	}

	var req dto.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	msg, err := h.service.Send(r.Context(), messagessvc.SendInput{
		MatchID:       matchID,
		SenderID:      identity.UserID,
		Kind:          req.Kind,
		Content:       req.Content,
		AttachmentKey: req.AttachmentKey,
	})
	if err != nil {
		switch {
		case errors.Is(err, messagessvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid message request")
		case errors.Is(err, messagessvc.ErrUnsupportedKind):
			writeBadRequest(w, "VALIDATION_ERROR", "unsupported message kind")
		case errors.Is(err, messagessvc.ErrMatchNotFound):
			httperrors.Write(w, http.StatusNotFound, httperrors.APIError{
				Code:    "MATCH_NOT_FOUND",
				Message: "match not found",
			})
		case errors.Is(err, messagessvc.ErrMatchInactive):
			httperrors.Write(w, http.StatusConflict, httperrors.APIError{
				Code:    "MATCH_INACTIVE",
				Message: "match is not active",
			})
		case errors.Is(err, messagessvc.ErrNotParticipant):
			httperrors.Write(w, http.StatusForbidden, httperrors.APIError{
				Code:    "NOT_PARTICIPANT",
				Message: "sender is not a participant of the match",
			})
		default:
			if tf, ok := ratesvc.IsTooFast(err); ok {
				httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
					Code:          "TOO_FAST",
					Message:       "too many messages, slow down",
					RetryAfterSec: tf.RetryAfter(),
				})
				return
			}
			writeInternal(w, "INTERNAL_ERROR", "failed to send message")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MessageResponse{
		ID:          msg.ID,
		MatchID:     msg.MatchID,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		Kind:        string(msg.Kind),
		Content:     msg.Content,
		IsRead:      msg.IsRead,
		CreatedAt:   msg.CreatedAt,
	})
}

// List returns the thread ascending by send order. Anonymous callers and
// callers outside the match get an empty list, never an error, so match
// existence does not leak.
func (h *MessagesHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MESSAGES_SERVICE_UNAVAILABLE", "messages service is unavailable")
		return
	}

	matchID, ok := matchIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid match id")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		httperrors.Write(w, http.StatusOK, dto.MessagesResponse{Items: []dto.MessageResponse{}})
		return
	}

	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 50)
	views, err := h.service.Fetch(r.Context(), matchID, identity.UserID, limit)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load messages")
		return
	}

	items := make([]dto.MessageResponse, 0, len(views))
	for _, view := range views {
		items = append(items, dto.MessageResponse{
			ID:            view.ID,
			MatchID:       view.MatchID,
			SenderID:      view.SenderID,
			RecipientID:   view.RecipientID,
			Kind:          string(view.Kind),
			Content:       view.Content,
			AttachmentURL: view.AttachmentURL,
			IsRead:        view.IsRead,
			CreatedAt:     view.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.MessagesResponse{Items: items})
}

func (h *MessagesHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MESSAGES_SERVICE_UNAVAILABLE", "messages service is unavailable")
		return
	}

	matchID, ok := matchIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid match id")
		return
	}

	marked, err := h.service.MarkRead(r.Context(), matchID, identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, messagessvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid mark read request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to mark messages read")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MarkReadResponse{
		OK:         true,
		MarkedRead: marked,
	})
}

func matchIDFromRequest(r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	matchID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || matchID <= 0 {
		return 0, false
	}
	return matchID, true
}
