package handlers

import (
	"net/http"

	authsvc "github.com/sparkmatch/backend/internal/services/auth"
	convsvc "github.com/sparkmatch/backend/internal/services/conversations"
	"github.com/sparkmatch/backend/internal/transport/http/dto"
	httperrors "github.com/sparkmatch/backend/internal/transport/http/errors"
)

type ConversationsHandler struct {
	service *convsvc.Service
}

func NewConversationsHandler(service *convsvc.Service) *ConversationsHandler {
	return &ConversationsHandler{service: service}
}

// Handle returns the caller's inbox. Anonymous callers get the empty shape.
func (h *ConversationsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CONVERSATIONS_SERVICE_UNAVAILABLE", "conversations service is unavailable")
		return
	}

	empty := dto.ConversationsResponse{
		WithMessages:    []dto.ConversationResponse{},
		WithoutMessages: []dto.ConversationResponse{},
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		httperrors.Write(w, http.StatusOK, empty)
		return
	}

	inbox, err := h.service.List(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load conversations")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ConversationsResponse{
		WithMessages:    mapConversations(inbox.WithMessages),
		WithoutMessages: mapConversations(inbox.WithoutMessages),
		TotalUnread:     inbox.TotalUnread,
	})
}

func mapConversations(items []convsvc.Conversation) []dto.ConversationResponse {
	out := make([]dto.ConversationResponse, 0, len(items))
	for _, item := range items {
		resp := dto.ConversationResponse{
			MatchID:        item.MatchID,
			TargetUserID:   item.TargetUserID,
			DisplayName:    item.DisplayName,
			Age:            item.Age,
			Intent:         item.Intent,
			PhotoURL:       item.PhotoURL,
			MatchCreatedAt: item.MatchCreatedAt,
			UnreadCount:    item.UnreadCount,
		}
		if item.LastMessage != nil {
			resp.LastMessage = &dto.MessageResponse{
				ID:          item.LastMessage.ID,
				MatchID:     item.LastMessage.MatchID,
				SenderID:    item.LastMessage.SenderID,
				RecipientID: item.LastMessage.RecipientID,
				Kind:        string(item.LastMessage.Kind),
				Content:     item.LastMessage.Content,
				IsRead:      item.LastMessage.IsRead,
				CreatedAt:   item.LastMessage.CreatedAt,
			}
		}
		out = append(out, resp)
	}
	return out
}
