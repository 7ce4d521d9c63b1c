package dto

import "time"

type ConversationResponse struct {
	MatchID        int64            `json:"match_id"`
	TargetUserID   int64            `json:"target_user_id"`
	DisplayName    string           `json:"display_name"`
	Age            int              `json:"age"`
	Intent         string           `json:"intent,omitempty"`
	PhotoURL       string           `json:"photo_url,omitempty"`
	MatchCreatedAt time.Time        `json:"match_created_at"`
	LastMessage    *MessageResponse `json:"last_message,omitempty"`
	UnreadCount    int              `json:"unread_count"`
}

type ConversationsResponse struct {
	WithMessages    []ConversationResponse `json:"with_messages"`
	WithoutMessages []ConversationResponse `json:"without_messages"`
	TotalUnread     int                    `json:"total_unread"`
}
