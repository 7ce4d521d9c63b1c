package dto

import "time"

type SendMessageRequest struct {
	Content       string `json:"content"`
	Kind          string `json:"kind,omitempty"`
	AttachmentKey string `json:"attachment_key,omitempty"`
}

type MessageResponse struct {
	ID            int64     `json:"id"`
	MatchID       int64     `json:"match_id"`
	SenderID      int64     `json:"sender_id"`
	RecipientID   int64     `json:"recipient_id"`
	Kind          string    `json:"kind"`
	Content       string    `json:"content"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	IsRead        bool      `json:"is_read"`
	CreatedAt     time.Time `json:"created_at"`
}

type MessagesResponse struct {
	Items []MessageResponse `json:"items"`
}

type MarkReadResponse struct {
	OK         bool  `json:"ok"`
	MarkedRead int64 `json:"marked_read"`
}
