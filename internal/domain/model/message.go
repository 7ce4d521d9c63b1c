package model

import (
	"time"

	"github.com/sparkmatch/backend/internal/domain/enums"
)

// Message belongs to exactly one match and is immutable except for the
// IsRead transition, which only ever goes false to true.
type Message struct {
	ID            int64             `json:"id"`
	MatchID       int64             `json:"match_id"`
	SenderID      int64             `json:"sender_id"`
	RecipientID   int64             `json:"recipient_id"`
	Kind          enums.MessageKind `json:"kind"`
	Content       string            `json:"content"`
	AttachmentKey string            `json:"attachment_key,omitempty"`
	IsRead        bool              `json:"is_read"`
	CreatedAt     time.Time         `json:"created_at"`
}
