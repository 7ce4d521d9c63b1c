package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sparkmatch/backend/internal/domain/enums"
	"github.com/sparkmatch/backend/internal/domain/model"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

// Create appends one message. The caller holds the match row lock, so the
// GREATEST clause only has to guard against clock skew between sessions:
// created_at never goes backwards within a match.
func (r *MessageRepo) Create(ctx context.Context, tx pgx.Tx, matchID, senderID, recipientID int64, kind enums.MessageKind, content, attachmentKey string) (model.Message, error) {
	if matchID <= 0 || senderID <= 0 || recipientID <= 0 || kind == "" {
		return model.Message{}, fmt.Errorf("invalid message payload")
	}
	if tx == nil {
		return model.Message{}, fmt.Errorf("transaction is required")
	}

	var msg model.Message
	err := tx.QueryRow(ctx, `
INSERT INTO messages (
	match_id,
	sender_id,
	recipient_id,
	kind,
	content,
	attachment_key,
	is_read,
	created_at
)
SELECT $1, $2, $3, $4, $5, $6, FALSE,
	GREATEST(
		clock_timestamp(),
		COALESCE((SELECT MAX(created_at) FROM messages WHERE match_id = $1), clock_timestamp())
	)
RETURNING id, match_id, sender_id, recipient_id, kind, content, attachment_key, is_read, created_at
`, matchID, senderID, recipientID, string(kind), content, attachmentKey).Scan(
		&msg.ID,
		&msg.MatchID,
		&msg.SenderID,
		&msg.RecipientID,
		&msg.Kind,
		&msg.Content,
		&msg.AttachmentKey,
		&msg.IsRead,
		&msg.CreatedAt,
	)
	if err != nil {
		return model.Message{}, fmt.Errorf("create message: %w", err)
	}

	return msg, nil
}

// ListRecent returns the newest limit messages of a match in descending
// send order. Callers re-order ascending for display.
func (r *MessageRepo) ListRecent(ctx context.Context, matchID int64, limit int) ([]model.Message, error) {
	if matchID <= 0 {
		return nil, fmt.Errorf("invalid match id")
	}
	if limit <= 0 {
		limit = 50
	}
	if r.pool == nil {
		return []model.Message{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, match_id, sender_id, recipient_id, kind, content, attachment_key, is_read, created_at
FROM messages
WHERE match_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, matchID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	items := make([]model.Message, 0, limit)
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.MatchID,
			&msg.SenderID,
			&msg.RecipientID,
			&msg.Kind,
			&msg.Content,
			&msg.AttachmentKey,
			&msg.IsRead,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, msg)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate messages: %w", rows.Err())
	}

	return items, nil
}

// MarkRead flips every unread message addressed to recipientID within the
// match. Re-running is a no-op; is_read never transitions back.
func (r *MessageRepo) MarkRead(ctx context.Context, matchID, recipientID int64) (int64, error) {
	if matchID <= 0 || recipientID <= 0 {
		return 0, fmt.Errorf("invalid mark read payload")
	}
	if r.pool == nil {
		return 0, nil
	}

	result, err := r.pool.Exec(ctx, `
UPDATE messages
SET is_read = TRUE
WHERE match_id = $1 AND recipient_id = $2 AND NOT is_read
`, matchID, recipientID)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}

	return result.RowsAffected(), nil
}
