package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sparkmatch/backend/internal/domain/enums"
	"github.com/sparkmatch/backend/internal/domain/model"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepo struct {
	pool *pgxpool.Pool
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

// ConversationRecord is one row of the conversation read model: an active
// match joined with the counterpart profile, its last message (if any) and
// the unread count for the requesting user. Unread counts are always
// recomputed here, never kept as stored counters.
type ConversationRecord struct {
	Match       model.Match
	Counterpart model.ProfileSummary
	LastMessage *model.Message
	UnreadCount int
}

// CreateIfAbsent materializes the match for the canonical unordered pair.
// ON CONFLICT DO NOTHING makes the insert safe to race from both directions
// of a mutual like, and silently skips pairs that already have a row,
// including deactivated ones, so moderation is never undone by a new like.
func (r *MatchRepo) CreateIfAbsent(ctx context.Context, tx pgx.Tx, userID, targetID int64, now time.Time) (bool, error) {
	if userID <= 0 || targetID <= 0 || userID == targetID {
		return false, fmt.Errorf("invalid match payload")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	userA, userB := model.CanonicalPair(userID, targetID)

	var matchID int64
	err := tx.QueryRow(ctx, `
INSERT INTO matches (
	user_a_id,
	user_b_id,
	active,
	created_at
) VALUES ($1, $2, TRUE, $3)
ON CONFLICT (user_a_id, user_b_id) DO NOTHING
RETURNING id
`, userA, userB, now.UTC()).Scan(&matchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("create match: %w", err)
	}

	return matchID > 0, nil
}

func (r *MatchRepo) GetByID(ctx context.Context, matchID int64) (model.Match, error) {
	if matchID <= 0 {
		return model.Match{}, fmt.Errorf("invalid match id")
	}
	if r.pool == nil {
		return model.Match{}, ErrMatchNotFound
	}

	var m model.Match
	err := r.pool.QueryRow(ctx, `
SELECT id, user_a_id, user_b_id, active, created_at
FROM matches
WHERE id = $1
`, matchID).Scan(&m.ID, &m.UserAID, &m.UserBID, &m.Active, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("get match: %w", err)
	}

	return m, nil
}

// GetByIDForUpdate locks the match row for the duration of the transaction.
// Message sends take this lock so per-match accept order is serialized and
// message timestamps stay non-decreasing.
func (r *MatchRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, matchID int64) (model.Match, error) {
	if matchID <= 0 {
		return model.Match{}, fmt.Errorf("invalid match id")
	}
	if tx == nil {
		return model.Match{}, fmt.Errorf("transaction is required")
	}

	var m model.Match
	err := tx.QueryRow(ctx, `
SELECT id, user_a_id, user_b_id, active, created_at
FROM matches
WHERE id = $1
FOR UPDATE
`, matchID).Scan(&m.ID, &m.UserAID, &m.UserBID, &m.Active, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("lock match: %w", err)
	}

	return m, nil
}

// DeactivateByUsers flips the pair's match to inactive. The row stays in
// place; a deactivated pair never re-matches.
func (r *MatchRepo) DeactivateByUsers(ctx context.Context, tx pgx.Tx, userID, targetID int64) (bool, error) {
	if userID <= 0 || targetID <= 0 {
		return false, fmt.Errorf("invalid match deactivate payload")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	userA, userB := model.CanonicalPair(userID, targetID)

	result, err := tx.Exec(ctx, `
UPDATE matches
SET active = FALSE
WHERE user_a_id = $1 AND user_b_id = $2 AND active
`, userA, userB)
	if err != nil {
		return false, fmt.Errorf("deactivate match: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// ListConversationsForUser loads every active match of the user with the
// counterpart profile, the newest message and the user's unread count.
// Matches whose counterpart profile is missing are dropped, mirroring how
// the profile service owns that data.
func (r *MatchRepo) ListConversationsForUser(ctx context.Context, userID int64, limit int) ([]ConversationRecord, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 200
	}
	if r.pool == nil {
		return []ConversationRecord{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	m.id,
	m.user_a_id,
	m.user_b_id,
	m.active,
	m.created_at,
	p.user_id,
	COALESCE(p.display_name, ''),
	COALESCE(DATE_PART('year', AGE(NOW(), p.birthdate::timestamp))::int, 0),
	COALESCE(p.intent, ''),
	COALESCE(p.photo_key, ''),
	lm.id,
	lm.sender_id,
	lm.recipient_id,
	lm.kind,
	lm.content,
	lm.attachment_key,
	lm.is_read,
	lm.created_at,
	(
		SELECT COUNT(*)
		FROM messages mm
		WHERE mm.match_id = m.id AND mm.recipient_id = $1 AND NOT mm.is_read
	) AS unread_count
FROM matches m
JOIN profiles p ON p.user_id = CASE WHEN m.user_a_id = $1 THEN m.user_b_id ELSE m.user_a_id END
LEFT JOIN LATERAL (
	SELECT id, sender_id, recipient_id, kind, content, attachment_key, is_read, created_at
	FROM messages
	WHERE match_id = m.id
	ORDER BY created_at DESC, id DESC
	LIMIT 1
) lm ON TRUE
WHERE
	(m.user_a_id = $1 OR m.user_b_id = $1)
	AND m.active
ORDER BY m.created_at DESC, m.id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	items := make([]ConversationRecord, 0, limit)
	for rows.Next() {
		var (
			rec           ConversationRecord
			lmID          *int64
			lmSender      *int64
			lmRecipient   *int64
			lmKind        *string
			lmContent     *string
			lmAttachment  *string
			lmIsRead      *bool
			lmCreatedAt   *time.Time
		)
		if err := rows.Scan(
			&rec.Match.ID,
			&rec.Match.UserAID,
			&rec.Match.UserBID,
			&rec.Match.Active,
			&rec.Match.CreatedAt,
			&rec.Counterpart.UserID,
			&rec.Counterpart.DisplayName,
			&rec.Counterpart.Age,
			&rec.Counterpart.Intent,
			&rec.Counterpart.PhotoKey,
			&lmID,
			&lmSender,
			&lmRecipient,
			&lmKind,
			&lmContent,
			&lmAttachment,
			&lmIsRead,
			&lmCreatedAt,
			&rec.UnreadCount,
		); err != nil {
			return nil, fmt.Errorf("scan conversation row: %w", err)
		}

		if lmID != nil {
			msg := model.Message{
				ID:          *lmID,
				MatchID:     rec.Match.ID,
				SenderID:    *lmSender,
				RecipientID: *lmRecipient,
				CreatedAt:   *lmCreatedAt,
			}
			if lmKind != nil {
				msg.Kind = enums.MessageKind(*lmKind)
			}
			if lmContent != nil {
				msg.Content = *lmContent
			}
			if lmAttachment != nil {
				msg.AttachmentKey = *lmAttachment
			}
			if lmIsRead != nil {
				msg.IsRead = *lmIsRead
			}
			rec.LastMessage = &msg
		}

		items = append(items, rec)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate conversations: %w", rows.Err())
	}

	return items, nil
}
