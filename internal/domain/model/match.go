package model

import "time"

// Match is the materialized mutual-like relationship of an unordered user
// pair. UserAID < UserBID always holds, so the pair maps to exactly one row
// regardless of which side created it. Deactivation flips Active; the row
// is never deleted, which is what keeps a moderated pair from re-matching.
type Match struct {
	ID        int64     `json:"id"`
	UserAID   int64     `json:"user_a_id"`
	UserBID   int64     `json:"user_b_id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// OtherUser returns the counterpart of userID in the match, or 0 when
// userID is not a participant.
func (m Match) OtherUser(userID int64) int64 {
	switch userID {
	case m.UserAID:
		return m.UserBID
	case m.UserBID:
		return m.UserAID
	default:
		return 0
	}
}

func (m Match) HasParticipant(userID int64) bool {
	return userID == m.UserAID || userID == m.UserBID
}

// CanonicalPair orders two user ids into the canonical (a, b) storage key.
func CanonicalPair(userID, targetID int64) (int64, int64) {
	if userID > targetID {
		return targetID, userID
	}
	return userID, targetID
}
