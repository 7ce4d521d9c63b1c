package model

import (
	"time"

	"github.com/sparkmatch/backend/internal/domain/enums"
)

// Swipe is a one-directional decision by one user about another. Rows are
// write-once: a second swipe on the same ordered pair is rejected, never
// overwritten.
type Swipe struct {
	ID           int64               `json:"id"`
	ActorUserID  int64               `json:"actor_user_id"`
	TargetUserID int64               `json:"target_user_id"`
	Decision     enums.SwipeDecision `json:"decision"`
	CreatedAt    time.Time           `json:"created_at"`
}
