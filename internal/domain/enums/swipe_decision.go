package enums

type SwipeDecision string

const (
	SwipeDecisionLike    SwipeDecision = "LIKE"
	SwipeDecisionDislike SwipeDecision = "DISLIKE"
)
