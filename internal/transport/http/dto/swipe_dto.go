package dto

type SwipeRequest struct {
	TargetID int64  `json:"target_id"`
	Decision string `json:"decision"`
}

type SwipeResponse struct {
	OK           bool `json:"ok"`
	MatchCreated bool `json:"match_created"`
}
