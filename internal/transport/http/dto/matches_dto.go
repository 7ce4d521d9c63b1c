package dto

import "time"

type MatchItemResponse struct {
	ID           int64     `json:"id"`
	TargetUserID int64     `json:"target_user_id"`
	DisplayName  string    `json:"display_name"`
	Age          int       `json:"age"`
	Intent       string    `json:"intent,omitempty"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	HasMessages  bool      `json:"has_messages"`
}

type MatchesResponse struct {
	Items []MatchItemResponse `json:"items"`
}

type UnmatchRequest struct {
	TargetID int64 `json:"target_id"`
}

type UnmatchResponse struct {
	OK          bool `json:"ok"`
	Deactivated bool `json:"deactivated"`
}

type BlockRequest struct {
	TargetID int64  `json:"target_id"`
	Reason   string `json:"reason"`
}

type ReportRequest struct {
	TargetID int64  `json:"target_id"`
	Reason   string `json:"reason"`
	Details  string `json:"details"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
