package model

// ProfileSummary is the denormalized counterpart view used by match and
// conversation read models. Profiles are owned by an external service; the
// engine only reads them.
type ProfileSummary struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	Age         int    `json:"age"`
	Intent      string `json:"intent"`
	PhotoKey    string `json:"photo_key,omitempty"`
}
