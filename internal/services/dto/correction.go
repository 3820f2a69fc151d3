package dto

import "habbit_backend/internal/models"

type CorrectTextRequest struct {
	Text     string `json:"text" binding:"required" validate:"required,min=1,max=10000"`
	Language string `json:"language" validate:"omitempty,oneof=pt en es"`
}

// CorrectTextResponse reports the persisted record plus the advisory usage
// figure (count observed before the call, plus one — not re-queried).
type CorrectTextResponse struct {
	Correction   *models.Correction `json:"correction"`
	MonthlyUsage int64              `json:"monthlyUsage"`
	MonthlyLimit int                `json:"monthlyLimit"`
}

type ListCorrectionsRequest struct {
	Page    int `form:"page" validate:"omitempty,min=1"`
	PerPage int `form:"perPage" validate:"omitempty,min=1,max=100"`
}

// UserStatsResponse is the quota query surface.
type UserStatsResponse struct {
	TotalCorrections int64 `json:"totalCorrections"`
	MonthlyLimit     int   `json:"monthlyLimit"`
	Remaining        int64 `json:"remaining"`
	TotalTokensUsed  int64 `json:"totalTokensUsed"`
}
