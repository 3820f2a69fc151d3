package dto

type UpdateCorrectionStyleRequest struct {
	CorrectionStyle string `json:"correctionStyle" binding:"required" validate:"required,oneof=correct formal informal concise detailed"`
}

type UpdateShortcutRequest struct {
	Shortcut string `json:"shortcut" binding:"required" validate:"required,max=50"`
}
