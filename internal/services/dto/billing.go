package dto

type CreateBillingResponse struct {
	BillingID string `json:"billingId"`
	URL       string `json:"url"`
}

type CreateBillingPublicRequest struct {
	Email string `json:"email" binding:"required" validate:"required,email"`
	Name  string `json:"name" validate:"omitempty,max=100"`
}
