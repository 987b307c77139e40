package dto

type PostMovementRequest struct {
	Type            string `json:"type" validate:"required,oneof=INCOME EXPENSE"`
	AccountID       int64  `json:"account_id" validate:"required"`
	CategoryID      int64  `json:"category_id" validate:"required"`
	SubcategoryID   *int64 `json:"subcategory_id,omitempty"`
	Amount          string `json:"amount" validate:"required"`
	Memo            string `json:"memo"`
	Date            string `json:"date,omitempty"`
	ExternalEventID string `json:"external_event_id,omitempty"`
}

type MovementResponse struct {
	ID               string `json:"id"`
	AccountID        int64  `json:"account_id"`
	Type             string `json:"type"`
	Amount           string `json:"amount"`
	Memo             string `json:"memo"`
	Date             string `json:"date"`
	Balance          string `json:"balance"`
	AlreadyProcessed bool   `json:"already_processed"`
}
