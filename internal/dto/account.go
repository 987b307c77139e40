package dto

type CreateAccountRequest struct {
	Name           string `json:"name" validate:"required"`
	Currency       string `json:"currency" validate:"required,len=3"`
	Nature         string `json:"nature" validate:"required,oneof=asset liability"`
	OpeningBalance string `json:"opening_balance,omitempty"`
	CreditLimit    string `json:"credit_limit,omitempty"`
}

type AccountResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Nature   string `json:"nature"`
	Balance  string `json:"balance"`
	Active   bool   `json:"active"`
}
