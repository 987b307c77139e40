package dto

type PostTransferRequest struct {
	SourceAccountID int64  `json:"source_account_id" validate:"required"`
	DestAccountID   int64  `json:"dest_account_id" validate:"required"`
	Amount          string `json:"amount" validate:"required"`
	Memo            string `json:"memo"`
	Date            string `json:"date,omitempty"`
}

type TransferResponse struct {
	TransferID      string `json:"transfer_id"`
	SourceAccountID int64  `json:"source_account_id"`
	DestAccountID   int64  `json:"dest_account_id"`
	Amount          string `json:"amount"`
	Memo            string `json:"memo"`
	Date            string `json:"date"`
	SourceBalance   string `json:"source_balance"`
	DestBalance     string `json:"dest_balance"`
}
