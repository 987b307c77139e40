package dto

type RequestLinkRequest struct {
	Address string `json:"address" validate:"required"`
}

type VerifyLinkRequest struct {
	Address string `json:"address" validate:"required"`
	Code    string `json:"code" validate:"required"`
}

type LinkResponse struct {
	Address string `json:"address"`
	Channel string `json:"channel"`
	Status  string `json:"status"`
}

type ResolveLinkResponse struct {
	Address string `json:"address"`
	Status  string `json:"status"`
	UserID  string `json:"user_id,omitempty"`
}
