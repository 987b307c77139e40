package dto

// InboundMessageRequest is the payload delivered by the messaging channel
// webhook. ExternalEventID is the channel's delivery id and deduplicates
// at-least-once redeliveries.
type InboundMessageRequest struct {
	SenderAddress   string `json:"sender_address" validate:"required"`
	ExternalEventID string `json:"external_event_id" validate:"required"`
	Text            string `json:"text"`
}
