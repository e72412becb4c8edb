// internal/models/notification.go
package models

type Notification struct {
	ID          string `json:"id"`
	RFQID       string `json:"rfqId"`
	RecipientID string `json:"recipientId"`
	Channel     string `json:"channel"` // "email", "concierge"
	Status      string `json:"status"`  // "sent", "failed", "disabled", "skipped"
	SentAt      string `json:"sentAt"`
}
