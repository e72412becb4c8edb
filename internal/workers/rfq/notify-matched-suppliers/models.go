// internal/workers/rfq/notify-matched-suppliers/models.go
package notifymatchedsuppliers

import (
	"time"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
)

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
	StatusSkipped  = "skipped"

	ChannelEmail     = "email"
	ChannelConcierge = "concierge"
)

type Input struct {
	RFQID          string               `json:"rfqId"`
	ProjectName    string               `json:"projectName,omitempty"`
	ProjectAddress string               `json:"projectAddress,omitempty"`
	Deadline       *time.Time           `json:"deadline,omitempty"`
	Matches        []models.MatchResult `json:"matches"`
}

type Output struct {
	Notifications      []models.Notification `json:"notifications"`
	EmailsSent         int                   `json:"emailsSent"`
	EmailsFailed       int                   `json:"emailsFailed"`
	ConciergeNotified  bool                  `json:"conciergeNotified"`
	ConciergeMessageID string                `json:"conciergeMessageId,omitempty"`
}

// conciergeMessage is the SNS payload the concierge desk consumes.
type conciergeMessage struct {
	RFQID          string              `json:"rfqId"`
	ProjectName    string              `json:"projectName,omitempty"`
	ProjectAddress string              `json:"projectAddress,omitempty"`
	Reason         string              `json:"reason"`
	Matches        []conciergeSupplier `json:"matches"`
}

type conciergeSupplier struct {
	SupplierID    string  `json:"supplierId"`
	SupplierName  string  `json:"supplierName"`
	ProductID     string  `json:"productId"`
	Score         float64 `json:"score"`
	Tier          int     `json:"tier"`
	DistanceMiles float64 `json:"distanceMiles"`
}
