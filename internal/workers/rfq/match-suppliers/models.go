// internal/workers/rfq/match-suppliers/models.go
package matchsuppliers

import (
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/engine"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
)

// Input carries the RFQ and, optionally, an inline candidate pool. When
// Candidates is absent the configured candidate store is queried.
type Input struct {
	RFQ        models.RFQRequest          `json:"rfq"`
	Candidates []models.SupplierCandidate `json:"candidates,omitempty"`
}

type Output struct {
	RFQID             string               `json:"rfqId"`
	Matches           []models.MatchResult `json:"matches"`
	Diagnostics       engine.Diagnostics   `json:"diagnostics"`
	MatchCount        int                  `json:"matchCount"`
	SupplierRouted    int                  `json:"supplierRouted"`
	ConciergeRouted   int                  `json:"conciergeRouted"`
	RequiresConcierge bool                 `json:"requiresConcierge"`
	MatchedAt         string               `json:"matchedAt"`
}
