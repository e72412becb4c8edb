// internal/workers/rfq/persist-match-results/models.go
package persistmatchresults

import (
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/engine"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
)

type Input struct {
	RFQID       string               `json:"rfqId"`
	Matches     []models.MatchResult `json:"matches"`
	Diagnostics *engine.Diagnostics  `json:"diagnostics,omitempty"`
}

type Output struct {
	RunID          string `json:"runId"`
	PersistedCount int    `json:"persistedCount"`
	PersistedAt    string `json:"persistedAt"`
}
