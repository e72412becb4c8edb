// Package oracle provides RelevanceOracle implementations backed by the
// GenAI service, optionally fronted by a Redis cache.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/http"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/logger"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/scoring"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
)

const relevancePath = "/api/ai/relevance"

type relevanceRequest struct {
	RFQID          string            `json:"rfqId"`
	Materials      []string          `json:"materials"`
	Certifications []string          `json:"certifications,omitempty"`
	ProjectAddress string            `json:"projectAddress,omitempty"`
	Supplier       relevanceSupplier `json:"supplier"`
	Product        relevanceProduct  `json:"product"`
}

type relevanceSupplier struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Certifications []string `json:"certifications,omitempty"`
}

type relevanceProduct struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	MaterialType     string  `json:"materialType"`
	UnitPrice        float64 `json:"unitPrice"`
	EmbodiedCarbonKg float64 `json:"embodiedCarbonKg"`
}

type relevanceResponse struct {
	Delta  *float64 `json:"delta"`
	Reason string   `json:"reason"`
}

// GenAIOracle asks the GenAI service for a bounded relevance delta.
type GenAIOracle struct {
	client   *http.Client
	maxDelta float64
	logger   logger.Logger
}

func NewGenAIOracle(client *http.Client, maxDelta float64, log logger.Logger) *GenAIOracle {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &GenAIOracle{
		client:   client,
		maxDelta: math.Abs(maxDelta),
		logger:   log.WithFields(map[string]interface{}{"component": "genai-oracle"}),
	}
}

func (o *GenAIOracle) AdjustScore(ctx context.Context, req *models.RFQRequest, cand *models.SupplierCandidate, prod *models.Product) (scoring.Adjustment, error) {
	body := relevanceRequest{
		RFQID:          req.ID,
		Materials:      req.Materials,
		Certifications: req.Certifications,
		ProjectAddress: req.Location.Address,
		Supplier: relevanceSupplier{
			ID:             cand.ID,
			Name:           cand.CompanyName,
			Certifications: cand.Certifications,
		},
		Product: relevanceProduct{
			ID:               prod.ID,
			Name:             prod.Name,
			MaterialType:     prod.MaterialType,
			UnitPrice:        prod.UnitPrice,
			EmbodiedCarbonKg: prod.EmbodiedCarbonKg,
		},
	}

	var resp relevanceResponse
	if err := o.client.PostJSON(ctx, relevancePath, body, &resp); err != nil {
		if isTimeout(err) {
			return scoring.Adjustment{}, fmt.Errorf("%w: %v", scoring.ErrOracleTimeout, err)
		}
		return scoring.Adjustment{}, fmt.Errorf("%w: %v", scoring.ErrOracleUnavailable, err)
	}
	if resp.Delta == nil || math.IsNaN(*resp.Delta) || math.IsInf(*resp.Delta, 0) {
		return scoring.Adjustment{}, fmt.Errorf("%w: response carried no usable delta", scoring.ErrOracleUnavailable)
	}

	delta := math.Max(-o.maxDelta, math.Min(o.maxDelta, *resp.Delta))
	o.logger.Debug("relevance adjustment received", map[string]interface{}{
		"rfqId":      req.ID,
		"supplierId": cand.ID,
		"productId":  prod.ID,
		"delta":      delta,
	})
	return scoring.Adjustment{Delta: delta, Reason: resp.Reason}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
