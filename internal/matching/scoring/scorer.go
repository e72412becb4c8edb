// Package scoring computes the composite match score for one
// (request, supplier, product) triple.
package scoring

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/logger"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/carbon"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/geo"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/tier"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
)

var (
	ErrOracleUnavailable = errors.New("ORACLE_UNAVAILABLE")
	ErrOracleTimeout     = errors.New("ORACLE_TIMEOUT")
)

// RelevanceOracle returns a qualitative score adjustment. Implementations
// must honour ctx cancellation.
type RelevanceOracle interface {
	AdjustScore(ctx context.Context, req *models.RFQRequest, cand *models.SupplierCandidate, prod *models.Product) (Adjustment, error)
}

type Adjustment struct {
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason,omitempty"`
}

type OracleStatus string

const (
	OracleDisabled        OracleStatus = "disabled"
	OracleApplied         OracleStatus = "applied"
	OracleFallbackError   OracleStatus = "fallback_error"
	OracleFallbackTimeout OracleStatus = "fallback_timeout"
)

// Fallback reports whether the neutral adjustment replaced an oracle answer.
func (s OracleStatus) Fallback() bool {
	return s == OracleFallbackError || s == OracleFallbackTimeout
}

type Breakdown struct {
	DistanceMiles           float64      `json:"distanceMiles"`
	TransportCarbonKg       float64      `json:"transportCarbonKg"`
	TotalCarbonKg           float64      `json:"totalCarbonKg"`
	Tier                    int          `json:"tier"`
	Premium                 bool         `json:"premium"`
	Local                   bool         `json:"local"`
	Baseline                float64      `json:"baseline"`
	CarbonPenalty           float64      `json:"carbonPenalty"`
	CertificationAdjustment float64      `json:"certificationAdjustment"`
	CertificationsMatched   int          `json:"certificationsMatched"`
	RelevanceAdjustment     float64      `json:"relevanceAdjustment"`
	RelevanceReason         string       `json:"relevanceReason,omitempty"`
	OracleStatus            OracleStatus `json:"oracleStatus"`
	Score                   float64      `json:"score"`
}

type Scorer struct {
	weights    Weights
	estimator  carbon.Estimator
	classifier tier.Classifier
	oracle     RelevanceOracle
	logger     logger.Logger
}

// NewScorer builds a scorer. oracle may be nil, which disables the relevance
// adjustment regardless of weights.
func NewScorer(weights Weights, estimator carbon.Estimator, classifier tier.Classifier, oracle RelevanceOracle, log logger.Logger) *Scorer {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Scorer{
		weights:    weights,
		estimator:  estimator,
		classifier: classifier,
		oracle:     oracle,
		logger:     log,
	}
}

func (s *Scorer) Weights() Weights {
	return s.weights
}

func (s *Scorer) Classifier() tier.Classifier {
	return s.classifier
}

// Distance returns the miles between the project site and the supplier, or
// the unknown sentinel when either side lacks coordinates.
func Distance(req *models.RFQRequest, cand *models.SupplierCandidate) float64 {
	lat1, lng1, ok1 := req.Location.Coordinates()
	lat2, lng2, ok2 := cand.Location.Coordinates()
	if !ok1 || !ok2 {
		return geo.UnknownDistanceMiles
	}
	return geo.Miles(lat1, lng1, lat2, lng2)
}

// Score never fails: oracle problems degrade to the neutral adjustment. A ctx
// that is already done skips the oracle and reports fallback_timeout.
func (s *Scorer) Score(ctx context.Context, req *models.RFQRequest, cand *models.SupplierCandidate, prod *models.Product) Breakdown {
	var b Breakdown

	b.DistanceMiles = Distance(req, cand)
	// Transport carbon is not estimable without a real distance.
	if !geo.IsUnknown(b.DistanceMiles) {
		b.TransportCarbonKg = s.estimator.TransportCarbon(b.DistanceMiles, carbon.KgToTons(prod.WeightKg))
	}
	b.TotalCarbonKg = s.estimator.TotalCarbon(b.TransportCarbonKg, prod.EmbodiedCarbonKg)

	b.Premium = tier.IsPremiumTier(cand.SubscriptionTier)
	b.Local = s.classifier.IsLocal(b.DistanceMiles)
	b.Tier = s.classifier.Classify(cand.VerificationStatus, b.Premium, b.DistanceMiles)

	b.Baseline = s.weights.TierBaselines[b.Tier-1]
	b.CarbonPenalty = s.carbonPenalty(b.TotalCarbonKg)
	b.CertificationAdjustment, b.CertificationsMatched = s.certificationAdjustment(req.Certifications, cand.Certifications)

	adj, status := s.relevance(ctx, req, cand, prod)
	b.RelevanceAdjustment = adj.Delta
	b.RelevanceReason = adj.Reason
	b.OracleStatus = status

	raw := b.Baseline - b.CarbonPenalty + b.CertificationAdjustment + b.RelevanceAdjustment
	b.Score = round2(clampScore(raw))
	return b
}

func (s *Scorer) carbonPenalty(totalKg float64) float64 {
	if s.weights.CarbonReferenceKg <= 0 || totalKg <= 0 {
		return 0
	}
	ratio := totalKg / s.weights.CarbonReferenceKg
	if ratio > 1 {
		ratio = 1
	}
	return ratio * s.weights.CarbonPenaltyMax
}

// certificationAdjustment rewards full coverage of the required set and
// penalises the uncovered share otherwise. Matching is case-insensitive.
func (s *Scorer) certificationAdjustment(required, held []string) (float64, int) {
	want := normalizeSet(required)
	if len(want) == 0 {
		return 0, 0
	}
	have := normalizeSet(held)

	matched := 0
	for c := range want {
		if _, ok := have[c]; ok {
			matched++
		}
	}
	if matched == len(want) {
		return s.weights.CertificationBonus, matched
	}
	missing := float64(len(want)-matched) / float64(len(want))
	return -missing * s.weights.CertificationBonus, matched
}

func (s *Scorer) relevance(ctx context.Context, req *models.RFQRequest, cand *models.SupplierCandidate, prod *models.Product) (Adjustment, OracleStatus) {
	neutral := Adjustment{Delta: s.weights.NeutralAdjustment}
	if !s.weights.AIAdjustmentEnabled || s.oracle == nil {
		return neutral, OracleDisabled
	}
	if err := ctx.Err(); err != nil {
		s.logFallback(cand, prod, OracleFallbackTimeout, err)
		return neutral, OracleFallbackTimeout
	}

	octx, cancel := context.WithTimeout(ctx, s.weights.OracleTimeout)
	defer cancel()

	type reply struct {
		adj Adjustment
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		adj, err := s.oracle.AdjustScore(octx, req, cand, prod)
		ch <- reply{adj: adj, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			status := OracleFallbackError
			if octx.Err() != nil || errors.Is(r.err, context.DeadlineExceeded) || errors.Is(r.err, ErrOracleTimeout) {
				status = OracleFallbackTimeout
			}
			s.logFallback(cand, prod, status, r.err)
			return neutral, status
		}
		if math.IsNaN(r.adj.Delta) || math.IsInf(r.adj.Delta, 0) {
			s.logFallback(cand, prod, OracleFallbackError, ErrOracleUnavailable)
			return neutral, OracleFallbackError
		}
		r.adj.Delta = clampDelta(r.adj.Delta, s.weights.OracleMaxDelta)
		return r.adj, OracleApplied
	case <-octx.Done():
		s.logFallback(cand, prod, OracleFallbackTimeout, octx.Err())
		return neutral, OracleFallbackTimeout
	}
}

func (s *Scorer) logFallback(cand *models.SupplierCandidate, prod *models.Product, status OracleStatus, err error) {
	s.logger.Warn("relevance oracle fallback", map[string]interface{}{
		"supplierId": cand.ID,
		"productId":  prod.ID,
		"status":     string(status),
		"error":      err,
	})
}

func normalizeSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out[v] = struct{}{}
		}
	}
	return out
}

func clampDelta(d, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	if d > limit {
		return limit
	}
	if d < -limit {
		return -limit
	}
	return d
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
