package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/metrics"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/geo"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/scoring"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/tier"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
)

// unit is one (candidate, product) pair to score.
type unit struct {
	cand *models.SupplierCandidate
	prod *models.Product
}

type scored struct {
	unit
	breakdown scoring.Breakdown
}

func (e *Engine) rank(ctx context.Context, req *models.RFQRequest, pool []models.SupplierCandidate) (*Result, error) {
	start := time.Now()
	diag := Diagnostics{CandidatesConsidered: len(pool)}

	units := e.selectUnits(req, pool, &diag)

	octx, cancel := e.oracleBudget(ctx)
	defer cancel()

	results := make([]scored, len(units))
	g := new(errgroup.Group)
	g.SetLimit(e.opts.Concurrency)
	for i := range units {
		i := i
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = scored{
				unit:      units[i],
				breakdown: e.scorer.Score(octx, req, units[i].cand, units[i].prod),
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		metrics.RFQMatchRequests.WithLabelValues(outcome(ErrTimeout)).Inc()
		return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	diag.ProductsScored = len(results)
	for _, r := range results {
		if r.breakdown.OracleStatus.Fallback() {
			diag.OracleFallbacks++
			metrics.RFQOracleFallbacks.WithLabelValues(string(r.breakdown.OracleStatus)).Inc()
		}
	}

	best := collapseBySupplier(results)
	matches := make([]models.MatchResult, 0, len(best))
	for _, s := range best {
		matches = append(matches, e.toMatchResult(req, s))
	}
	sortMatches(matches)

	diag.CandidatesRanked = len(matches)
	if len(matches) > e.opts.MaxCandidates {
		diag.Truncated = len(matches) - e.opts.MaxCandidates
		matches = matches[:e.opts.MaxCandidates]
	}

	elapsed := time.Since(start)
	diag.DurationMs = elapsed.Milliseconds()
	e.record(diag, elapsed)

	e.logger.Info("rfq ranking completed", map[string]interface{}{
		"rfqId":           req.ID,
		"poolSize":        diag.CandidatesConsidered,
		"outputCount":     len(matches),
		"malformed":       diag.MalformedCandidates + diag.MalformedProducts,
		"oracleFallbacks": diag.OracleFallbacks,
		"durationMs":      diag.DurationMs,
	})
	if elapsed > e.opts.SlowThreshold {
		e.logger.Warn("rfq ranking exceeded threshold", map[string]interface{}{
			"rfqId":       req.ID,
			"durationMs":  diag.DurationMs,
			"thresholdMs": e.opts.SlowThreshold.Milliseconds(),
		})
	}

	return &Result{RFQID: req.ID, Matches: matches, Diagnostics: diag}, nil
}

// oracleBudget returns the context shared by every oracle call in one run. It
// ends OracleReserve (or a tenth of the remaining time, if larger) before the
// caller's deadline. Without a caller deadline only the per-call timeout
// applies.
func (e *Engine) oracleBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return context.WithCancel(ctx)
	}
	reserve := e.opts.OracleReserve
	if tenth := time.Until(deadline) / 10; tenth > reserve {
		reserve = tenth
	}
	return context.WithDeadline(ctx, deadline.Add(-reserve))
}

// selectUnits applies material, validity and radius filters and returns the
// pairs left to score. Every candidate lands in exactly one diagnostics bucket.
func (e *Engine) selectUnits(req *models.RFQRequest, pool []models.SupplierCandidate, diag *Diagnostics) []unit {
	wanted := normalizedMaterials(req.Materials)
	var units []unit
	scorable := make(map[string]struct{}, len(pool))

	for i := range pool {
		cand := &pool[i]

		if strings.TrimSpace(cand.ID) == "" {
			diag.MalformedCandidates++
			diag.MalformedRecords = append(diag.MalformedRecords, fmt.Sprintf("candidate[%d]: missing supplier id", i))
			continue
		}

		var matching []*models.Product
		for j := range cand.Products {
			p := &cand.Products[j]
			if _, ok := wanted[strings.ToLower(strings.TrimSpace(p.MaterialType))]; ok {
				matching = append(matching, p)
			}
		}
		if len(matching) == 0 {
			diag.FilteredByMaterial++
			continue
		}

		valid := matching[:0:0]
		for _, p := range matching {
			if reason := malformedProduct(p); reason != "" {
				diag.MalformedProducts++
				diag.MalformedRecords = append(diag.MalformedRecords, fmt.Sprintf("%s/%s: %s", cand.ID, p.ID, reason))
				continue
			}
			valid = append(valid, p)
		}
		if len(valid) == 0 {
			diag.MalformedCandidates++
			continue
		}

		if req.HasRadius() {
			d := scoring.Distance(req, cand)
			if geo.IsUnknown(d) || d > *req.RadiusMiles {
				diag.OutsideRadius++
				continue
			}
		}

		if _, dup := scorable[cand.ID]; dup {
			diag.DuplicateCandidates++
		} else {
			scorable[cand.ID] = struct{}{}
		}
		for _, p := range valid {
			units = append(units, unit{cand: cand, prod: p})
		}
	}
	return units
}

func malformedProduct(p *models.Product) string {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return "missing product id"
	case badNumber(p.UnitPrice):
		return "invalid unit price"
	case badNumber(p.EmbodiedCarbonKg):
		return "invalid embodied carbon"
	case badNumber(p.WeightKg):
		return "invalid weight"
	}
	return ""
}

func badNumber(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0) || v < 0
}

// collapseBySupplier keeps the best product per supplier id.
func collapseBySupplier(results []scored) []scored {
	index := make(map[string]int, len(results))
	var out []scored
	for _, r := range results {
		pos, seen := index[r.cand.ID]
		if !seen {
			index[r.cand.ID] = len(out)
			out = append(out, r)
			continue
		}
		if betterProduct(r, out[pos]) {
			out[pos] = r
		}
	}
	return out
}

func betterProduct(a, b scored) bool {
	if a.breakdown.Score != b.breakdown.Score {
		return a.breakdown.Score > b.breakdown.Score
	}
	if a.breakdown.DistanceMiles != b.breakdown.DistanceMiles {
		return a.breakdown.DistanceMiles < b.breakdown.DistanceMiles
	}
	if a.prod.UnitPrice != b.prod.UnitPrice {
		return a.prod.UnitPrice < b.prod.UnitPrice
	}
	return a.prod.ID < b.prod.ID
}

// sortMatches orders by score desc, distance asc, price asc, then ids so the
// output never depends on scoring completion order.
func sortMatches(m []models.MatchResult) {
	sort.SliceStable(m, func(i, j int) bool {
		a, b := m[i], m[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.DistanceMiles != b.DistanceMiles {
			return a.DistanceMiles < b.DistanceMiles
		}
		if a.UnitPrice != b.UnitPrice {
			return a.UnitPrice < b.UnitPrice
		}
		if a.SupplierID != b.SupplierID {
			return a.SupplierID < b.SupplierID
		}
		return a.ProductID < b.ProductID
	})
}

func (e *Engine) toMatchResult(req *models.RFQRequest, s scored) models.MatchResult {
	b := s.breakdown
	return models.MatchResult{
		SupplierID:          s.cand.ID,
		SupplierName:        s.cand.CompanyName,
		SupplierEmail:       s.cand.Email,
		ProductID:           s.prod.ID,
		ProductName:         s.prod.Name,
		MaterialType:        s.prod.MaterialType,
		UnitPrice:           s.prod.UnitPrice,
		DistanceMiles:       round2(b.DistanceMiles),
		DistanceCategory:    geo.CategoryWithin(b.DistanceMiles, e.scorer.Classifier().LocalThresholdMiles),
		TransportCarbonKg:   round2(b.TransportCarbonKg),
		EmbodiedCarbonKg:    s.prod.EmbodiedCarbonKg,
		TotalCarbonKg:       round2(b.TotalCarbonKg),
		Tier:                b.Tier,
		Score:               b.Score,
		Recommendation:      scoring.Recommendation(b.Score),
		WithinBudget:        e.withinBudget(req, s.prod.UnitPrice),
		RoutingTarget:       Route(b),
		WhyRecommended:      e.explain(req, s),
		RelevanceAdjustment: b.RelevanceAdjustment,
	}
}

// Route sends premium-path results (verified, premium subscription, tier 1
// or 2) straight to the supplier and everything else to the concierge desk.
func Route(b scoring.Breakdown) models.RoutingTarget {
	if b.Premium && (b.Tier == tier.PremiumLocal || b.Tier == tier.PremiumOrLocal) {
		return models.RouteSupplier
	}
	return models.RouteConcierge
}

func (e *Engine) withinBudget(req *models.RFQRequest, price float64) bool {
	if req.Budget == nil || req.Budget.Max == nil {
		return true
	}
	return price <= *req.Budget.Max*e.opts.BudgetBuffer
}

func (e *Engine) record(diag Diagnostics, elapsed time.Duration) {
	metrics.RFQMatchDuration.WithLabelValues("success").Observe(elapsed.Seconds())
	metrics.RFQMatchRequests.WithLabelValues("success").Inc()
	metrics.RFQCandidatesEvaluated.WithLabelValues("ranked").Add(float64(diag.CandidatesRanked))
	metrics.RFQCandidatesEvaluated.WithLabelValues("filtered").Add(float64(diag.FilteredByMaterial))
	metrics.RFQCandidatesEvaluated.WithLabelValues("outside_radius").Add(float64(diag.OutsideRadius))
	metrics.RFQCandidatesEvaluated.WithLabelValues("malformed").Add(float64(diag.MalformedCandidates))
	metrics.RFQCandidatesEvaluated.WithLabelValues("duplicate").Add(float64(diag.DuplicateCandidates))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
