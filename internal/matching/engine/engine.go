// Package engine selects, scores and ranks supplier candidates for an RFQ and
// tags each result with its fulfilment route.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/logger"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/metrics"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/scoring"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
)

var (
	ErrInvalidRequest            = errors.New("INVALID_REQUEST")
	ErrCandidateStoreUnavailable = errors.New("CANDIDATE_STORE_UNAVAILABLE")
	ErrTimeout                   = errors.New("TIMEOUT")
)

// CandidateStore is the external supplier record store.
type CandidateStore interface {
	FetchCandidates(ctx context.Context, q models.CandidateQuery) ([]models.SupplierCandidate, error)
}

type Options struct {
	MaxCandidates int
	// Concurrency caps in-flight scoring units, which bounds concurrent
	// oracle calls.
	Concurrency  int
	StoreTimeout time.Duration
	// BudgetBuffer widens the budget ceiling when flagging results.
	BudgetBuffer  float64
	SlowThreshold time.Duration
	// OracleReserve is held back from the caller's deadline so that units
	// left after the shared oracle deadline can still be scored neutrally.
	// The reserve grows to a tenth of the remaining time when that is larger.
	OracleReserve time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxCandidates: 10,
		Concurrency:   8,
		StoreTimeout:  5 * time.Second,
		BudgetBuffer:  1.1,
		SlowThreshold: 500 * time.Millisecond,
		OracleReserve: 50 * time.Millisecond,
	}
}

type Result struct {
	RFQID       string               `json:"rfqId"`
	Matches     []models.MatchResult `json:"matches"`
	Diagnostics Diagnostics          `json:"diagnostics"`
}

// Diagnostics accounts for every candidate in the pool:
// CandidatesConsidered = FilteredByMaterial + OutsideRadius + MalformedCandidates
// + DuplicateCandidates + CandidatesRanked.
//
// DuplicateCandidates counts scorable records whose supplier id already
// appeared earlier in the pool; their products compete for that supplier's
// single result.
type Diagnostics struct {
	CandidatesConsidered int      `json:"candidatesConsidered"`
	FilteredByMaterial   int      `json:"filteredByMaterial"`
	OutsideRadius        int      `json:"outsideRadius"`
	MalformedCandidates  int      `json:"malformedCandidates"`
	DuplicateCandidates  int      `json:"duplicateCandidates"`
	MalformedProducts    int      `json:"malformedProducts"`
	MalformedRecords     []string `json:"malformedRecords,omitempty"`
	CandidatesRanked     int      `json:"candidatesRanked"`
	ProductsScored       int      `json:"productsScored"`
	OracleFallbacks      int      `json:"oracleFallbacks"`
	Truncated            int      `json:"truncated"`
	DurationMs           int64    `json:"durationMs"`
}

type Engine struct {
	opts   Options
	scorer *scoring.Scorer
	store  CandidateStore
	logger logger.Logger
	tracer trace.Tracer
}

// New builds an engine. store may be nil when only Rank is used.
func New(opts Options, scorer *scoring.Scorer, store CandidateStore, log logger.Logger) *Engine {
	def := DefaultOptions()
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = def.MaxCandidates
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = def.StoreTimeout
	}
	if opts.BudgetBuffer <= 0 {
		opts.BudgetBuffer = def.BudgetBuffer
	}
	if opts.SlowThreshold <= 0 {
		opts.SlowThreshold = def.SlowThreshold
	}
	if opts.OracleReserve <= 0 {
		opts.OracleReserve = def.OracleReserve
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Engine{
		opts:   opts,
		scorer: scorer,
		store:  store,
		logger: log,
		tracer: otel.Tracer("rfq-matching/engine"),
	}
}

// Match loads candidates from the store and ranks them.
func (e *Engine) Match(ctx context.Context, req *models.RFQRequest) (*Result, error) {
	if err := ValidateRequest(req); err != nil {
		metrics.RFQMatchRequests.WithLabelValues(outcome(err)).Inc()
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "engine.Match", trace.WithAttributes(
		attribute.String("rfq.id", req.ID),
		attribute.Int("rfq.materials", len(req.Materials)),
	))
	defer span.End()

	pool, err := e.fetch(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RFQMatchRequests.WithLabelValues(outcome(err)).Inc()
		return nil, err
	}
	span.SetAttributes(attribute.Int("rfq.pool_size", len(pool)))

	return e.rank(ctx, req, pool)
}

// Rank scores and orders an already loaded candidate pool. It performs no
// store I/O and never mutates req or pool.
func (e *Engine) Rank(ctx context.Context, req *models.RFQRequest, pool []models.SupplierCandidate) (*Result, error) {
	if err := ValidateRequest(req); err != nil {
		metrics.RFQMatchRequests.WithLabelValues(outcome(err)).Inc()
		return nil, err
	}
	ctx, span := e.tracer.Start(ctx, "engine.Rank", trace.WithAttributes(
		attribute.String("rfq.id", req.ID),
		attribute.Int("rfq.pool_size", len(pool)),
	))
	defer span.End()

	return e.rank(ctx, req, pool)
}

func (e *Engine) fetch(ctx context.Context, req *models.RFQRequest) ([]models.SupplierCandidate, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: no candidate store configured", ErrCandidateStoreUnavailable)
	}

	sctx, cancel := context.WithTimeout(ctx, e.opts.StoreTimeout)
	defer cancel()

	pool, err := e.store.FetchCandidates(sctx, models.CandidateQuery{
		Materials:   req.Materials,
		Location:    req.Location,
		RadiusMiles: req.RadiusMiles,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		}
		e.logger.Error("candidate store unavailable", map[string]interface{}{
			"rfqId": req.ID,
			"error": err,
		})
		return nil, fmt.Errorf("%w: %v", ErrCandidateStoreUnavailable, err)
	}
	return pool, nil
}

// ValidateRequest rejects requests that cannot be matched at all.
func ValidateRequest(req *models.RFQRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}
	if len(normalizedMaterials(req.Materials)) == 0 {
		return fmt.Errorf("%w: materials list is empty", ErrInvalidRequest)
	}
	if req.RadiusMiles != nil {
		r := *req.RadiusMiles
		if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
			return fmt.Errorf("%w: radius must be a positive number of miles", ErrInvalidRequest)
		}
	}
	return nil
}

func normalizedMaterials(materials []string) map[string]struct{} {
	out := make(map[string]struct{}, len(materials))
	for _, m := range materials {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			out[m] = struct{}{}
		}
	}
	return out
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrCandidateStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "error"
	}
}
