package matchsuppliers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/errors"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/logger"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/carbon"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/engine"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/scoring"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/tier"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
)

// ==========================
// Mock Implementations
// ==========================

type MockCandidateStore struct {
	FetchCandidatesFunc func(ctx context.Context, q models.CandidateQuery) ([]models.SupplierCandidate, error)
}

func (m *MockCandidateStore) FetchCandidates(ctx context.Context, q models.CandidateQuery) ([]models.SupplierCandidate, error) {
	return m.FetchCandidatesFunc(ctx, q)
}

type MockMatcher struct {
	MatchFunc func(ctx context.Context, req *models.RFQRequest) (*engine.Result, error)
	RankFunc  func(ctx context.Context, req *models.RFQRequest, pool []models.SupplierCandidate) (*engine.Result, error)
}

func (m *MockMatcher) Match(ctx context.Context, req *models.RFQRequest) (*engine.Result, error) {
	return m.MatchFunc(ctx, req)
}

func (m *MockMatcher) Rank(ctx context.Context, req *models.RFQRequest, pool []models.SupplierCandidate) (*engine.Result, error) {
	return m.RankFunc(ctx, req, pool)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func createTestEngine(t *testing.T, store engine.CandidateStore) *engine.Engine {
	log := logger.NewTestLogger(t)
	scorer := scoring.NewScorer(scoring.DefaultWeights(), carbon.NewEstimator(carbon.DefaultEmissionFactorKgPerTonMile),
		tier.NewClassifier(tier.DefaultLocalThresholdMiles), nil, log)
	return engine.New(engine.DefaultOptions(), scorer, store, log)
}

func createTestRFQ() models.RFQRequest {
	return models.RFQRequest{
		ID:          "rfq-100",
		ArchitectID: "arch-1",
		Location: models.Location{
			Latitude:  models.Float64Ptr(37.7749),
			Longitude: models.Float64Ptr(-122.4194),
			Address:   "San Francisco, CA",
		},
		Materials:      []string{"concrete"},
		Certifications: []string{"FSC"},
	}
}

func createTestPool() []models.SupplierCandidate {
	return []models.SupplierCandidate{
		{
			ID:                 "sup-premium",
			CompanyName:        "Bay Green Concrete",
			Email:              "sales@baygreen.test",
			Location:           models.Location{Latitude: models.Float64Ptr(37.80), Longitude: models.Float64Ptr(-122.27)},
			VerificationStatus: models.VerificationVerified,
			SubscriptionTier:   models.SubscriptionPremium,
			Certifications:     []string{"FSC"},
			Products: []models.Product{
				{ID: "p-1", Name: "Low-carbon mix", MaterialType: "concrete", UnitPrice: 120, EmbodiedCarbonKg: 30, WeightKg: 1000},
			},
		},
		{
			ID:                 "sup-scraped",
			CompanyName:        "Scraped Supply",
			Location:           models.Location{Latitude: models.Float64Ptr(40.71), Longitude: models.Float64Ptr(-74.00)},
			VerificationStatus: models.VerificationUnverified,
			SubscriptionTier:   models.SubscriptionScraped,
			Products: []models.Product{
				{ID: "p-2", MaterialType: "concrete", UnitPrice: 90, EmbodiedCarbonKg: 60, WeightKg: 1000},
			},
		},
		{
			ID:                 "sup-timber",
			CompanyName:        "Timber Only",
			VerificationStatus: models.VerificationVerified,
			SubscriptionTier:   models.SubscriptionStandard,
			Products: []models.Product{
				{ID: "p-3", MaterialType: "timber", UnitPrice: 50, EmbodiedCarbonKg: 5},
			},
		},
	}
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	stdErr := errors.AsStandardError(err)
	assert.Equal(t, code, stdErr.Code, err.Error())
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_InlinePool(t *testing.T) {
	handler := NewHandler(createTestConfig(), createTestEngine(t, nil), nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{RFQ: createTestRFQ(), Candidates: createTestPool()})

	require.NoError(t, err)
	assert.Equal(t, "rfq-100", output.RFQID)
	require.Equal(t, 2, output.MatchCount)
	assert.Equal(t, "sup-premium", output.Matches[0].SupplierID)
	assert.Equal(t, models.RouteSupplier, output.Matches[0].RoutingTarget)
	assert.Equal(t, "sup-scraped", output.Matches[1].SupplierID)
	assert.Equal(t, models.RouteConcierge, output.Matches[1].RoutingTarget)
	assert.Equal(t, 1, output.SupplierRouted)
	assert.Equal(t, 1, output.ConciergeRouted)
	assert.True(t, output.RequiresConcierge)
	assert.Equal(t, 3, output.Diagnostics.CandidatesConsidered)
	assert.Equal(t, 1, output.Diagnostics.FilteredByMaterial)
	assert.NotEmpty(t, output.MatchedAt)
}

func TestHandler_Execute_StorePath(t *testing.T) {
	var gotQuery models.CandidateQuery
	store := &MockCandidateStore{
		FetchCandidatesFunc: func(ctx context.Context, q models.CandidateQuery) ([]models.SupplierCandidate, error) {
			gotQuery = q
			return createTestPool()[:1], nil
		},
	}
	handler := NewHandler(createTestConfig(), createTestEngine(t, store), nil, logger.NewTestLogger(t))

	rfq := createTestRFQ()
	rfq.RadiusMiles = models.Float64Ptr(50)
	output, err := handler.Execute(context.Background(), &Input{RFQ: rfq})

	require.NoError(t, err)
	assert.Equal(t, []string{"concrete"}, gotQuery.Materials)
	require.NotNil(t, gotQuery.RadiusMiles)
	assert.Equal(t, 50.0, *gotQuery.RadiusMiles)
	assert.Equal(t, 1, output.MatchCount)
	assert.False(t, output.RequiresConcierge)
}

func TestHandler_Execute_EmptyResultNeedsConcierge(t *testing.T) {
	handler := NewHandler(createTestConfig(), createTestEngine(t, nil), nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		RFQ:        createTestRFQ(),
		Candidates: []models.SupplierCandidate{},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, output.MatchCount)
	assert.NotNil(t, output.Matches)
	assert.True(t, output.RequiresConcierge)
}

// ==========================
// Validation Tests
// ==========================

func TestHandler_Execute_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *Input)
		code   errors.ErrorCode
	}{
		{"missing rfq id", func(in *Input) { in.RFQ.ID = "" }, errors.ErrCodeSchemaValidationFailed},
		{"null materials", func(in *Input) { in.RFQ.Materials = nil }, errors.ErrCodeSchemaValidationFailed},
		{"negative budget", func(in *Input) {
			in.RFQ.Budget = &models.BudgetRange{Max: models.Float64Ptr(-1)}
		}, errors.ErrCodeSchemaValidationFailed},
		{"blank materials", func(in *Input) { in.RFQ.Materials = []string{" "} }, errors.ErrCodeInvalidRequest},
		{"zero radius", func(in *Input) { in.RFQ.RadiusMiles = models.Float64Ptr(0) }, errors.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(createTestConfig(), createTestEngine(t, nil), nil, logger.NewTestLogger(t))
			input := &Input{RFQ: createTestRFQ(), Candidates: createTestPool()}
			tt.mutate(input)

			_, err := handler.Execute(context.Background(), input)
			requireCode(t, err, tt.code)
		})
	}
}

func TestHandler_Execute_NilInput(t *testing.T) {
	handler := NewHandler(createTestConfig(), createTestEngine(t, nil), nil, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), nil)
	requireCode(t, err, errors.ErrCodeInvalidRequest)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_EngineErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      errors.ErrorCode
		retryable bool
	}{
		{"store unavailable", fmt.Errorf("%w: connection refused", engine.ErrCandidateStoreUnavailable), errors.ErrCodeCandidateStoreUnavailable, true},
		{"timeout", fmt.Errorf("%w: context canceled", engine.ErrTimeout), errors.ErrCodeMatchTimeout, true},
		{"invalid request", fmt.Errorf("%w: materials list is empty", engine.ErrInvalidRequest), errors.ErrCodeInvalidRequest, false},
		{"unexpected", fmt.Errorf("boom"), errors.ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matcher := &MockMatcher{
				MatchFunc: func(ctx context.Context, req *models.RFQRequest) (*engine.Result, error) {
					return nil, tt.err
				},
			}
			handler := NewHandler(createTestConfig(), matcher, nil, logger.NewTestLogger(t))

			_, err := handler.Execute(context.Background(), &Input{RFQ: createTestRFQ()})

			requireCode(t, err, tt.code)
			stdErr := errors.AsStandardError(err)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
			assert.Equal(t, "rfq-100", stdErr.Metadata["rfqId"])
		})
	}
}

func TestHandler_Execute_StoreFailureThroughEngine(t *testing.T) {
	store := &MockCandidateStore{
		FetchCandidatesFunc: func(ctx context.Context, q models.CandidateQuery) ([]models.SupplierCandidate, error) {
			return nil, fmt.Errorf("connection refused")
		},
	}
	handler := NewHandler(createTestConfig(), createTestEngine(t, store), nil, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{RFQ: createTestRFQ()})

	requireCode(t, err, errors.ErrCodeCandidateStoreUnavailable)
}

func TestHandler_Execute_CancelledContext(t *testing.T) {
	store := &MockCandidateStore{
		FetchCandidatesFunc: func(ctx context.Context, q models.CandidateQuery) ([]models.SupplierCandidate, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	handler := NewHandler(createTestConfig(), createTestEngine(t, store), nil, logger.NewTestLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := handler.Execute(ctx, &Input{RFQ: createTestRFQ()})

	requireCode(t, err, errors.ErrCodeMatchTimeout)
}
