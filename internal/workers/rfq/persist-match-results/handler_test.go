package persistmatchresults

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/errors"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/logger"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/engine"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func setupHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHandler(createTestConfig(), db, logger.NewTestLogger(t)), mock
}

func createTestInput() *Input {
	return &Input{
		RFQID: "rfq-100",
		Matches: []models.MatchResult{
			{
				SupplierID:     "sup-1",
				ProductID:      "p-1",
				Score:          97.6,
				Tier:           1,
				RoutingTarget:  models.RouteSupplier,
				DistanceMiles:  8.4,
				TotalCarbonKg:  32.9,
				WithinBudget:   true,
				WhyRecommended: []string{"Premium verified supplier", "Ultra-local sourcing"},
			},
			{
				SupplierID:    "sup-2",
				ProductID:     "p-2",
				Score:         12,
				Tier:          4,
				RoutingTarget: models.RouteConcierge,
				DistanceMiles: 2570,
				TotalCarbonKg: 960,
			},
		},
		Diagnostics: &engine.Diagnostics{CandidatesConsidered: 3, CandidatesRanked: 2},
	}
}

func expectRun(mock sqlmock.Sqlmock, input *Input, supplierRouted, conciergeRouted int) {
	mock.ExpectExec(insertRunQuery).
		WithArgs(sqlmock.AnyArg(), input.RFQID, len(input.Matches), supplierRouted, conciergeRouted, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
}

func expectResult(mock sqlmock.Sqlmock, rfqID string, rank int, m models.MatchResult) *sqlmock.ExpectedExec {
	return mock.ExpectExec(upsertResultQuery).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), rfqID, m.SupplierID, m.ProductID, rank,
			m.Score, m.Tier, string(m.RoutingTarget), m.DistanceMiles, m.TotalCarbonKg,
			m.WithinBudget, pq.Array(m.WhyRecommended), sqlmock.AnyArg())
}

func requireCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperrors.AsStandardError(err).Code, err.Error())
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	handler, mock := setupHandler(t)
	input := createTestInput()

	mock.ExpectBegin()
	expectRun(mock, input, 1, 1)
	expectResult(mock, "rfq-100", 1, input.Matches[0]).WillReturnResult(sqlmock.NewResult(1, 1))
	expectResult(mock, "rfq-100", 2, input.Matches[1]).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.NotEmpty(t, output.RunID)
	assert.Equal(t, 2, output.PersistedCount)
	assert.NotEmpty(t, output.PersistedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_EmptyRunStillRecorded(t *testing.T) {
	handler, mock := setupHandler(t)
	input := &Input{RFQID: "rfq-empty", Matches: []models.MatchResult{}}

	mock.ExpectBegin()
	mock.ExpectExec(insertRunQuery).
		WithArgs(sqlmock.AnyArg(), "rfq-empty", 0, 0, 0, []byte("{}"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, 0, output.PersistedCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Validation Tests
// ==========================

func TestHandler_Execute_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *Input)
	}{
		{"missing rfq id", func(in *Input) { in.RFQID = "" }},
		{"score above 100", func(in *Input) { in.Matches[0].Score = 140 }},
		{"tier out of range", func(in *Input) { in.Matches[1].Tier = 7 }},
		{"unknown routing target", func(in *Input) { in.Matches[0].RoutingTarget = "fax" }},
		{"missing supplier id", func(in *Input) { in.Matches[0].SupplierID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mock := setupHandler(t)
			input := createTestInput()
			tt.mutate(input)

			_, err := handler.Execute(context.Background(), input)

			requireCode(t, err, apperrors.ErrCodeSchemaValidationFailed)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_BeginFails(t *testing.T) {
	handler, mock := setupHandler(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	_, err := handler.Execute(context.Background(), createTestInput())

	requireCode(t, err, apperrors.ErrCodeDatabaseConnectionFailed)
	assert.True(t, apperrors.AsStandardError(err).Retryable)
}

func TestHandler_Execute_UpsertFailsRollsBack(t *testing.T) {
	handler, mock := setupHandler(t)
	input := createTestInput()

	mock.ExpectBegin()
	expectRun(mock, input, 1, 1)
	expectResult(mock, "rfq-100", 1, input.Matches[0]).WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	_, err := handler.Execute(context.Background(), input)

	requireCode(t, err, apperrors.ErrCodeMatchPersistFailed)
	stdErr := apperrors.AsStandardError(err)
	assert.Equal(t, "rfq-100", stdErr.Metadata["rfqId"])
	assert.Contains(t, stdErr.Details, "sup-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_CommitFails(t *testing.T) {
	handler, mock := setupHandler(t)
	input := createTestInput()
	input.Matches = input.Matches[:1]

	mock.ExpectBegin()
	expectRun(mock, input, 1, 0)
	expectResult(mock, "rfq-100", 1, input.Matches[0]).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	_, err := handler.Execute(context.Background(), input)

	requireCode(t, err, apperrors.ErrCodeMatchPersistFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_Timeout(t *testing.T) {
	handler, mock := setupHandler(t)
	input := createTestInput()

	mock.ExpectBegin()
	mock.ExpectExec(insertRunQuery).WillDelayFor(200 * time.Millisecond).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := handler.Execute(ctx, input)

	requireCode(t, err, apperrors.ErrCodeMatchTimeout)
}
