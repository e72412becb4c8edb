package persistmatchresults

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/camunda"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/errors"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/logger"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/pkg/registry"
)

const (
	TaskType = "persist-match-results"
)

const (
	insertRunQuery = `INSERT INTO rfq_match_runs (id, rfq_id, match_count, supplier_routed, concierge_routed, diagnostics, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	upsertResultQuery = `INSERT INTO rfq_match_results (id, run_id, rfq_id, supplier_id, product_id, rank, score, tier, routing_target, distance_miles, total_carbon_kg, within_budget, why_recommended, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) ON CONFLICT (rfq_id, supplier_id) DO UPDATE SET run_id = EXCLUDED.run_id, product_id = EXCLUDED.product_id, rank = EXCLUDED.rank, score = EXCLUDED.score, tier = EXCLUDED.tier, routing_target = EXCLUDED.routing_target, distance_miles = EXCLUDED.distance_miles, total_carbon_kg = EXCLUDED.total_carbon_kg, within_budget = EXCLUDED.within_budget, why_recommended = EXCLUDED.why_recommended, updated_at = EXCLUDED.updated_at`
)

type Handler struct {
	config     *Config
	db         *sql.DB
	activity   *registry.Activity
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	activity, _ := registry.MustDefault().Find(TaskType)
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		activity:   activity,
		errHandler: errors.NewErrorHandler(scoped),
		logger:     scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errHandler.HandleJobError(context.Background(), client, job, errors.NewParseError(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errHandler.HandleJobError(context.Background(), client, job, err)
		return
	}

	if err := camunda.CompleteJob(context.Background(), client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidRequestError("input cannot be nil")
	}

	result, err := h.activity.ValidateInput(input)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, errors.NewSchemaValidationFailedError(result.Summary())
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, h.classify(ctx, input.RFQID, err, true)
	}
	defer func() { _ = tx.Rollback() }()

	runID := uuid.New().String()
	now := time.Now().UTC()

	if err := h.insertRun(ctx, tx, runID, input, now); err != nil {
		return nil, h.classify(ctx, input.RFQID, err, false)
	}

	for i, m := range input.Matches {
		if _, err := tx.ExecContext(ctx, upsertResultQuery,
			uuid.New().String(), runID, input.RFQID, m.SupplierID, m.ProductID, i+1,
			m.Score, m.Tier, string(m.RoutingTarget), m.DistanceMiles, m.TotalCarbonKg,
			m.WithinBudget, pq.Array(m.WhyRecommended), now,
		); err != nil {
			return nil, h.classify(ctx, input.RFQID, fmt.Errorf("upsert supplier %s: %w", m.SupplierID, err), false)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, h.classify(ctx, input.RFQID, fmt.Errorf("commit: %w", err), false)
	}

	h.logger.Info("match results persisted", map[string]interface{}{
		"rfqId":   input.RFQID,
		"runId":   runID,
		"results": len(input.Matches),
	})

	return &Output{
		RunID:          runID,
		PersistedCount: len(input.Matches),
		PersistedAt:    now.Format(time.RFC3339),
	}, nil
}

func (h *Handler) insertRun(ctx context.Context, tx *sql.Tx, runID string, input *Input, now time.Time) error {
	supplierRouted, conciergeRouted := 0, 0
	for _, m := range input.Matches {
		if m.RoutingTarget == models.RouteSupplier {
			supplierRouted++
		} else {
			conciergeRouted++
		}
	}

	diagnostics := []byte("{}")
	if input.Diagnostics != nil {
		b, err := json.Marshal(input.Diagnostics)
		if err != nil {
			return fmt.Errorf("encode diagnostics: %w", err)
		}
		diagnostics = b
	}

	_, err := tx.ExecContext(ctx, insertRunQuery,
		runID, input.RFQID, len(input.Matches), supplierRouted, conciergeRouted, diagnostics, now)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (h *Handler) classify(ctx context.Context, rfqID string, err error, connecting bool) *errors.StandardError {
	switch {
	case ctx.Err() != nil || stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewMatchTimeoutError(err).WithMetadata("rfqId", rfqID)
	case connecting:
		return errors.NewDatabaseConnectionFailedError(err).WithMetadata("rfqId", rfqID)
	default:
		return errors.NewMatchPersistFailedError(rfqID, err)
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
