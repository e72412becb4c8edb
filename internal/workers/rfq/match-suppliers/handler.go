package matchsuppliers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/camunda"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/errors"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/logger"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/observability"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/engine"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/pkg/registry"
)

const (
	TaskType = "match-rfq-suppliers"
)

// Matcher is the part of engine.Engine the worker drives.
type Matcher interface {
	Match(ctx context.Context, req *models.RFQRequest) (*engine.Result, error)
	Rank(ctx context.Context, req *models.RFQRequest, pool []models.SupplierCandidate) (*engine.Result, error)
}

type Handler struct {
	config     *Config
	matcher    Matcher
	activity   *registry.Activity
	obs        *observability.Observability
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, matcher Matcher, obs *observability.Observability, log logger.Logger) *Handler {
	activity, _ := registry.MustDefault().Find(TaskType)
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		matcher:    matcher,
		activity:   activity,
		obs:        obs,
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

	var res *engine.Result
	if input.Candidates != nil {
		res, err = h.matcher.Rank(ctx, &input.RFQ, input.Candidates)
	} else {
		res, err = h.matcher.Match(ctx, &input.RFQ)
	}
	if err != nil {
		return nil, mapEngineError(input.RFQ.ID, err)
	}

	output := &Output{
		RFQID:       res.RFQID,
		Matches:     res.Matches,
		Diagnostics: res.Diagnostics,
		MatchCount:  len(res.Matches),
		MatchedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if output.Matches == nil {
		output.Matches = []models.MatchResult{}
	}
	for _, m := range output.Matches {
		if m.RoutingTarget == models.RouteSupplier {
			output.SupplierRouted++
		} else {
			output.ConciergeRouted++
		}
	}
	output.RequiresConcierge = output.ConciergeRouted > 0 || output.MatchCount == 0

	h.obs.RecordMatchResults(ctx, output.MatchCount)

	h.logger.Info("rfq matched", map[string]interface{}{
		"rfqId":           output.RFQID,
		"matches":         output.MatchCount,
		"supplierRouted":  output.SupplierRouted,
		"conciergeRouted": output.ConciergeRouted,
		"oracleFallbacks": output.Diagnostics.OracleFallbacks,
		"malformed":       output.Diagnostics.MalformedCandidates,
	})
	return output, nil
}

func mapEngineError(rfqID string, err error) *errors.StandardError {
	var stdErr *errors.StandardError
	switch {
	case stderrors.Is(err, engine.ErrInvalidRequest):
		stdErr = errors.NewInvalidRequestError(err.Error())
	case stderrors.Is(err, engine.ErrCandidateStoreUnavailable):
		stdErr = errors.NewCandidateStoreUnavailableError(err)
	case stderrors.Is(err, engine.ErrTimeout):
		stdErr = errors.NewMatchTimeoutError(err)
	default:
		stdErr = errors.NewInternalError(err)
	}
	return stdErr.WithMetadata("rfqId", rfqID)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
