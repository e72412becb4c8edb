package camunda

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/config"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/logger"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/metrics"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/observability"
)

type HandlerFunc func(client worker.JobClient, job entities.Job)

// Runner owns the open job workers.
type Runner struct {
	client  zbc.Client
	obs     *observability.Observability
	logger  logger.Logger
	mu      sync.Mutex
	workers []worker.JobWorker
}

func NewRunner(client zbc.Client, obs *observability.Observability, log logger.Logger) *Runner {
	return &Runner{client: client, obs: obs, logger: log}
}

// Start opens a job worker for taskType. Disabled workers are skipped.
func (r *Runner) Start(taskType string, wcfg config.WorkerConfig, handler HandlerFunc) {
	if !wcfg.Enabled {
		r.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return
	}

	jw := r.client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(Instrument(taskType, r.obs, handler))).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	r.mu.Lock()
	r.workers = append(r.workers, jw)
	r.mu.Unlock()

	r.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeoutMs":     wcfg.Timeout,
	})
}

func (r *Runner) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workers)
}

// Close stops polling and waits for in-flight jobs.
func (r *Runner) Close() {
	r.mu.Lock()
	workers := r.workers
	r.workers = nil
	r.mu.Unlock()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
}

// Instrument wraps handler with the active-jobs gauge and duration metrics.
func Instrument(taskType string, obs *observability.Observability, handler HandlerFunc) HandlerFunc {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer func() {
			elapsed := time.Since(start)
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
			obs.RecordJob(context.Background(), taskType, "handled", elapsed)
		}()
		handler(client, job)
	}
}

// CompleteJob sends the output variables, retrying transient gateway errors.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		return fmt.Errorf("encode job variables: %w", err)
	}
	err = SendWithRetry(ctx, DefaultRetryConfig, "complete job", func(ctx context.Context) error {
		_, err := cmd.Send(ctx)
		return err
	})
	if err != nil {
		return err
	}
	metrics.WorkerJobsCompleted.WithLabelValues(job.Type).Inc()
	return nil
}
