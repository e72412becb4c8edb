// cmd/worker-manager/main.go
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/aws"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/camunda"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/config"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/database"
	commonhttp "github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/http"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/logger"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/observability"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/engine"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/scoring"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/oracle"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/store"

	ms "github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/workers/rfq/match-suppliers"
	nms "github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/workers/rfq/notify-matched-suppliers"
	pmr "github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/workers/rfq/persist-match-results"
)

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}
	_ = bootLog.Sync()

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting worker manager",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.Observability, log)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = database.RetryWithBackoff(ctx, log, "zeebe", 10, 2*time.Second, func(ctx context.Context) error {
		var err error
		zeebe, err = camunda.NewClient(ctx, camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("zeebe client connected")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = database.RetryWithBackoff(ctx, log, "postgres", 15, 2*time.Second, func(ctx context.Context) error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	})
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("postgres connected")

	// --- Redis ---
	rdb := database.NewRedis(cfg.Database.Redis)
	err = database.RetryWithBackoff(ctx, log, "redis", 10, 2*time.Second, func(ctx context.Context) error {
		return database.PingRedis(ctx, rdb)
	})
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("redis connected")

	// --- Matching engine ---
	candidates, err := buildCandidateStore(ctx, cfg, pg.DB, rdb, log)
	if err != nil {
		zapLog.Fatal("candidate store init failed", zap.Error(err))
	}

	var relevance scoring.RelevanceOracle
	if cfg.Matching.AIAdjustmentEnabled {
		relevance = buildOracle(cfg, rdb, log)
		zapLog.Info("relevance oracle enabled", zap.String("baseUrl", cfg.APIs.GenAI.BaseURL))
	}

	scorer := scoring.NewScorer(
		cfg.Matching.Weights(),
		cfg.Matching.Estimator(),
		cfg.Matching.Classifier(),
		relevance,
		log,
	)
	eng := engine.New(cfg.Matching.EngineOptions(), scorer, candidates, log)

	// --- Notifications ---
	mailer, concierge, err := buildNotifiers(ctx, cfg)
	if err != nil {
		zapLog.Fatal("aws init failed", zap.Error(err))
	}

	// --- Workers ---
	runner := camunda.NewRunner(zeebe.Zeebe(), obs, log)

	{
		wcfg := config.GetWorkerConfig(cfg, ms.TaskType)
		hcfg := ms.LoadConfig()
		hcfg.Timeout = config.GetDuration(wcfg.Timeout)
		runner.Start(ms.TaskType, wcfg, ms.NewHandler(hcfg, eng, obs, log).Handle)
	}
	{
		wcfg := config.GetWorkerConfig(cfg, pmr.TaskType)
		hcfg := pmr.LoadConfig()
		hcfg.Timeout = config.GetDuration(wcfg.Timeout)
		runner.Start(pmr.TaskType, wcfg, pmr.NewHandler(hcfg, pg.DB, log).Handle)
	}
	{
		wcfg := config.GetWorkerConfig(cfg, nms.TaskType)
		hcfg := nms.LoadConfig()
		hcfg.Timeout = config.GetDuration(wcfg.Timeout)
		hcfg.EmailEnabled = cfg.Notifications.Email.Enabled
		hcfg.FromEmail = cfg.Notifications.Email.FromEmail
		hcfg.PortalBaseURL = cfg.Notifications.Email.PortalBaseURL
		hcfg.ConciergeEnabled = cfg.Notifications.Concierge.Enabled
		runner.Start(nms.TaskType, wcfg, nms.NewHandler(hcfg, mailer, concierge, log).Handle)
	}
	zapLog.Info("workers registered", zap.Int("count", runner.Count()))

	// --- Health & Metrics Server ---
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Observability.MetricsPort),
		Handler:           healthMux(zeebe, pg, rdb),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("health/metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("health/metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("shutdown signal received, stopping workers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	runner.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("error closing zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("error flushing telemetry", zap.Error(err))
	}

	zapLog.Info("worker manager stopped")
}

func buildCandidateStore(ctx context.Context, cfg *config.Config, db *sql.DB, rdb *redis.Client, log logger.Logger) (engine.CandidateStore, error) {
	var next engine.CandidateStore
	switch cfg.Matching.CandidateStore {
	case config.CandidateStoreElasticsearch:
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, err
		}
		err = database.RetryWithBackoff(ctx, log, "elasticsearch", 15, 2*time.Second, func(ctx context.Context) error {
			return database.PingElasticsearch(ctx, es)
		})
		if err != nil {
			return nil, err
		}
		next = store.NewElasticsearchStore(es, cfg.Matching.CandidateIndex, log)
	default:
		next = store.NewPostgresStore(db, log)
	}

	ttl := config.GetDuration(cfg.Matching.CandidateCacheTTLMs)
	log.Info("candidate store ready", map[string]interface{}{
		"backend":  cfg.Matching.CandidateStore,
		"cacheTtl": ttl.String(),
	})
	return store.NewCachedStore(next, rdb, ttl, log), nil
}

func buildOracle(cfg *config.Config, rdb *redis.Client, log logger.Logger) scoring.RelevanceOracle {
	client := commonhttp.NewClient(
		cfg.APIs.GenAI.BaseURL,
		cfg.APIs.GenAI.APIKey,
		config.GetDuration(cfg.APIs.GenAI.Timeout),
		cfg.APIs.GenAI.MaxRetries,
	)
	genai := oracle.NewGenAIOracle(client, cfg.Matching.OracleMaxDelta, log)
	return oracle.NewCachedOracle(genai, rdb, config.GetDuration(cfg.Matching.OracleCacheTTLMs), log)
}

// buildNotifiers returns nil senders for disabled channels.
func buildNotifiers(ctx context.Context, cfg *config.Config) (nms.EmailSender, nms.ConciergePublisher, error) {
	n := cfg.Notifications
	if !n.Email.Enabled && !n.Concierge.Enabled {
		return nil, nil, nil
	}

	awsCfg, err := aws.LoadConfig(ctx, n.AWS.Region)
	if err != nil {
		return nil, nil, err
	}

	var mailer nms.EmailSender
	if n.Email.Enabled {
		mailer = aws.NewMailer(awsCfg, n.Email.FromEmail)
	}
	var concierge nms.ConciergePublisher
	if n.Concierge.Enabled {
		concierge = aws.NewPublisher(awsCfg, n.Concierge.TopicARN)
	}
	return mailer, concierge, nil
}

func healthMux(zeebe *camunda.Client, pg *database.PostgresClient, rdb *redis.Client) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		body := map[string]string{"status": "ready"}
		status := http.StatusOK
		for name, check := range map[string]func(context.Context) error{
			"zeebe":    zeebe.HealthCheck,
			"postgres": pg.Ping,
			"redis":    func(ctx context.Context) error { return database.PingRedis(ctx, rdb) },
		} {
			if err := check(ctx); err != nil {
				body[name] = err.Error()
				body["status"] = "not ready"
				status = http.StatusServiceUnavailable
				continue
			}
			body[name] = "ok"
		}
		body["time"] = time.Now().Format(time.RFC3339)
		writeStatus(w, status, body)
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)
	return mux
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
