// cmd/tools/rfq-match/main.go
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/config"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/errors"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/logger"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/engine"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/scoring"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/store"
	ms "github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/workers/rfq/match-suppliers"
)

// rfq-match runs one matching job offline and prints the job result.
//
//	rfq-match -file testdata/rfq.json
//	rfq-match -file rfq-without-pool.json -dsn "postgres://..."
func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("rfq-match", flag.ContinueOnError)
	file := fs.String("file", "-", "Job variables JSON ({\"rfq\": ..., \"candidates\": [...]}); - reads stdin")
	cfgPath := fs.String("config", "", "Worker config YAML whose matching section is used")
	dsn := fs.String("dsn", "", "Postgres DSN used when the variables carry no candidates")
	timeout := fs.Duration("timeout", 15*time.Second, "Matching deadline")
	level := fs.String("log-level", "warn", "Log level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := logger.NewStructured(*level, "console")

	matching := config.DefaultMatching()
	if *cfgPath != "" {
		cfg, err := config.LoadFromFile(*cfgPath)
		if err != nil {
			return err
		}
		matching = cfg.Matching
	}
	// No oracle is wired offline.
	matching.AIAdjustmentEnabled = false

	data, err := readInput(*file, stdin)
	if err != nil {
		return err
	}
	var input ms.Input
	if err := json.Unmarshal(data, &input); err != nil {
		return errors.NewParseError(err)
	}

	var candidates engine.CandidateStore
	if *dsn != "" {
		db, err := sql.Open("postgres", *dsn)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		candidates = store.NewPostgresStore(db, log)
	} else if input.Candidates == nil {
		return fmt.Errorf("variables carry no candidates and no -dsn was given")
	}

	scorer := scoring.NewScorer(matching.Weights(), matching.Estimator(), matching.Classifier(), nil, log)
	eng := engine.New(matching.EngineOptions(), scorer, candidates, log)

	hcfg := ms.LoadConfig()
	hcfg.Timeout = *timeout
	handler := ms.NewHandler(hcfg, eng, nil, log)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	output, err := handler.Execute(ctx, &input)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
