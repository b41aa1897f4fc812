// Command loader imports a job corpus CSV into PostgreSQL and announces the
// new corpus version on Kafka so running recommenders rebuild their model.
//
// Usage:
//
//	go run ./cmd/loader [-config configs/development.yaml] [-csv data/jobs.csv]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/AbaeNeupane/Placement-Assistance/internal/corpus"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/config"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/kafka"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/logger"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	csvPath := flag.String("csv", "", "corpus CSV to import (defaults to matching.corpusPath)")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	path := *csvPath
	if path == "" {
		path = cfg.Matching.CorpusPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, path); err != nil {
		slog.Error("import failed", "csv", path, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, path string) error {
	jobs, err := corpus.LoadCSVFile(path)
	if err != nil {
		return err
	}
	slog.Info("corpus file parsed", "csv", path, "jobs", len(jobs))

	db, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	var publisher *corpus.Publisher
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CorpusUpdates)
		defer producer.Close()
		publisher = corpus.NewPublisher(corpus.NewRepository(db), producer)
	} else {
		slog.Warn("kafka disabled, recommenders must be reloaded by hand")
		publisher = corpus.NewPublisher(corpus.NewRepository(db), nil)
	}

	result, err := publisher.Import(ctx, "csv:"+path, jobs)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
