package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AbaeNeupane/Placement-Assistance/pkg/kafka"
)

// JobStore persists a validated corpus. After ReplaceJobs the store holds
// exactly jobs, in slice order.
type JobStore interface {
	ReplaceJobs(ctx context.Context, jobs []JobRecord) error
}

// EventPublisher delivers a corpus change notification.
type EventPublisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Publisher stores imported jobs and announces the change on Kafka so that
// recommender instances rebuild their model.
type Publisher struct {
	store    JobStore
	producer EventPublisher
	logger   *slog.Logger
}

// NewPublisher creates a Publisher. producer may be nil, in which case
// imports are stored but not announced.
func NewPublisher(store JobStore, producer EventPublisher) *Publisher {
	return &Publisher{
		store:    store,
		producer: producer,
		logger:   slog.Default().With("component", "corpus-publisher"),
	}
}

// Import validates jobs, replaces the stored corpus with the valid ones and
// publishes an UpdatedEvent. Invalid records are skipped and logged. A failed publish is
// logged but does not fail the import: the data is already committed and the
// next reload picks it up.
func (p *Publisher) Import(ctx context.Context, source string, jobs []JobRecord) (*ImportResult, error) {
	valid, rejected := Partition(jobs)
	for id, err := range rejected {
		p.logger.Warn("skipping invalid job", "job_id", id, "error", err)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("importing from %s: no valid jobs", source)
	}

	if err := p.store.ReplaceJobs(ctx, valid); err != nil {
		return nil, fmt.Errorf("storing jobs: %w", err)
	}
	result := &ImportResult{
		Imported: len(valid),
		Skipped:  len(rejected),
		Version:  Fingerprint(valid),
	}

	if p.producer != nil {
		event := kafka.Event{
			Key: result.Version,
			Value: UpdatedEvent{
				Source:    source,
				Jobs:      result.Imported,
				Version:   result.Version,
				UpdatedAt: time.Now().UTC(),
			},
		}
		if err := p.producer.Publish(ctx, event); err != nil {
			p.logger.Error("failed to publish corpus update, recommenders will not reload",
				"version", result.Version,
				"error", err,
			)
		}
	}

	p.logger.Info("corpus imported",
		"source", source,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"version", result.Version,
	)
	return result, nil
}
