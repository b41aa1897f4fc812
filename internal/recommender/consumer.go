package recommender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AbaeNeupane/Placement-Assistance/internal/corpus"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/kafka"
)

// Invalidator drops results computed against an older model.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// HandleCorpusEvent returns a Kafka MessageHandler that rebuilds the
// engine's model whenever a corpus.UpdatedEvent arrives. Events announcing
// the version already loaded are acknowledged without a rebuild. After a
// successful rebuild the cache, if any, is invalidated.
func HandleCorpusEvent(engine *Engine, cache Invalidator) kafka.MessageHandler {
	logger := slog.Default().With("component", "corpus-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[corpus.UpdatedEvent](value)
		if err != nil {
			logger.Error("failed to decode corpus event",
				"error", err,
				"key", string(key),
			)
			return nil
		}

		if current := engine.Model(); current != nil && event.Version != "" && current.Version() == event.Version {
			logger.Debug("corpus version already loaded", "version", event.Version)
			return nil
		}

		logger.Info("corpus update received",
			"source", event.Source,
			"jobs", event.Jobs,
			"version", event.Version,
		)
		model, err := engine.Reload(ctx)
		if err != nil {
			return fmt.Errorf("reloading corpus version %s: %w", event.Version, err)
		}
		if cache != nil {
			if err := cache.Invalidate(ctx); err != nil {
				logger.Error("failed to invalidate cache after reload",
					"version", model.Version(),
					"error", err,
				)
			}
		}
		return nil
	}
}
