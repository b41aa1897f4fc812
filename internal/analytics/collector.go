package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/AbaeNeupane/Placement-Assistance/pkg/kafka"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/metrics"
)

// BatchPublisher is satisfied by *kafka.Producer.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Collector buffers events in a channel and publishes them to Kafka in
// batches, when a batch fills up or every flushInterval. Track never
// blocks: when the buffer is full the event is dropped.
type Collector struct {
	producer      BatchPublisher
	eventCh       chan MatchEvent
	batchSize     int
	flushInterval time.Duration
	metrics       *metrics.Metrics
	logger        *slog.Logger
	done          chan struct{}
}

// NewCollector creates a Collector. m may be nil.
func NewCollector(producer BatchPublisher, bufferSize, batchSize int, flushInterval time.Duration, m *metrics.Metrics) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 2 * time.Second
	}
	return &Collector{
		producer:      producer,
		eventCh:       make(chan MatchEvent, bufferSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		metrics:       m,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Run publishes events until ctx is cancelled, then flushes whatever is
// still buffered with a short deadline.
func (c *Collector) Run(ctx context.Context) error {
	defer close(c.done)
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.eventCh),
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
	)
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	batch := make([]kafka.Event, 0, c.batchSize)
	for {
		select {
		case event := <-c.eventCh:
			batch = append(batch, toKafka(event))
			if len(batch) >= c.batchSize {
				batch = c.flush(ctx, batch)
			}
		case <-ticker.C:
			batch = c.flush(ctx, batch)
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
		drain:
			for {
				select {
				case event := <-c.eventCh:
					batch = append(batch, toKafka(event))
				default:
					break drain
				}
			}
			c.flush(flushCtx, batch)
			return nil
		}
	}
}

// Track queues event for publishing.
func (c *Collector) Track(event MatchEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case c.eventCh <- event:
	default:
		c.count("dropped", 1)
		c.logger.Warn("analytics event dropped (buffer full)", "type", event.Type)
	}
}

// Done is closed when Run has returned.
func (c *Collector) Done() <-chan struct{} {
	return c.done
}

// flush publishes batch and returns an empty slice to reuse. A failed batch
// is dropped: analytics are best effort and retrying would only grow memory
// while Kafka is down.
func (c *Collector) flush(ctx context.Context, batch []kafka.Event) []kafka.Event {
	if len(batch) == 0 {
		return batch
	}
	if err := c.producer.PublishBatch(ctx, batch); err != nil {
		c.count("failed", len(batch))
		c.logger.Error("analytics batch publish failed", "events", len(batch), "error", err)
	} else {
		c.count("published", len(batch))
		c.logger.Debug("analytics batch published", "events", len(batch))
	}
	return batch[:0]
}

func (c *Collector) count(status string, n int) {
	if c.metrics != nil {
		c.metrics.AnalyticsEventsTotal.WithLabelValues(status).Add(float64(n))
	}
}

func toKafka(event MatchEvent) kafka.Event {
	return kafka.Event{Key: string(event.Type), Value: event}
}
