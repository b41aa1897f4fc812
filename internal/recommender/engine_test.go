package recommender

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AbaeNeupane/Placement-Assistance/internal/corpus"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	mu    sync.Mutex
	jobs  []corpus.JobRecord
	err   error
	calls atomic.Int32
}

func (s *stubSource) LoadJobs(ctx context.Context) ([]corpus.JobRecord, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]corpus.JobRecord(nil), s.jobs...), nil
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) set(jobs []corpus.JobRecord, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = jobs
	s.err = err
}

var fastRetry = resilience.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

func TestEngineNotReady(t *testing.T) {
	e := NewEngine(&stubSource{})
	assert.Nil(t, e.Model())

	_, _, err := e.Recommend(Query{Skills: "python"})
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestEngineReloadSwapsModel(t *testing.T) {
	src := &stubSource{jobs: scenarioCorpus()}
	var hookCalls atomic.Int32
	e := NewEngine(src, WithRetry(fastRetry), WithReloadHook(func(m *Model, err error, _ time.Duration) {
		hookCalls.Add(1)
	}))

	first, err := e.Reload(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, e.Model())

	recs, used, err := e.Recommend(Query{Skills: "python flask", Title: "backend developer", Years: 3})
	require.NoError(t, err)
	assert.Same(t, first, used)
	assert.Equal(t, "J1", recs[0].Job.ID)

	src.set(append(scenarioCorpus(), corpus.JobRecord{ID: "J4", Title: "Flask Engineer", Skills: "python, flask, aws", Experience: "3 - 4 yrs"}), nil)
	second, err := e.Reload(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.Version(), second.Version())
	assert.Equal(t, 4, e.Model().Len())
	assert.Equal(t, 3, first.Len(), "earlier snapshots are never modified")
	assert.Equal(t, int32(2), hookCalls.Load())
}

func TestEngineFailedReloadKeepsModel(t *testing.T) {
	src := &stubSource{jobs: scenarioCorpus()}
	var lastErr error
	e := NewEngine(src, WithRetry(fastRetry), WithReloadHook(func(m *Model, err error, _ time.Duration) {
		lastErr = err
		if err != nil {
			assert.Nil(t, m)
		}
	}))

	loaded, err := e.Reload(context.Background())
	require.NoError(t, err)

	boom := errors.New("database down")
	src.set(nil, boom)
	_, err = e.Reload(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, lastErr, boom)
	assert.Same(t, loaded, e.Model())

	src.set([]corpus.JobRecord{}, nil)
	_, err = e.Reload(context.Background())
	assert.ErrorIs(t, err, ErrEmptyCorpus)
	assert.Same(t, loaded, e.Model())
}

func TestEngineRetriesSource(t *testing.T) {
	src := &stubSource{err: errors.New("flaky")}
	e := NewEngine(src, WithRetry(fastRetry))

	_, err := e.Reload(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestEngineConcurrentRecommendDuringReload(t *testing.T) {
	src := &stubSource{jobs: scenarioCorpus()}
	e := NewEngine(src, WithRetry(fastRetry))
	_, err := e.Reload(context.Background())
	require.NoError(t, err)

	q := Query{Skills: "python", Title: "developer", Years: 2}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				recs, _, err := e.Recommend(q)
				assert.NoError(t, err)
				assert.NotEmpty(t, recs)
			}
		}()
	}
	for i := 0; i < 5; i++ {
		_, err := e.Reload(context.Background())
		assert.NoError(t, err)
	}
	wg.Wait()
}

type countingInvalidator struct{ calls atomic.Int32 }

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls.Add(1)
	return nil
}

func TestHandleCorpusEvent(t *testing.T) {
	src := &stubSource{jobs: scenarioCorpus()}
	e := NewEngine(src, WithRetry(fastRetry))
	inv := &countingInvalidator{}
	handle := HandleCorpusEvent(e, inv)

	payload, err := json.Marshal(corpus.UpdatedEvent{Source: "loader", Jobs: 3, Version: "v1"})
	require.NoError(t, err)
	require.NoError(t, handle(context.Background(), []byte("v1"), payload))
	require.NotNil(t, e.Model())
	assert.Equal(t, int32(1), inv.calls.Load())

	current, err := json.Marshal(corpus.UpdatedEvent{Version: e.Model().Version()})
	require.NoError(t, err)
	require.NoError(t, handle(context.Background(), nil, current))
	assert.Equal(t, int32(1), src.calls.Load(), "already loaded version is skipped")

	assert.NoError(t, handle(context.Background(), nil, []byte("not json")), "poison messages are dropped")

	src.set(nil, errors.New("down"))
	assert.Error(t, handle(context.Background(), nil, payload))
	assert.Equal(t, int32(1), inv.calls.Load())
}
