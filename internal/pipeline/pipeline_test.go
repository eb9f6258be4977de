package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floralens/bloom-data-service/internal/dataset"
	"github.com/floralens/bloom-data-service/internal/domain"
	"github.com/floralens/bloom-data-service/internal/observability"
	"github.com/floralens/bloom-data-service/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	mu      sync.Mutex
	batches [][]domain.RawEvent
	err     error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	m.mu.Lock()
	if m.err != nil {
		m.mu.Unlock()
		return nil, m.err
	}
	if len(m.batches) == 0 {
		m.mu.Unlock()
		// Block until cancelled, like a reader waiting for messages.
		<-ctx.Done()
		return nil, ctx.Err()
	}
	batch := m.batches[0]
	m.batches = m.batches[1:]
	m.mu.Unlock()
	return batch, nil
}

type mockLoader struct {
	mu     sync.Mutex
	loaded []domain.Observation
	err    error
}

func (m *mockLoader) LoadBatch(_ context.Context, observations []domain.Observation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, observations...)
	return nil
}

func (m *mockLoader) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loaded)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawObservation(lat, lon string) domain.RawEvent {
	return domain.RawEvent{
		Value: []byte(`{"latitude":"` + lat + `","longitude":"` + lon + `","ndvi":"0.5","bloom_stage":"1","month":"4","year":"2020"}`),
	}
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	ext := &mockExtractor{batches: [][]domain.RawEvent{
		{rawObservation("40.0", "-75.0"), rawObservation("41.0", "-76.0")},
	}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, pipeline.NewTransformer(discardLogger()), ldr, discardLogger(), metrics, 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, 2, ldr.count())
}

func TestPipeline_Run_SkipsMalformedAndCommits(t *testing.T) {
	var committed int
	bad := domain.RawEvent{
		Value: []byte(`{"latitude":"999","longitude":"-75","month":"4","year":"2020"}`),
		Commit: func(context.Context) error {
			committed++
			return nil
		},
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{
		{bad, rawObservation("40.0", "-75.0")},
	}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, pipeline.NewTransformer(discardLogger()), ldr, discardLogger(), observability.NewMetricsForTesting(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, 1, ldr.count(), "only the valid observation should load")
	assert.Equal(t, 1, committed, "malformed message must still be committed")
}

func TestPipeline_Run_StopsOnCancel(t *testing.T) {
	ext := &mockExtractor{}
	ldr := &mockLoader{}

	p := pipeline.New(ext, pipeline.NewTransformer(discardLogger()), ldr, discardLogger(), observability.NewMetricsForTesting(), 50)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not stop after cancel")
	}
}

func TestPipeline_Run_BacksOffOnExtractError(t *testing.T) {
	ext := &mockExtractor{err: errors.New("broker unavailable")}
	ldr := &mockLoader{}

	p := pipeline.New(ext, pipeline.NewTransformer(discardLogger()), ldr, discardLogger(), observability.NewMetricsForTesting(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	// Should retry with backoff until the context expires, not spin or crash.
	require.NoError(t, p.Run(ctx))
	assert.Zero(t, ldr.count())
}

func TestDatasetSink(t *testing.T) {
	store := dataset.NewStore(observability.NewMetricsForTesting())
	sink := pipeline.NewDatasetSink(store)

	obs := domain.Observation{ID: "obs-1", Lat: 40, Lon: -75, Year: 2020, Month: 4}
	require.NoError(t, sink.LoadBatch(context.Background(), []domain.Observation{obs}))

	assert.Equal(t, 1, store.Len())
}

func TestFanoutLoader(t *testing.T) {
	a := &mockLoader{}
	failing := &mockLoader{err: errors.New("sink down")}
	b := &mockLoader{}

	fanout := pipeline.NewFanoutLoader(a, failing, b)

	obs := []domain.Observation{{ID: "obs-1"}}
	err := fanout.LoadBatch(context.Background(), obs)

	require.Error(t, err)
	assert.Equal(t, 1, a.count())
	assert.Zero(t, b.count(), "loaders after the failure must not run")
}
