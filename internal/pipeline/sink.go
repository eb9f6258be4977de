package pipeline

import (
	"context"

	"github.com/floralens/bloom-data-service/internal/dataset"
	"github.com/floralens/bloom-data-service/internal/domain"
)

// DatasetSink loads validated observations into the in-memory dataset.
type DatasetSink struct {
	store *dataset.Store
}

// NewDatasetSink creates a BatchLoader appending to the given store.
func NewDatasetSink(store *dataset.Store) *DatasetSink {
	return &DatasetSink{store: store}
}

func (s *DatasetSink) LoadBatch(_ context.Context, observations []domain.Observation) error {
	s.store.AppendBatch(observations)
	return nil
}

// FanoutLoader delivers each batch to every wrapped loader in order,
// stopping at the first failure so the batch is retried as a whole.
type FanoutLoader struct {
	loaders []BatchLoader
}

// NewFanoutLoader composes loaders into one BatchLoader.
func NewFanoutLoader(loaders ...BatchLoader) *FanoutLoader {
	return &FanoutLoader{loaders: loaders}
}

func (f *FanoutLoader) LoadBatch(ctx context.Context, observations []domain.Observation) error {
	for _, l := range f.loaders {
		if err := l.LoadBatch(ctx, observations); err != nil {
			return err
		}
	}
	return nil
}
