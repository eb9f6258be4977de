package pipeline

import (
	"context"
	"log/slog"

	"github.com/floralens/bloom-data-service/internal/domain"
)

// ObservationTransformer implements Transformer using the domain parsing and
// validation rules shared with the CSV path.
type ObservationTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates an ObservationTransformer.
func NewTransformer(logger *slog.Logger) *ObservationTransformer {
	return &ObservationTransformer{logger: logger}
}

func (t *ObservationTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.Observation, error) {
	return domain.ParseRawEvent(raw)
}
