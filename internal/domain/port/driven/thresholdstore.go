package driven

import (
	"context"

	"github.com/ericfisherdev/workpanel/internal/domain/model"
)

// ThresholdStore defines the driven port for attention threshold persistence.
type ThresholdStore interface {
	// GetThresholds returns the current thresholds. Missing keys fall back to
	// model.DefaultThresholds() values.
	GetThresholds(ctx context.Context) (model.Thresholds, error)

	// SetThresholds persists the thresholds. Callers validate before storing.
	SetThresholds(ctx context.Context, t model.Thresholds) error
}
