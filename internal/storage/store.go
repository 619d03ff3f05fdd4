package storage

import (
	"context"

	"fdnet/internal/model"
)

// Store persists model descriptions, training runs, and their loss curves.
type Store interface {
	Init(ctx context.Context) error
	SaveModel(ctx context.Context, record model.ModelRecord) error
	GetModel(ctx context.Context, id string) (model.ModelRecord, bool, error)
	ListModels(ctx context.Context) ([]model.ModelRecord, error)
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	SaveLossHistory(ctx context.Context, runID string, losses []float64) error
	GetLossHistory(ctx context.Context, runID string) ([]float64, bool, error)
}
