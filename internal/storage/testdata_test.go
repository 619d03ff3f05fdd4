package storage

import "fdnet/internal/model"

func sampleModel(id, createdAt string) model.ModelRecord {
	return model.ModelRecord{
		VersionedRecord: Versioned(),
		ID:              id,
		Name:            "toy",
		CreatedAt:       createdAt,
		Topology: model.Topology{
			Layers: []model.LayerSpec{{Units: []model.UnitSpec{{Kind: "affine", Bias: 0, Weights: []float64{1}}}}},
			Meta:   model.Meta{Inputs: 1, Alpha: 0.0001, Cost: "mse"},
		},
	}
}

func sampleRun(id, modelID string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: Versioned(),
		ID:              id,
		ModelID:         modelID,
		Iterations:      10,
		Step:            1e-12,
		Workers:         1,
		ColumnLens:      []int{1, 1},
		Params:          []float64{2.4, -1.5},
		FinalLoss:       1.45,
		CreatedAt:       "2026-01-02T03:04:05Z",
	}
}
