package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreModelRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	record := sampleModel("m1", "2026-01-01T00:00:00Z")
	if err := store.SaveModel(ctx, record); err != nil {
		t.Fatalf("save model: %v", err)
	}
	record.Topology.Layers[0].Units[0].Weights[0] = 42

	loaded, ok, err := store.GetModel(ctx, "m1")
	if err != nil {
		t.Fatalf("get model: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted model")
	}
	if loaded.Topology.Layers[0].Units[0].Weights[0] != 1 {
		t.Fatalf("store shares slices with caller: %+v", loaded.Topology)
	}

	if _, ok, err := store.GetModel(ctx, "missing"); err != nil || ok {
		t.Fatalf("unexpected lookup result: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreListModelsOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, record := range []struct{ id, at string }{
		{"m2", "2026-01-02T00:00:00Z"},
		{"m1", "2026-01-01T00:00:00Z"},
		{"m3", "2026-01-02T00:00:00Z"},
	} {
		if err := store.SaveModel(ctx, sampleModel(record.id, record.at)); err != nil {
			t.Fatalf("save model %s: %v", record.id, err)
		}
	}
	models, err := store.ListModels(ctx)
	if err != nil {
		t.Fatalf("list models: %v", err)
	}
	if len(models) != 3 || models[0].ID != "m1" || models[1].ID != "m2" || models[2].ID != "m3" {
		t.Fatalf("unexpected model order: %+v", models)
	}
}

func TestMemoryStoreRunAndLossHistory(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := store.SaveRun(ctx, sampleRun("r1", "m1")); err != nil {
		t.Fatalf("save run: %v", err)
	}
	run, ok, err := store.GetRun(ctx, "r1")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%v err=%v", ok, err)
	}
	if run.ModelID != "m1" || len(run.Params) != 2 {
		t.Fatalf("unexpected run: %+v", run)
	}

	input := []float64{3, 2, 1}
	if err := store.SaveLossHistory(ctx, "r1", input); err != nil {
		t.Fatalf("save loss history: %v", err)
	}
	input[0] = 99
	output, ok, err := store.GetLossHistory(ctx, "r1")
	if err != nil || !ok {
		t.Fatalf("get loss history: ok=%v err=%v", ok, err)
	}
	if len(output) != 3 || output[0] != 3 {
		t.Fatalf("unexpected loss history: %v", output)
	}
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.SaveModel(ctx, sampleModel("m1", "")); err == nil {
		t.Fatal("expected init error")
	}
	if err := store.SaveLossHistory(ctx, "r1", nil); err == nil {
		t.Fatal("expected init error")
	}
}

func TestMemoryStoreRejectsUnversionedRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	record := sampleModel("m1", "")
	record.SchemaVersion = 0
	if err := store.SaveModel(ctx, record); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}
