// Package fdnet is the programmatic entry point: it loads description and
// observation files, evaluates and trains networks, and persists the results.
package fdnet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fdnet/internal/description"
	"fdnet/internal/model"
	"fdnet/internal/network"
	"fdnet/internal/ribbon"
	"fdnet/internal/stats"
	"fdnet/internal/storage"
	"fdnet/internal/trainer"
)

const defaultDBPath = "fdnet.db"

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
	now   func() time.Time
}

type EvaluateRequest struct {
	DescriptionPath string
	ObservationPath string
}

type EvaluateSummary struct {
	Predictions    [][]float64
	Loss           float64
	DimensionLoss  []float64
	HasObservation bool
}

type ParamsSummary struct {
	Key    ribbon.Key
	Params []float64
	Nested ribbon.WB
}

type TrainRequest struct {
	DescriptionPath string
	ObservationPath string
	Name            string
	Iterations      int
	Tolerance       float64
	Workers         int
	// ArtifactsDir, when set, receives per-run files and the run index.
	ArtifactsDir string
	// OutputModelPath, when set, receives the trained network as a
	// description file.
	OutputModelPath string
}

type TrainSummary struct {
	ModelID      string
	RunID        string
	Iterations   int
	InitialLoss  float64
	FinalLoss    float64
	Params       []float64
	Key          ribbon.Key
	FinalNetwork model.Topology
}

type HistorySummary struct {
	Run    model.RunRecord
	Losses []float64
}

func Open(ctx context.Context, opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, err
	}
	return &Client{store: store, now: time.Now}, nil
}

func (c *Client) Close() error {
	if c == nil || c.store == nil {
		return nil
	}
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Evaluate(_ context.Context, req EvaluateRequest) (EvaluateSummary, error) {
	net, obs, err := load(req.DescriptionPath, req.ObservationPath)
	if err != nil {
		return EvaluateSummary{}, err
	}
	if len(obs.Inputs) == 0 {
		return EvaluateSummary{}, nil
	}
	preds, err := net.Predict(obs.Inputs)
	if err != nil {
		return EvaluateSummary{}, err
	}
	loss, err := net.DatasetLoss()
	if err != nil {
		return EvaluateSummary{}, err
	}
	summary := EvaluateSummary{Predictions: preds, Loss: loss, HasObservation: true}
	if dims, err := net.LossVector(obs.Inputs, obs.Outputs); err == nil {
		summary.DimensionLoss = dims
	} else if !errors.Is(err, network.ErrNoVectorCost) {
		return EvaluateSummary{}, err
	}
	return summary, nil
}

// Params reports the ribbon of a description file, plus its nested form.
func (c *Client) Params(_ context.Context, descriptionPath string) (ParamsSummary, error) {
	net, _, err := load(descriptionPath, "")
	if err != nil {
		return ParamsSummary{}, err
	}
	return ParamsSummary{
		Key:    net.Key(),
		Params: net.Params(),
		Nested: ribbon.WBOf(net.Layers()),
	}, nil
}

func (c *Client) Train(ctx context.Context, req TrainRequest) (TrainSummary, error) {
	if c == nil || c.store == nil {
		return TrainSummary{}, errors.New("client is not open")
	}
	net, _, err := load(req.DescriptionPath, req.ObservationPath)
	if err != nil {
		return TrainSummary{}, err
	}

	tr := trainer.New()
	if req.Tolerance != 0 {
		tr.Tolerance = req.Tolerance
	}
	if req.Workers != 0 {
		tr.Workers = req.Workers
	}

	created := c.now().UTC().Format(time.RFC3339)
	modelRecord := model.ModelRecord{
		VersionedRecord: storage.Versioned(),
		ID:              uuid.NewString(),
		Name:            req.Name,
		Topology:        net.Topology(),
		CreatedAt:       created,
	}

	result, err := tr.Train(net, req.Iterations)
	if err != nil {
		return TrainSummary{}, err
	}
	finalLoss := result.Losses[len(result.Losses)-1]
	key := net.Key()
	run := model.RunRecord{
		VersionedRecord: storage.Versioned(),
		ID:              uuid.NewString(),
		ModelID:         modelRecord.ID,
		Iterations:      result.Iterations,
		Step:            tr.Tolerance,
		Workers:         tr.Workers,
		ColumnLens:      key.ColumnLengths,
		Params:          result.Params,
		FinalLoss:       finalLoss,
		CreatedAt:       created,
	}

	if err := c.store.SaveModel(ctx, modelRecord); err != nil {
		return TrainSummary{}, fmt.Errorf("save model: %w", err)
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return TrainSummary{}, fmt.Errorf("save run: %w", err)
	}
	if err := c.store.SaveLossHistory(ctx, run.ID, result.Losses); err != nil {
		return TrainSummary{}, fmt.Errorf("save loss history: %w", err)
	}

	final := net.Topology()
	if req.OutputModelPath != "" {
		if err := description.WriteFile(req.OutputModelPath, final); err != nil {
			return TrainSummary{}, fmt.Errorf("write trained model: %w", err)
		}
	}
	if req.ArtifactsDir != "" {
		artifacts := stats.RunArtifacts{
			Config: stats.RunConfig{
				RunID:           run.ID,
				ModelID:         modelRecord.ID,
				Name:            req.Name,
				DescriptionPath: req.DescriptionPath,
				ObservationPath: req.ObservationPath,
				Iterations:      result.Iterations,
				Tolerance:       tr.Tolerance,
				Workers:         tr.Workers,
				ColumnLengths:   key.ColumnLengths,
			},
			Losses:        result.Losses,
			Params:        result.Params,
			FinalTopology: final,
		}
		if _, err := stats.WriteRunArtifacts(req.ArtifactsDir, artifacts); err != nil {
			return TrainSummary{}, fmt.Errorf("write run artifacts: %w", err)
		}
		if err := stats.AppendRunIndex(req.ArtifactsDir, stats.RunIndexEntry{
			RunID:        run.ID,
			ModelID:      modelRecord.ID,
			Name:         req.Name,
			Iterations:   result.Iterations,
			Workers:      tr.Workers,
			FinalLoss:    finalLoss,
			CreatedAtUTC: created,
		}); err != nil {
			return TrainSummary{}, fmt.Errorf("append run index: %w", err)
		}
	}

	return TrainSummary{
		ModelID:      modelRecord.ID,
		RunID:        run.ID,
		Iterations:   result.Iterations,
		InitialLoss:  result.Losses[0],
		FinalLoss:    finalLoss,
		Params:       result.Params,
		Key:          key,
		FinalNetwork: final,
	}, nil
}

func (c *Client) History(ctx context.Context, runID string) (HistorySummary, error) {
	if runID == "" {
		return HistorySummary{}, errors.New("run id is required")
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return HistorySummary{}, err
	}
	if !ok {
		return HistorySummary{}, fmt.Errorf("run not found: %s", runID)
	}
	losses, _, err := c.store.GetLossHistory(ctx, runID)
	if err != nil {
		return HistorySummary{}, err
	}
	return HistorySummary{Run: run, Losses: losses}, nil
}

func (c *Client) Models(ctx context.Context) ([]model.ModelRecord, error) {
	return c.store.ListModels(ctx)
}

// Runs lists the run index kept under artifactsDir, newest first.
func (c *Client) Runs(_ context.Context, artifactsDir string) ([]stats.RunIndexEntry, error) {
	if artifactsDir == "" {
		return nil, errors.New("artifacts dir is required")
	}
	return stats.ListRunIndex(artifactsDir)
}

func (c *Client) ExportRun(_ context.Context, artifactsDir, runID, outDir string) (string, error) {
	if artifactsDir == "" || outDir == "" {
		return "", errors.New("artifacts dir and output dir are required")
	}
	return stats.ExportRunArtifacts(artifactsDir, runID, outDir)
}

func load(descriptionPath, observationPath string) (*network.Network, model.Observation, error) {
	if descriptionPath == "" {
		return nil, model.Observation{}, errors.New("description path is required")
	}
	topo, obs, err := description.LoadFiles(descriptionPath, observationPath)
	if err != nil {
		return nil, model.Observation{}, err
	}
	net, err := network.FromTopology(topo, obs)
	if err != nil {
		return nil, model.Observation{}, err
	}
	return net, obs, nil
}
