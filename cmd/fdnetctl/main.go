package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"fdnet/internal/storage"
	"fdnet/internal/trainer"
	"fdnet/pkg/fdnet"
)

const (
	defaultDBPath       = "fdnet.db"
	defaultArtifactsDir = "runs"
	defaultExportsDir   = "exports"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "eval":
		return runEval(ctx, args[1:])
	case "params":
		return runParams(ctx, args[1:])
	case "train":
		return runTrain(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "models":
		return runModels(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "data-extract":
		return runDataExtract(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runEval(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	modelPath := fs.String("model", "", "model description path")
	obsPath := fs.String("obs", "", "observation JSON path")
	jsonOut := fs.Bool("json", false, "emit evaluation as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *modelPath == "" {
		return errors.New("model is required")
	}
	if *obsPath == "" {
		return errors.New("obs is required")
	}

	client, err := fdnet.Open(ctx, fdnet.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Evaluate(ctx, fdnet.EvaluateRequest{DescriptionPath: *modelPath, ObservationPath: *obsPath})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(summary)
	}
	if !summary.HasObservation {
		fmt.Println("observation has no examples")
		return nil
	}
	for i, pred := range summary.Predictions {
		fmt.Printf("example=%d prediction=%s\n", i, formatVector(pred))
	}
	fmt.Printf("loss=%.9g\n", summary.Loss)
	if len(summary.DimensionLoss) > 0 {
		fmt.Printf("dimension_loss=%s\n", formatVector(summary.DimensionLoss))
	}
	return nil
}

func runParams(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("params", flag.ContinueOnError)
	modelPath := fs.String("model", "", "model description path")
	jsonOut := fs.Bool("json", false, "emit ribbon and shape as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *modelPath == "" {
		return errors.New("model is required")
	}

	client, err := fdnet.Open(ctx, fdnet.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Params(ctx, *modelPath)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(summary)
	}
	fmt.Printf("layers=%d column_lengths=%v params=%d\n", summary.Key.LayerCount, summary.Key.ColumnLengths, len(summary.Params))
	fmt.Printf("ribbon=%s\n", formatVector(summary.Params))
	return nil
}

func runTrain(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional train config JSON path")
	modelPath := fs.String("model", "", "model description path")
	obsPath := fs.String("obs", "", "observation JSON path")
	name := fs.String("name", "", "model name recorded with the run")
	iterations := fs.Int("iters", 1000, "gradient descent iterations")
	tolerance := fs.Float64("tolerance", trainer.DefaultTolerance, "finite-difference perturbation size")
	workers := fs.Int("workers", 1, "concurrent gradient workers")
	artifactsDir := fs.String("artifacts-dir", "", "directory for run artifacts and run index (empty disables)")
	outModel := fs.String("out-model", "", "write the trained network as a description file")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit training summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	req, err := loadOrDefaultTrainRequest(*configPath)
	if err != nil {
		return err
	}
	if *configPath == "" {
		req = fdnet.TrainRequest{
			DescriptionPath: *modelPath,
			ObservationPath: *obsPath,
			Name:            *name,
			Iterations:      *iterations,
			Tolerance:       *tolerance,
			Workers:         *workers,
			ArtifactsDir:    *artifactsDir,
			OutputModelPath: *outModel,
		}
	} else {
		overrideFromFlags(&req, setFlags, map[string]any{
			"model":         *modelPath,
			"obs":           *obsPath,
			"name":          *name,
			"iters":         *iterations,
			"tolerance":     *tolerance,
			"workers":       *workers,
			"artifacts-dir": *artifactsDir,
			"out-model":     *outModel,
		})
	}
	if req.DescriptionPath == "" {
		return errors.New("model is required")
	}
	if req.ObservationPath == "" {
		return errors.New("obs is required")
	}
	if req.Iterations < 0 {
		return errors.New("iters must be >= 0")
	}

	client, err := fdnet.Open(ctx, fdnet.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Train(ctx, req)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(summary)
	}
	fmt.Printf("run_id=%s model_id=%s iterations=%d initial_loss=%.9g final_loss=%.9g\n",
		summary.RunID,
		summary.ModelID,
		summary.Iterations,
		summary.InitialLoss,
		summary.FinalLoss,
	)
	fmt.Printf("ribbon=%s\n", formatVector(summary.Params))
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	every := fs.Int("every", 1, "print every n-th iteration")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit loss history as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("run-id is required")
	}
	if *every <= 0 {
		return errors.New("every must be > 0")
	}

	client, err := fdnet.Open(ctx, fdnet.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.History(ctx, *runID)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(history)
	}
	fmt.Printf("run_id=%s model_id=%s iterations=%d tolerance=%g final_loss=%.9g\n",
		history.Run.ID,
		history.Run.ModelID,
		history.Run.Iterations,
		history.Run.Step,
		history.Run.FinalLoss,
	)
	last := len(history.Losses) - 1
	for i, loss := range history.Losses {
		if i%*every != 0 && i != last {
			continue
		}
		fmt.Printf("iteration=%d loss=%.9g\n", i, loss)
	}
	return nil
}

func runModels(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := fdnet.Open(ctx, fdnet.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	models, err := client.Models(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Println("no models found")
		return nil
	}
	for _, m := range models {
		fmt.Printf("model_id=%s name=%s created_at=%s layers=%d inputs=%d alpha=%g cost=%s\n",
			m.ID,
			m.Name,
			m.CreatedAt,
			len(m.Topology.Layers),
			m.Topology.Meta.Inputs,
			m.Topology.Meta.Alpha,
			m.Topology.Meta.Cost,
		)
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	artifactsDir := fs.String("artifacts-dir", defaultArtifactsDir, "run artifacts directory")
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := fdnet.Open(ctx, fdnet.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	entries, err := client.Runs(ctx, *artifactsDir)
	if err != nil {
		return err
	}
	if len(entries) > *limit {
		entries = entries[:*limit]
	}
	if *jsonOut {
		return writeJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("run_id=%s model_id=%s name=%s created_at=%s iterations=%d workers=%d final_loss=%.9g\n",
			e.RunID,
			e.ModelID,
			e.Name,
			e.CreatedAtUTC,
			e.Iterations,
			e.Workers,
			e.FinalLoss,
		)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	artifactsDir := fs.String("artifacts-dir", defaultArtifactsDir, "run artifacts directory")
	runID := fs.String("run-id", "", "run id to export (defaults to latest)")
	outDir := fs.String("out", defaultExportsDir, "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := fdnet.Open(ctx, fdnet.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	id := *runID
	if id == "" {
		entries, err := client.Runs(ctx, *artifactsDir)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return errors.New("no runs available to export")
		}
		id = entries[0].RunID
	}
	exported, err := client.ExportRun(ctx, *artifactsDir, id, *outDir)
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s to=%s\n", id, exported)
	return nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatVector(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.9g", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: fdnetctl <eval|params|train|history|models|runs|export|data-extract> [flags]", msg)
}
