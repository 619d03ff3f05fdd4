package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fdnet/pkg/fdnet"
)

func TestRunRequiresCommand(t *testing.T) {
	if err := run(context.Background(), nil); err == nil || !strings.Contains(err.Error(), "usage:") {
		t.Fatalf("expected usage error, got %v", err)
	}
	if err := run(context.Background(), []string{"bogus"}); err == nil || !strings.Contains(err.Error(), "unknown command: bogus") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestEvalCommand(t *testing.T) {
	descPath, obsPath := writeToyFiles(t)
	out, err := captureStdout(func() error {
		return run(context.Background(), []string{"eval", "--model", descPath, "--obs", obsPath})
	})
	if err != nil {
		t.Fatalf("eval command: %v", err)
	}
	if !strings.Contains(out, "example=3 prediction=[30]") {
		t.Fatalf("missing prediction line:\n%s", out)
	}
	if !strings.Contains(out, "loss=") || !strings.Contains(out, "dimension_loss=") {
		t.Fatalf("missing loss lines:\n%s", out)
	}
}

func TestEvalCommandRequiresFiles(t *testing.T) {
	if err := run(context.Background(), []string{"eval"}); err == nil {
		t.Fatal("expected model error")
	}
	descPath, _ := writeToyFiles(t)
	if err := run(context.Background(), []string{"eval", "--model", descPath}); err == nil {
		t.Fatal("expected obs error")
	}
}

func TestParamsCommandJSON(t *testing.T) {
	descPath, _ := writeToyFiles(t)
	out, err := captureStdout(func() error {
		return run(context.Background(), []string{"params", "--model", descPath, "--json"})
	})
	if err != nil {
		t.Fatalf("params command: %v", err)
	}
	var summary fdnet.ParamsSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode params output: %v\n%s", err, out)
	}
	if len(summary.Params) != 2 || summary.Params[0] != 1 || summary.Params[1] != 0 {
		t.Fatalf("unexpected ribbon: %v", summary.Params)
	}
	if summary.Key.LayerCount != 1 {
		t.Fatalf("unexpected key: %+v", summary.Key)
	}
}

func TestTrainCommandMemoryStore(t *testing.T) {
	descPath, obsPath := writeToyFiles(t)
	out, err := captureStdout(func() error {
		return run(context.Background(), []string{
			"train",
			"--store", "memory",
			"--model", descPath,
			"--obs", obsPath,
			"--iters", "25",
			"--tolerance", "1e-6",
			"--json",
		})
	})
	if err != nil {
		t.Fatalf("train command: %v", err)
	}
	var summary fdnet.TrainSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode train output: %v\n%s", err, out)
	}
	if summary.Iterations != 25 || !(summary.FinalLoss < summary.InitialLoss) {
		t.Fatalf("unexpected train summary: %+v", summary)
	}
}

func TestTrainCommandValidation(t *testing.T) {
	descPath, obsPath := writeToyFiles(t)
	cases := [][]string{
		{"train", "--store", "memory"},
		{"train", "--store", "memory", "--model", descPath},
		{"train", "--store", "memory", "--model", descPath, "--obs", obsPath, "--iters", "-1"},
		{"train", "--store", "memory", "--model", descPath, "--obs", obsPath, "--workers", "-1"},
		{"train", "--store", "bogus", "--model", descPath, "--obs", obsPath},
	}
	for _, args := range cases {
		if err := run(context.Background(), args); err == nil {
			t.Fatalf("expected error for args %v", args)
		}
	}
}

func TestHistoryCommandValidation(t *testing.T) {
	if err := run(context.Background(), []string{"history", "--store", "memory"}); err == nil {
		t.Fatal("expected run-id error")
	}
	if err := run(context.Background(), []string{"history", "--store", "memory", "--run-id", "r", "--every", "0"}); err == nil {
		t.Fatal("expected every error")
	}
	if err := run(context.Background(), []string{"history", "--store", "memory", "--run-id", "missing"}); err == nil {
		t.Fatal("expected missing run error")
	}
}

func TestModelsCommandEmptyStore(t *testing.T) {
	out, err := captureStdout(func() error {
		return run(context.Background(), []string{"models", "--store", "memory"})
	})
	if err != nil {
		t.Fatalf("models command: %v", err)
	}
	if strings.TrimSpace(out) != "no models found" {
		t.Fatalf("unexpected models output: %q", out)
	}
}

func TestTrainRunsExportCommands(t *testing.T) {
	ctx := context.Background()
	descPath, obsPath := writeToyFiles(t)
	artifactsDir := filepath.Join(t.TempDir(), "runs")
	outModel := filepath.Join(t.TempDir(), "trained.model")

	if _, err := captureStdout(func() error {
		return run(ctx, []string{
			"train",
			"--store", "memory",
			"--model", descPath,
			"--obs", obsPath,
			"--name", "toy",
			"--iters", "5",
			"--tolerance", "1e-6",
			"--artifacts-dir", artifactsDir,
			"--out-model", outModel,
		})
	}); err != nil {
		t.Fatalf("train command: %v", err)
	}
	if _, err := os.Stat(outModel); err != nil {
		t.Fatalf("expected trained model file: %v", err)
	}

	out, err := captureStdout(func() error {
		return run(ctx, []string{"runs", "--artifacts-dir", artifactsDir})
	})
	if err != nil {
		t.Fatalf("runs command: %v", err)
	}
	if strings.Count(out, "run_id=") != 1 || !strings.Contains(out, "name=toy") {
		t.Fatalf("unexpected runs output:\n%s", out)
	}

	exportDir := t.TempDir()
	out, err = captureStdout(func() error {
		return run(ctx, []string{"export", "--artifacts-dir", artifactsDir, "--out", exportDir})
	})
	if err != nil {
		t.Fatalf("export command: %v", err)
	}
	if !strings.Contains(out, "exported run_id=") {
		t.Fatalf("unexpected export output: %s", out)
	}

	if err := run(ctx, []string{"eval", "--model", outModel, "--obs", obsPath}); err != nil {
		t.Fatalf("eval trained model: %v", err)
	}
}

func TestRunsCommandValidation(t *testing.T) {
	if err := run(context.Background(), []string{"runs", "--limit", "0"}); err == nil {
		t.Fatal("expected limit error")
	}
	if err := run(context.Background(), []string{"export", "--artifacts-dir", t.TempDir()}); err == nil {
		t.Fatal("expected no runs error")
	}
}

func TestEvalCommandEmptyObservation(t *testing.T) {
	descPath, _ := writeToyFiles(t)
	obsPath := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(obsPath, []byte(`{"inputs": [], "outputs": []}`), 0o644); err != nil {
		t.Fatalf("write observation: %v", err)
	}
	out, err := captureStdout(func() error {
		return run(context.Background(), []string{"eval", "--model", descPath, "--obs", obsPath})
	})
	if err != nil {
		t.Fatalf("eval command: %v", err)
	}
	if strings.TrimSpace(out) != "observation has no examples" {
		t.Fatalf("unexpected eval output: %q", out)
	}
}
