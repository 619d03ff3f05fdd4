package description

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"fdnet/internal/cost"
	"fdnet/internal/model"
	"fdnet/internal/unit"
)

const twoLayer = `
# hidden layer
layer
Affine 0.5 1 -1
linear 3 2 0.5
layer
affine -1 1 2

meta
input 2
alpha 0.01
cst MSE
`

func TestParseDescription(t *testing.T) {
	topo, err := ParseDescription(strings.NewReader(twoLayer))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := model.Topology{
		Layers: []model.LayerSpec{
			{Units: []model.UnitSpec{
				{Kind: "affine", Bias: 0.5, Weights: []float64{1, -1}},
				{Kind: "linear", Bias: 3, Weights: []float64{2, 0.5}},
			}},
			{Units: []model.UnitSpec{
				{Kind: "affine", Bias: -1, Weights: []float64{1, 2}},
			}},
		},
		Meta: model.Meta{Inputs: 2, Alpha: 0.01, Cost: "mse"},
	}
	if !reflect.DeepEqual(topo, want) {
		t.Fatalf("unexpected topology:\n got=%+v\nwant=%+v", topo, want)
	}
}

func TestParseDescriptionErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		target  error
		message string
	}{
		{name: "unknown-kind", input: "layer\nrelu 0 1\nmeta\ninput 1\nalpha 1\ncst mse\n", target: unit.ErrUnknownKind, message: "line 2"},
		{name: "unknown-cost", input: "layer\naffine 0 1\nmeta\ninput 1\nalpha 1\ncst hinge\n", target: cost.ErrCostNotFound, message: "line 6"},
		{name: "bad-number", input: "layer\naffine 0 x\n", target: ErrSyntax, message: "line 2"},
		{name: "no-bias", input: "layer\naffine\n", target: ErrSyntax, message: "line 2"},
		{name: "outside-block", input: "affine 0 1\n", target: ErrSyntax, message: "line 1"},
		{name: "missing-meta", input: "layer\naffine 0 1\nmeta\ninput 1\n", target: ErrSyntax, message: "alpha"},
		{name: "no-layers", input: "meta\ninput 1\nalpha 1\ncst mse\n", target: ErrSyntax, message: "no layers"},
		{name: "bad-input", input: "layer\naffine 0 1\nmeta\ninput zero\n", target: ErrSyntax, message: "line 4"},
		{name: "unknown-meta", input: "layer\naffine 0 1\nmeta\nbeta 1\n", target: ErrSyntax, message: "beta"},
		{name: "layer-after-meta", input: "layer\naffine 0 1\nmeta\nlayer\n", target: ErrSyntax, message: "line 4"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDescription(strings.NewReader(tc.input))
			if !errors.Is(err, tc.target) {
				t.Fatalf("expected %v, got %v", tc.target, err)
			}
			if !strings.Contains(err.Error(), tc.message) {
				t.Fatalf("expected %q in error, got %q", tc.message, err.Error())
			}
		})
	}
}

func TestParseObservation(t *testing.T) {
	obs, err := ParseObservation(strings.NewReader(`{"inputs": [[10], [20]], "outputs": [22.5, [46.5]]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := model.Observation{
		Inputs:  [][]float64{{10}, {20}},
		Outputs: [][]float64{{22.5}, {46.5}},
	}
	if !reflect.DeepEqual(obs, want) {
		t.Fatalf("unexpected observation: %+v", obs)
	}
}

func TestParseObservationLegacyKeys(t *testing.T) {
	obs, err := ParseObservation(strings.NewReader(`{"ord_in": [[1, 2]], "ord_out": [[3, 4]]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(obs.Inputs) != 1 || !reflect.DeepEqual(obs.Outputs[0], []float64{3, 4}) {
		t.Fatalf("unexpected observation: %+v", obs)
	}
}

func TestParseObservationErrors(t *testing.T) {
	for _, input := range []string{
		`{"inputs": [[1]], "outputs": []}`,
		`{"inputs": [[1]], "outputs": ["x"]}`,
		`{"inputs": [[1]], "outputs": [1], "extra": true}`,
		`not json`,
	} {
		if _, err := ParseObservation(strings.NewReader(input)); err == nil {
			t.Fatalf("expected error for %s", input)
		}
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	descPath := filepath.Join(dir, "model.txt")
	obsPath := filepath.Join(dir, "obs.json")
	if err := os.WriteFile(descPath, []byte(twoLayer), 0o644); err != nil {
		t.Fatalf("write description: %v", err)
	}
	if err := os.WriteFile(obsPath, []byte(`{"inputs": [[2, 1]], "outputs": [9.5]}`), 0o644); err != nil {
		t.Fatalf("write observation: %v", err)
	}

	topo, obs, err := LoadFiles(descPath, obsPath)
	if err != nil {
		t.Fatalf("load files: %v", err)
	}
	if len(topo.Layers) != 2 || len(obs.Inputs) != 1 {
		t.Fatalf("unexpected load: layers=%d examples=%d", len(topo.Layers), len(obs.Inputs))
	}

	if _, _, err := LoadFiles(filepath.Join(dir, "missing.txt"), obsPath); err == nil {
		t.Fatal("expected missing file error")
	}
}
