package ribbon

import (
	"errors"
	"reflect"
	"testing"

	"fdnet/internal/unit"
)

func mustUnit(t *testing.T, kind unit.Kind, bias float64, weights ...float64) *unit.Unit {
	t.Helper()
	u, err := unit.New(kind, bias, weights)
	if err != nil {
		t.Fatalf("new unit: %v", err)
	}
	return u
}

// raggedLayers has units with different weight counts inside one layer so
// order bugs in Apply show up as shifted values.
func raggedLayers(t *testing.T) []unit.Layer {
	return []unit.Layer{
		{
			mustUnit(t, unit.Affine, 0.1, 1, 2),
			mustUnit(t, unit.Linear, 0.2, 3),
			mustUnit(t, unit.Affine, 0.3, 4, 5, 6),
		},
		{
			mustUnit(t, unit.Affine, 0.4, 7, 8, 9),
		},
	}
}

func TestFlattenOrder(t *testing.T) {
	got := Flatten(raggedLayers(t))
	want := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 0.1, 0.2, 0.3, 0.4}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected ribbon: got=%v want=%v", got, want)
	}
}

func TestLenMatchesFlatten(t *testing.T) {
	layers := raggedLayers(t)
	if Len(layers) != len(Flatten(layers)) || Len(layers) != 9+4 {
		t.Fatalf("unexpected length: len=%d flatten=%d", Len(layers), len(Flatten(layers)))
	}
}

func TestApplyRoundTrip(t *testing.T) {
	layers := raggedLayers(t)
	before := Flatten(layers)
	if err := Apply(layers, before); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if after := Flatten(layers); !reflect.DeepEqual(before, after) {
		t.Fatalf("round trip changed parameters: before=%v after=%v", before, after)
	}
}

func TestApplyPlacesEveryValue(t *testing.T) {
	layers := raggedLayers(t)
	next := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, -1, -2, -3, -4}
	if err := Apply(layers, next); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := layers[0][2].Weights(); !reflect.DeepEqual(got, []float64{40, 50, 60}) {
		t.Fatalf("unexpected weights for layer 0 unit 2: %v", got)
	}
	if layers[0][1].Bias() != -2 || layers[1][0].Bias() != -4 {
		t.Fatalf("unexpected biases: %f %f", layers[0][1].Bias(), layers[1][0].Bias())
	}
	if !reflect.DeepEqual(Flatten(layers), next) {
		t.Fatalf("flatten after apply: %v", Flatten(layers))
	}
}

func TestApplyLengthMismatch(t *testing.T) {
	layers := raggedLayers(t)
	before := Flatten(layers)
	for _, size := range []int{0, len(before) - 1, len(before) + 1} {
		if err := Apply(layers, make([]float64, size)); !errors.Is(err, unit.ErrInvariant) {
			t.Fatalf("size %d: expected ErrInvariant, got %v", size, err)
		}
	}
	if !reflect.DeepEqual(before, Flatten(layers)) {
		t.Fatal("failed apply mutated the layers")
	}
}

func TestSingleUnitBoundary(t *testing.T) {
	layers := []unit.Layer{{mustUnit(t, unit.Linear, 0, 1)}}
	if err := Apply(layers, []float64{2.5, 0.5}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if layers[0][0].Weight(0) != 2.5 || layers[0][0].Bias() != 0.5 {
		t.Fatalf("unexpected unit state: w=%v b=%f", layers[0][0].Weights(), layers[0][0].Bias())
	}
}
