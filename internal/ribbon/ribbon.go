// Package ribbon converts a network's parameters to and from one flat buffer.
//
// The canonical order is every unit's weights (layer-major, then unit-major)
// followed by every unit's bias in the same order.
package ribbon

import (
	"fmt"

	"fdnet/internal/unit"
)

// Len is the ribbon length the layers expect.
func Len(layers []unit.Layer) int {
	n := 0
	for _, layer := range layers {
		for _, u := range layer {
			n += u.WeightCount() + 1
		}
	}
	return n
}

func Flatten(layers []unit.Layer) []float64 {
	weights := make([]float64, 0, Len(layers))
	var biases []float64
	for _, layer := range layers {
		for _, u := range layer {
			weights = append(weights, u.Weights()...)
			biases = append(biases, u.Bias())
		}
	}
	return append(weights, biases...)
}

// Apply writes ribbon back into the units. Consumption runs from the tail in
// reverse layer and unit order: every bias first, then every weight vector.
// Both passes must share that order or the variable-width weight slices drift.
func Apply(layers []unit.Layer, ribbon []float64) error {
	if want := Len(layers); len(ribbon) != want {
		return fmt.Errorf("%w: ribbon length %d, network needs %d", unit.ErrInvariant, len(ribbon), want)
	}

	tail := ribbon
	var err error
	for l := len(layers) - 1; l >= 0; l-- {
		for n := len(layers[l]) - 1; n >= 0; n-- {
			if tail, err = layers[l][n].ConsumeBias(tail); err != nil {
				return fmt.Errorf("layer %d unit %d bias: %w", l, n, err)
			}
		}
	}
	for l := len(layers) - 1; l >= 0; l-- {
		for n := len(layers[l]) - 1; n >= 0; n-- {
			if tail, err = layers[l][n].ConsumeWeights(tail); err != nil {
				return fmt.Errorf("layer %d unit %d weights: %w", l, n, err)
			}
		}
	}
	if len(tail) != 0 {
		return fmt.Errorf("%w: %d ribbon entries left unconsumed", unit.ErrInvariant, len(tail))
	}
	return nil
}
