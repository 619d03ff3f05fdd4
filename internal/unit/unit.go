// Package unit implements the computational units a network is composed of.
package unit

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownKind = errors.New("unknown unit kind")
	// ErrInvariant marks a codec or ordering bug, never bad user input.
	ErrInvariant = errors.New("internal invariant violated")
)

// Kind is the closed set of unit variants.
type Kind uint8

const (
	Linear Kind = iota + 1
	Affine
)

func (k Kind) String() string {
	switch k {
	case Linear:
		return "linear"
	case Affine:
		return "affine"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (k Kind) valid() bool {
	return k == Linear || k == Affine
}

// ParseKind resolves a variant name case-insensitively.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear":
		return Linear, nil
	case "affine":
		return Affine, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

// Unit computes Activate(sum(inputs[i]*w[i]) + b).
type Unit struct {
	kind    Kind
	weights []float64
	bias    float64
	needed  int
}

// Layer is an ordered group of units sharing one input vector.
type Layer []*Unit

func New(kind Kind, bias float64, weights []float64) (*Unit, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return &Unit{
		kind:    kind,
		weights: append([]float64(nil), weights...),
		bias:    bias,
		needed:  len(weights),
	}, nil
}

func (u *Unit) Kind() Kind { return u.kind }

func (u *Unit) Bias() float64 { return u.bias }

func (u *Unit) Weight(i int) float64 { return u.weights[i] }

// WeightCount is the fixed number of incoming weights.
func (u *Unit) WeightCount() int { return u.needed }

// Weights returns a copy of the unit's weights in their internal order.
func (u *Unit) Weights() []float64 {
	return append([]float64(nil), u.weights...)
}

// Activate applies the variant's activation. The linear variant subtracts the
// bias again, so for it the bias added in Evaluate has no effect.
func (u *Unit) Activate(x float64) float64 {
	switch u.kind {
	case Linear:
		return x - u.bias
	default:
		return x
	}
}

// Evaluate expects len(inputs) == WeightCount(); callers validate widths.
func (u *Unit) Evaluate(inputs []float64) float64 {
	var sum float64
	for i, in := range inputs {
		sum += in * u.weights[i]
	}
	return u.Activate(sum + u.bias)
}

// ConsumeWeights takes the trailing WeightCount() entries of tail as the new
// weights and returns what precedes them.
func (u *Unit) ConsumeWeights(tail []float64) ([]float64, error) {
	if len(tail) < u.needed {
		return nil, fmt.Errorf("%w: unit needs %d weights, ribbon has %d", ErrInvariant, u.needed, len(tail))
	}
	cut := len(tail) - u.needed
	u.weights = append(u.weights[:0], tail[cut:]...)
	return tail[:cut], nil
}

// ConsumeBias takes the last entry of tail as the new bias.
func (u *Unit) ConsumeBias(tail []float64) ([]float64, error) {
	if len(tail) == 0 {
		return nil, fmt.Errorf("%w: unit needs a bias, ribbon is empty", ErrInvariant)
	}
	cut := len(tail) - 1
	u.bias = tail[cut]
	return tail[:cut], nil
}

func (u *Unit) Clone() *Unit {
	return &Unit{
		kind:    u.kind,
		weights: append([]float64(nil), u.weights...),
		bias:    u.bias,
		needed:  u.needed,
	}
}

// Clone deep-copies every unit in the layer.
func (l Layer) Clone() Layer {
	out := make(Layer, len(l))
	for i, u := range l {
		out[i] = u.Clone()
	}
	return out
}
