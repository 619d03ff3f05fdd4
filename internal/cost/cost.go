// Package cost provides the pluggable loss functions a network is scored with.
package cost

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

var ErrShapeMismatch = errors.New("prediction and target shapes differ")

// Func maps a batch of predictions and targets to a scalar loss.
type Func interface {
	Name() string
	Cost(predictions, targets [][]float64) (float64, error)
}

// VectorFunc is implemented by costs that can also report one loss per
// output dimension.
type VectorFunc interface {
	Func
	CostVector(predictions, targets [][]float64) ([]float64, error)
}

// MSE averages squared error over output dimensions and then over examples.
// For one-dimensional targets this is the mean of (p-y)^2.
type MSE struct{}

func (MSE) Name() string { return "mse" }

func (MSE) Cost(predictions, targets [][]float64) (float64, error) {
	if err := checkBatch(predictions, targets); err != nil {
		return 0, err
	}
	var total float64
	for i := range predictions {
		sq := SquaredDiff(predictions[i], targets[i])
		total += floats.Sum(sq) / float64(len(sq))
	}
	return total / float64(len(predictions)), nil
}

// CostVector is the per-dimension mean of squared error over examples.
func (MSE) CostVector(predictions, targets [][]float64) ([]float64, error) {
	if err := checkBatch(predictions, targets); err != nil {
		return nil, err
	}
	rows := make([][]float64, len(predictions))
	for i := range predictions {
		rows[i] = SquaredDiff(predictions[i], targets[i])
	}
	sums := SumColumns(rows)
	floats.Scale(1/float64(len(rows)), sums)
	return sums, nil
}

// SSE is the plain sum of squared errors over every example and dimension.
type SSE struct{}

func (SSE) Name() string { return "sse" }

func (SSE) Cost(predictions, targets [][]float64) (float64, error) {
	if err := checkBatch(predictions, targets); err != nil {
		return 0, err
	}
	var total float64
	for i := range predictions {
		total += floats.Sum(SquaredDiff(predictions[i], targets[i]))
	}
	return total, nil
}

func (SSE) CostVector(predictions, targets [][]float64) ([]float64, error) {
	if err := checkBatch(predictions, targets); err != nil {
		return nil, err
	}
	rows := make([][]float64, len(predictions))
	for i := range predictions {
		rows[i] = SquaredDiff(predictions[i], targets[i])
	}
	return SumColumns(rows), nil
}

// SquaredDiff returns (a[i]-b[i])^2 elementwise. a and b must be the same length.
func SquaredDiff(a, b []float64) []float64 {
	out := make([]float64, len(a))
	floats.SubTo(out, a, b)
	floats.Mul(out, out)
	return out
}

// SumColumns adds equal-length rows elementwise.
func SumColumns(rows [][]float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	out := append([]float64(nil), rows[0]...)
	for _, row := range rows[1:] {
		floats.Add(out, row)
	}
	return out
}

func checkBatch(predictions, targets [][]float64) error {
	if len(predictions) == 0 {
		return fmt.Errorf("%w: empty batch", ErrShapeMismatch)
	}
	if len(predictions) != len(targets) {
		return fmt.Errorf("%w: %d predictions, %d targets", ErrShapeMismatch, len(predictions), len(targets))
	}
	width := len(predictions[0])
	for i := range predictions {
		if len(predictions[i]) == 0 || len(predictions[i]) != len(targets[i]) || len(predictions[i]) != width {
			return fmt.Errorf("%w: example %d has %d predictions, %d targets", ErrShapeMismatch, i, len(predictions[i]), len(targets[i]))
		}
	}
	return nil
}
