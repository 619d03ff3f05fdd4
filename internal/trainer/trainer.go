// Package trainer fits network parameters by gradient descent, estimating the
// gradient with central finite differences over the full dataset.
package trainer

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"

	"fdnet/internal/network"
)

// DefaultTolerance is the reference perturbation size. It is close to the
// limit of float64 precision for losses much larger than 1.
const DefaultTolerance = 1e-12

type Trainer struct {
	// Tolerance is the perturbation h applied to each parameter.
	Tolerance float64
	// Workers > 1 differentiates parameter ranges concurrently, one scratch network each.
	Workers int
}

type Result struct {
	Iterations int       `json:"iterations"`
	Losses     []float64 `json:"losses"`
	Params     []float64 `json:"params"`
}

func New() *Trainer {
	return &Trainer{Tolerance: DefaultTolerance, Workers: 1}
}

func (t *Trainer) validate() error {
	if t == nil {
		return errors.New("trainer is required")
	}
	if !(t.Tolerance > 0) {
		return fmt.Errorf("tolerance must be > 0, got %g", t.Tolerance)
	}
	if t.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", t.Workers)
	}
	return nil
}

// EstimateGradient returns (loss(P+h e_i) - loss(P-h e_i)) / 2h for every
// parameter index i. Evaluations run on scratch clones, so net still holds its
// original parameters afterwards.
func (t *Trainer) EstimateGradient(net *network.Network) ([]float64, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	if net == nil {
		return nil, errors.New("network is required")
	}
	params := net.Params()
	grad := make([]float64, len(params))

	workers := t.Workers
	if workers > len(params) {
		workers = len(params)
	}
	if workers <= 1 {
		if err := gradientRange(net.Clone(), params, t.Tolerance, 0, len(params), grad); err != nil {
			return nil, err
		}
		return grad, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	chunk := (len(params) + workers - 1) / workers
	for start := 0; start < len(params); start += chunk {
		end := min(start+chunk, len(params))
		wg.Add(1)
		go func(scratch *network.Network, start, end int) {
			defer wg.Done()
			if err := gradientRange(scratch, params, t.Tolerance, start, end, grad); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(net.Clone(), start, end)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return grad, nil
}

// gradientRange fills grad[from:to] with gonum's central difference over
// those coordinates only; the rest of the ribbon stays at params. Each caller
// owns scratch and its working ribbon; params is only read.
func gradientRange(scratch *network.Network, params []float64, h float64, from, to int, grad []float64) error {
	work := append([]float64(nil), params...)
	var firstErr error
	lossFn := func(x []float64) float64 {
		if firstErr != nil {
			return math.NaN()
		}
		copy(work[from:to], x)
		loss, err := lossAt(scratch, work)
		if err != nil {
			firstErr = err
			return math.NaN()
		}
		return loss
	}
	fd.Gradient(grad[from:to], lossFn, params[from:to], &fd.Settings{Formula: fd.Central, Step: h})
	if firstErr != nil {
		return fmt.Errorf("params %d..%d: %w", from, to, firstErr)
	}
	return nil
}

func lossAt(scratch *network.Network, params []float64) (float64, error) {
	if err := scratch.SetParams(params); err != nil {
		return 0, err
	}
	return scratch.DatasetLoss()
}

// Step moves every parameter by -alpha*gradient and writes the whole ribbon
// back in one update.
func (t *Trainer) Step(net *network.Network) error {
	grad, err := t.EstimateGradient(net)
	if err != nil {
		return err
	}
	params := net.Params()
	next := make([]float64, len(params))
	floats.AddScaledTo(next, params, -net.Alpha(), grad)
	return net.SetParams(next)
}

// Train runs exactly iterations steps. Losses[0] is the loss before training
// and Losses[k] the loss after step k.
func (t *Trainer) Train(net *network.Network, iterations int) (Result, error) {
	if err := t.validate(); err != nil {
		return Result{}, err
	}
	if net == nil {
		return Result{}, errors.New("network is required")
	}
	if iterations < 0 {
		return Result{}, fmt.Errorf("iterations must be >= 0, got %d", iterations)
	}

	losses := make([]float64, 0, iterations+1)
	loss, err := net.DatasetLoss()
	if err != nil {
		return Result{}, err
	}
	losses = append(losses, loss)
	for i := 0; i < iterations; i++ {
		if err := t.Step(net); err != nil {
			return Result{}, fmt.Errorf("step %d: %w", i, err)
		}
		if loss, err = net.DatasetLoss(); err != nil {
			return Result{}, fmt.Errorf("step %d: %w", i, err)
		}
		losses = append(losses, loss)
	}
	return Result{
		Iterations: iterations,
		Losses:     losses,
		Params:     net.Params(),
	}, nil
}
