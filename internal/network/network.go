// Package network composes units into layers and scores them against a dataset.
package network

import (
	"errors"
	"fmt"

	"fdnet/internal/cost"
	"fdnet/internal/model"
	"fdnet/internal/ribbon"
	"fdnet/internal/unit"
)

var (
	ErrWidthMismatch = errors.New("layer width mismatch")
	ErrNoVectorCost  = errors.New("cost function has no per-dimension form")
)

type Config struct {
	Inputs      int
	Alpha       float64
	Cost        cost.Func
	Observation model.Observation
}

// Network owns its units exclusively. It is not safe for concurrent use while
// parameters are being written; readers that need isolation use Clone.
type Network struct {
	inputs int
	alpha  float64
	cost   cost.Func
	obs    model.Observation
	layers []unit.Layer
}

func Build(cfg Config, layers []unit.Layer) (*Network, error) {
	if cfg.Inputs <= 0 {
		return nil, fmt.Errorf("%w: input width must be > 0, got %d", ErrWidthMismatch, cfg.Inputs)
	}
	if cfg.Cost == nil {
		return nil, errors.New("cost function is required")
	}
	if len(layers) == 0 {
		return nil, errors.New("at least one layer is required")
	}
	width := cfg.Inputs
	for l, layer := range layers {
		if len(layer) == 0 {
			return nil, fmt.Errorf("%w: layer %d has no units", ErrWidthMismatch, l)
		}
		for n, u := range layer {
			if u == nil {
				return nil, fmt.Errorf("layer %d unit %d is nil", l, n)
			}
			if u.WeightCount() != width {
				return nil, fmt.Errorf("%w: layer %d unit %d has %d weights, previous width is %d", ErrWidthMismatch, l, n, u.WeightCount(), width)
			}
		}
		width = len(layer)
	}
	if err := checkObservation(cfg.Inputs, width, cfg.Observation); err != nil {
		return nil, err
	}

	return &Network{
		inputs: cfg.Inputs,
		alpha:  cfg.Alpha,
		cost:   cfg.Cost,
		obs:    cfg.Observation,
		layers: layers,
	}, nil
}

// FromTopology resolves unit kinds and the cost name, rejecting anything the
// registries don't know.
func FromTopology(t model.Topology, obs model.Observation) (*Network, error) {
	fn, err := cost.Get(t.Meta.Cost)
	if err != nil {
		return nil, err
	}
	layers := make([]unit.Layer, len(t.Layers))
	for l, spec := range t.Layers {
		layers[l] = make(unit.Layer, len(spec.Units))
		for n, us := range spec.Units {
			kind, err := unit.ParseKind(us.Kind)
			if err != nil {
				return nil, fmt.Errorf("layer %d unit %d: %w", l, n, err)
			}
			u, err := unit.New(kind, us.Bias, us.Weights)
			if err != nil {
				return nil, fmt.Errorf("layer %d unit %d: %w", l, n, err)
			}
			layers[l][n] = u
		}
	}
	return Build(Config{
		Inputs:      t.Meta.Inputs,
		Alpha:       t.Meta.Alpha,
		Cost:        fn,
		Observation: obs,
	}, layers)
}

func checkObservation(inputs, outputs int, obs model.Observation) error {
	if len(obs.Inputs) != len(obs.Outputs) {
		return fmt.Errorf("%w: %d inputs, %d outputs", cost.ErrShapeMismatch, len(obs.Inputs), len(obs.Outputs))
	}
	for i := range obs.Inputs {
		if len(obs.Inputs[i]) != inputs {
			return fmt.Errorf("%w: example %d has %d inputs, network takes %d", ErrWidthMismatch, i, len(obs.Inputs[i]), inputs)
		}
		if len(obs.Outputs[i]) != outputs {
			return fmt.Errorf("%w: example %d has %d outputs, network yields %d", ErrWidthMismatch, i, len(obs.Outputs[i]), outputs)
		}
	}
	return nil
}

// Forward runs input through every layer without caching activations.
func (n *Network) Forward(input []float64) ([]float64, error) {
	if len(input) != n.inputs {
		return nil, fmt.Errorf("%w: got %d inputs, network takes %d", ErrWidthMismatch, len(input), n.inputs)
	}
	prev := input
	for _, layer := range n.layers {
		next := make([]float64, len(layer))
		for i, u := range layer {
			next[i] = u.Evaluate(prev)
		}
		prev = next
	}
	return prev, nil
}

func (n *Network) Predict(inputs [][]float64) ([][]float64, error) {
	out := make([][]float64, len(inputs))
	for i, input := range inputs {
		pred, err := n.Forward(input)
		if err != nil {
			return nil, fmt.Errorf("example %d: %w", i, err)
		}
		out[i] = pred
	}
	return out, nil
}

func (n *Network) Loss(inputs, targets [][]float64) (float64, error) {
	preds, err := n.Predict(inputs)
	if err != nil {
		return 0, err
	}
	return n.cost.Cost(preds, targets)
}

func (n *Network) LossVector(inputs, targets [][]float64) ([]float64, error) {
	vf, ok := n.cost.(cost.VectorFunc)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoVectorCost, n.cost.Name())
	}
	preds, err := n.Predict(inputs)
	if err != nil {
		return nil, err
	}
	return vf.CostVector(preds, targets)
}

// DatasetLoss scores the network on its own observation.
func (n *Network) DatasetLoss() (float64, error) {
	return n.Loss(n.obs.Inputs, n.obs.Outputs)
}

func (n *Network) Params() []float64 {
	return ribbon.Flatten(n.layers)
}

func (n *Network) SetParams(r []float64) error {
	return ribbon.Apply(n.layers, r)
}

func (n *Network) ParamCount() int {
	return ribbon.Len(n.layers)
}

func (n *Network) Key() ribbon.Key {
	return ribbon.KeyOf(n.inputs, n.layers)
}

// Clone deep-copies the units. The observation is shared; it is never written.
func (n *Network) Clone() *Network {
	layers := make([]unit.Layer, len(n.layers))
	for i, layer := range n.layers {
		layers[i] = layer.Clone()
	}
	return &Network{
		inputs: n.inputs,
		alpha:  n.alpha,
		cost:   n.cost,
		obs:    n.obs,
		layers: layers,
	}
}

func (n *Network) Inputs() int { return n.inputs }

func (n *Network) Alpha() float64 { return n.alpha }

func (n *Network) Cost() cost.Func { return n.cost }

func (n *Network) Observation() model.Observation { return n.obs }

func (n *Network) Layers() []unit.Layer { return n.layers }

// Topology exports the current parameters in description form.
func (n *Network) Topology() model.Topology {
	t := model.Topology{
		Layers: make([]model.LayerSpec, len(n.layers)),
		Meta: model.Meta{
			Inputs: n.inputs,
			Alpha:  n.alpha,
			Cost:   n.cost.Name(),
		},
	}
	for l, layer := range n.layers {
		units := make([]model.UnitSpec, len(layer))
		for i, u := range layer {
			units[i] = model.UnitSpec{Kind: u.Kind().String(), Bias: u.Bias(), Weights: u.Weights()}
		}
		t.Layers[l] = model.LayerSpec{Units: units}
	}
	return t
}
