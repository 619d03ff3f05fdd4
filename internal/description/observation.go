package description

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"fdnet/internal/model"
)

type rawObservation struct {
	Inputs  [][]float64       `json:"inputs"`
	Outputs []json.RawMessage `json:"outputs"`
	OrdIn   [][]float64       `json:"ord_in"`
	OrdOut  []json.RawMessage `json:"ord_out"`
}

// ParseObservation decodes {"inputs": [[...]], "outputs": [...]}. Each output
// is either a vector or a bare number, which becomes a one-element vector.
// The ord_in / ord_out key spelling is accepted as well.
func ParseObservation(r io.Reader) (model.Observation, error) {
	var raw rawObservation
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return model.Observation{}, errors.Wrap(err, "decode observation")
	}
	inputs, outputs := raw.Inputs, raw.Outputs
	if inputs == nil && outputs == nil {
		inputs, outputs = raw.OrdIn, raw.OrdOut
	}
	if len(inputs) != len(outputs) {
		return model.Observation{}, errors.Errorf("observation has %d inputs and %d outputs", len(inputs), len(outputs))
	}

	obs := model.Observation{
		Inputs:  inputs,
		Outputs: make([][]float64, len(outputs)),
	}
	for i, msg := range outputs {
		out, err := decodeTarget(msg)
		if err != nil {
			return model.Observation{}, errors.Wrapf(err, "output %d", i)
		}
		obs.Outputs[i] = out
	}
	return obs, nil
}

func decodeTarget(msg json.RawMessage) ([]float64, error) {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var vec []float64
		if err := json.Unmarshal(trimmed, &vec); err != nil {
			return nil, err
		}
		return vec, nil
	}
	var scalar float64
	if err := json.Unmarshal(trimmed, &scalar); err != nil {
		return nil, err
	}
	return []float64{scalar}, nil
}
