// Package description reads the line-oriented model description format and
// the JSON observation records that feed a network.
//
//	layer
//	affine 0.5 1 -1
//	linear 0 2 0.5
//	layer
//	affine -1 1 2
//	meta
//	input 2
//	alpha 0.01
//	cst mse
//
// Unit lines are "<kind> <bias> [<weight> ...]". Blank lines and lines
// starting with '#' are ignored.
package description

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"fdnet/internal/cost"
	"fdnet/internal/model"
	"fdnet/internal/unit"
)

var ErrSyntax = errors.New("description syntax error")

type section int

const (
	sectionNone section = iota
	sectionLayer
	sectionMeta
)

func ParseDescription(r io.Reader) (model.Topology, error) {
	var (
		topo    model.Topology
		current section
		seen    = map[string]bool{}
	)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch strings.ToLower(fields[0]) {
		case "layer":
			if len(fields) != 1 {
				return model.Topology{}, errors.Wrapf(ErrSyntax, "line %d: layer marker takes no arguments", lineNo)
			}
			if current == sectionMeta {
				return model.Topology{}, errors.Wrapf(ErrSyntax, "line %d: layer after meta", lineNo)
			}
			topo.Layers = append(topo.Layers, model.LayerSpec{})
			current = sectionLayer
			continue
		case "meta":
			if len(fields) != 1 {
				return model.Topology{}, errors.Wrapf(ErrSyntax, "line %d: meta marker takes no arguments", lineNo)
			}
			current = sectionMeta
			continue
		}

		switch current {
		case sectionLayer:
			spec, err := parseUnit(fields)
			if err != nil {
				return model.Topology{}, errors.Wrapf(err, "line %d", lineNo)
			}
			last := &topo.Layers[len(topo.Layers)-1]
			last.Units = append(last.Units, spec)
		case sectionMeta:
			key, err := parseMeta(&topo.Meta, fields)
			if err != nil {
				return model.Topology{}, errors.Wrapf(err, "line %d", lineNo)
			}
			seen[key] = true
		default:
			return model.Topology{}, errors.Wrapf(ErrSyntax, "line %d: %q outside of a layer or meta block", lineNo, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return model.Topology{}, errors.Wrap(err, "read description")
	}

	if len(topo.Layers) == 0 {
		return model.Topology{}, errors.Wrap(ErrSyntax, "no layers")
	}
	for _, key := range []string{"input", "alpha", "cst"} {
		if !seen[key] {
			return model.Topology{}, errors.Wrapf(ErrSyntax, "meta %s is required", key)
		}
	}
	return topo, nil
}

func parseUnit(fields []string) (model.UnitSpec, error) {
	kind, err := unit.ParseKind(fields[0])
	if err != nil {
		return model.UnitSpec{}, err
	}
	if len(fields) < 2 {
		return model.UnitSpec{}, errors.Wrapf(ErrSyntax, "unit %s has no bias", fields[0])
	}
	values := make([]float64, len(fields)-1)
	for i, field := range fields[1:] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return model.UnitSpec{}, errors.Wrapf(ErrSyntax, "bad number %q", field)
		}
		values[i] = v
	}
	return model.UnitSpec{
		Kind:    kind.String(),
		Bias:    values[0],
		Weights: values[1:],
	}, nil
}

func parseMeta(meta *model.Meta, fields []string) (string, error) {
	key := strings.ToLower(fields[0])
	if len(fields) != 2 {
		return key, errors.Wrapf(ErrSyntax, "meta %s takes one value", fields[0])
	}
	switch key {
	case "input":
		n, err := strconv.Atoi(fields[1])
		if err != nil || n <= 0 {
			return key, errors.Wrapf(ErrSyntax, "bad input width %q", fields[1])
		}
		meta.Inputs = n
	case "alpha":
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return key, errors.Wrapf(ErrSyntax, "bad alpha %q", fields[1])
		}
		meta.Alpha = v
	case "cst":
		fn, err := cost.Get(fields[1])
		if err != nil {
			return key, err
		}
		meta.Cost = fn.Name()
	default:
		return key, errors.Wrapf(ErrSyntax, "unknown meta key %q", fields[0])
	}
	return key, nil
}

// LoadFiles reads a description and an observation file.
func LoadFiles(descriptionPath, observationPath string) (model.Topology, model.Observation, error) {
	df, err := os.Open(descriptionPath)
	if err != nil {
		return model.Topology{}, model.Observation{}, err
	}
	defer df.Close()
	topo, err := ParseDescription(df)
	if err != nil {
		return model.Topology{}, model.Observation{}, errors.Wrap(err, descriptionPath)
	}

	if observationPath == "" {
		return topo, model.Observation{}, nil
	}
	of, err := os.Open(observationPath)
	if err != nil {
		return model.Topology{}, model.Observation{}, err
	}
	defer of.Close()
	obs, err := ParseObservation(of)
	if err != nil {
		return model.Topology{}, model.Observation{}, errors.Wrap(err, observationPath)
	}
	return topo, obs, nil
}
