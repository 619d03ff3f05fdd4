package dataextract

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"fdnet/internal/model"
)

type ColumnStats struct {
	Min float64 `json:"min"`
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
	Std float64 `json:"std"`
}

func InputColumnStats(obs model.Observation) ([]ColumnStats, error) {
	columns, err := inputColumns(obs)
	if err != nil || columns == nil {
		return nil, err
	}
	out := make([]ColumnStats, len(columns))
	for i, col := range columns {
		mean, std := stat.PopMeanStdDev(col, nil)
		out[i] = ColumnStats{Min: floats.Min(col), Avg: mean, Max: floats.Max(col), Std: std}
	}
	return out, nil
}

// NormalizeInputs rescales every input column in place. Modes are none,
// minmax (to [0,1]), zscore and max (divide by the column max). Constant
// columns map to 0.
func NormalizeInputs(obs *model.Observation, mode string) error {
	if obs == nil {
		return fmt.Errorf("observation is required")
	}
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" || mode == "none" {
		return nil
	}
	stats, err := InputColumnStats(*obs)
	if err != nil {
		return err
	}
	var scale func(v float64, s ColumnStats) float64
	switch mode {
	case "minmax":
		scale = func(v float64, s ColumnStats) float64 {
			if s.Max == s.Min {
				return 0
			}
			return (v - s.Min) / (s.Max - s.Min)
		}
	case "zscore":
		scale = func(v float64, s ColumnStats) float64 {
			if s.Std == 0 {
				return 0
			}
			return (v - s.Avg) / s.Std
		}
	case "max":
		scale = func(v float64, s ColumnStats) float64 {
			if s.Max == 0 {
				return 0
			}
			return v / s.Max
		}
	default:
		return fmt.Errorf("unsupported normalization mode: %s", mode)
	}
	for _, row := range obs.Inputs {
		for i, v := range row {
			row[i] = scale(v, stats[i])
		}
	}
	return nil
}

func inputColumns(obs model.Observation) ([][]float64, error) {
	if len(obs.Inputs) == 0 {
		return nil, nil
	}
	width := len(obs.Inputs[0])
	if width == 0 {
		return nil, fmt.Errorf("observation has no input columns")
	}
	columns := make([][]float64, width)
	for i := range columns {
		columns[i] = make([]float64, len(obs.Inputs))
	}
	for r, row := range obs.Inputs {
		if len(row) != width {
			return nil, fmt.Errorf("inconsistent input width at row %d: got=%d want=%d", r, len(row), width)
		}
		for i, v := range row {
			columns[i][r] = v
		}
	}
	return columns, nil
}
