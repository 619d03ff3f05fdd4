// Package dataextract turns delimited tables into observation records.
package dataextract

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"fdnet/internal/model"
)

// CSVOptions selects input and target columns. Names take precedence over
// indexes and require a header row. With no selection the last column is
// the target and every other column is an input.
type CSVOptions struct {
	HasHeader     bool
	InputCols     []string
	OutputCols    []string
	InputIndexes  []int
	OutputIndexes []int
	Comma         rune
}

func ExtractObservationCSV(in io.Reader, opts CSVOptions) (model.Observation, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}

	var header []string
	row := 0
	if opts.HasHeader {
		h, err := reader.Read()
		if err == io.EOF {
			return model.Observation{}, nil
		}
		if err != nil {
			return model.Observation{}, fmt.Errorf("read csv header: %w", err)
		}
		header = h
		row++
	}

	inputIdx, outputIdx, err := resolveColumns(header, opts)
	if err != nil {
		return model.Observation{}, err
	}

	var obs model.Observation
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Observation{}, fmt.Errorf("read csv row %d: %w", row+1, err)
		}
		row++
		if blankRecord(record) {
			continue
		}
		if inputIdx == nil {
			if len(record) < 2 {
				return model.Observation{}, fmt.Errorf("csv row %d needs at least 2 columns", row)
			}
			inputIdx, outputIdx = defaultColumns(len(record))
		}
		inputs, err := parseFields(record, inputIdx, row)
		if err != nil {
			return model.Observation{}, err
		}
		outputs, err := parseFields(record, outputIdx, row)
		if err != nil {
			return model.Observation{}, err
		}
		obs.Inputs = append(obs.Inputs, inputs)
		obs.Outputs = append(obs.Outputs, outputs)
	}
	return obs, nil
}

func resolveColumns(header []string, opts CSVOptions) ([]int, []int, error) {
	inputs, err := columnIndexes(header, opts.InputCols, opts.InputIndexes)
	if err != nil {
		return nil, nil, err
	}
	outputs, err := columnIndexes(header, opts.OutputCols, opts.OutputIndexes)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case inputs == nil && outputs == nil:
		if header != nil {
			if len(header) < 2 {
				return nil, nil, fmt.Errorf("csv header needs at least 2 columns")
			}
			inputs, outputs = defaultColumns(len(header))
		}
		return inputs, outputs, nil
	case inputs == nil || outputs == nil:
		return nil, nil, fmt.Errorf("input and output columns must be selected together")
	}
	for _, i := range inputs {
		for _, o := range outputs {
			if i == o {
				return nil, nil, fmt.Errorf("column %d selected as both input and output", i)
			}
		}
	}
	return inputs, outputs, nil
}

func columnIndexes(header, names []string, indexes []int) ([]int, error) {
	if len(names) > 0 {
		if header == nil {
			return nil, fmt.Errorf("column names require a header row")
		}
		out := make([]int, 0, len(names))
		for _, name := range names {
			idx, err := columnIndexByName(header, name)
			if err != nil {
				return nil, err
			}
			out = append(out, idx)
		}
		return out, nil
	}
	if len(indexes) == 0 {
		return nil, nil
	}
	for _, idx := range indexes {
		if idx < 0 {
			return nil, fmt.Errorf("column index must be >= 0, got %d", idx)
		}
	}
	return append([]int(nil), indexes...), nil
}

func defaultColumns(width int) ([]int, []int) {
	inputs := make([]int, width-1)
	for i := range inputs {
		inputs[i] = i
	}
	return inputs, []int{width - 1}
}

func parseFields(record []string, indexes []int, row int) ([]float64, error) {
	out := make([]float64, len(indexes))
	for i, idx := range indexes {
		if idx >= len(record) {
			return nil, fmt.Errorf("csv row %d missing column index %d", row, idx)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
		if err != nil {
			return nil, fmt.Errorf("parse csv row %d column %d: %w", row, idx, err)
		}
		out[i] = value
	}
	return out, nil
}

func columnIndexByName(header []string, name string) (int, error) {
	want := strings.TrimSpace(strings.ToLower(name))
	for i, field := range header {
		if strings.ToLower(strings.TrimSpace(field)) == want {
			return i, nil
		}
	}
	return -1, fmt.Errorf("csv column not found: %s", name)
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// WriteObservationFile writes obs in the JSON layout the observation loader
// reads.
func WriteObservationFile(path string, obs model.Observation) error {
	data, err := json.MarshalIndent(obs, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
