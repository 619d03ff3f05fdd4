package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"fdnet/internal/dataextract"
)

func runDataExtract(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("data-extract", flag.ContinueOnError)
	inputPath := fs.String("in", "", "input CSV path")
	outputPath := fs.String("out", "", "output observation JSON path")
	hasHeader := fs.Bool("has-header", true, "input CSV has header row")
	inputCols := fs.String("input-cols", "", "comma-separated input column names")
	outputCols := fs.String("output-cols", "", "comma-separated target column names")
	inputIndexes := fs.String("input-indexes", "", "comma-separated input column indexes")
	outputIndexes := fs.String("output-indexes", "", "comma-separated target column indexes")
	delimiter := fs.String("delimiter", ",", "field delimiter")
	normalize := fs.String("normalize", "none", "input normalization: none|minmax|zscore|max")
	showStats := fs.Bool("stats", false, "print per-input-column min/avg/max/std")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inputPath == "" {
		return errors.New("in is required")
	}
	if *outputPath == "" && !*showStats {
		return errors.New("out is required unless --stats is set")
	}
	if len([]rune(*delimiter)) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", *delimiter)
	}

	inIdx, err := parseIndexList(*inputIndexes)
	if err != nil {
		return fmt.Errorf("input-indexes: %w", err)
	}
	outIdx, err := parseIndexList(*outputIndexes)
	if err != nil {
		return fmt.Errorf("output-indexes: %w", err)
	}

	in, err := os.Open(*inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	obs, err := dataextract.ExtractObservationCSV(in, dataextract.CSVOptions{
		HasHeader:     *hasHeader,
		InputCols:     parseNameList(*inputCols),
		OutputCols:    parseNameList(*outputCols),
		InputIndexes:  inIdx,
		OutputIndexes: outIdx,
		Comma:         []rune(*delimiter)[0],
	})
	if err != nil {
		return err
	}
	if err := dataextract.NormalizeInputs(&obs, *normalize); err != nil {
		return err
	}

	if *showStats {
		stats, err := dataextract.InputColumnStats(obs)
		if err != nil {
			return err
		}
		for i, s := range stats {
			fmt.Printf("column=%d min=%.9g avg=%.9g max=%.9g std=%.9g\n", i, s.Min, s.Avg, s.Max, s.Std)
		}
	}
	if *outputPath != "" {
		if err := dataextract.WriteObservationFile(*outputPath, obs); err != nil {
			return err
		}
		fmt.Printf("extracted examples=%d to=%s\n", len(obs.Inputs), *outputPath)
	}
	return nil
}

func parseNameList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func parseIndexList(raw string) ([]int, error) {
	names := parseNameList(raw)
	if names == nil {
		return nil, nil
	}
	out := make([]int, len(names))
	for i, name := range names {
		idx, err := strconv.Atoi(name)
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}
