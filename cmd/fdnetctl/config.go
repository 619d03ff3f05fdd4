package main

import (
	"encoding/json"
	"fmt"
	"os"

	"fdnet/pkg/fdnet"
)

func loadTrainRequestFromConfig(path string) (fdnet.TrainRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fdnet.TrainRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fdnet.TrainRequest{}, err
	}

	var req fdnet.TrainRequest
	if v, ok := asString(raw["model"]); ok {
		req.DescriptionPath = v
	}
	if v, ok := asString(raw["observation"]); ok {
		req.ObservationPath = v
	}
	if v, ok := asString(raw["name"]); ok {
		req.Name = v
	}
	if v, ok := asInt(raw["iterations"]); ok {
		req.Iterations = v
	}
	if v, ok := asFloat64(raw["tolerance"]); ok {
		req.Tolerance = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		req.Workers = v
	}
	if v, ok := asString(raw["artifacts_dir"]); ok {
		req.ArtifactsDir = v
	}
	if v, ok := asString(raw["out_model"]); ok {
		req.OutputModelPath = v
	}
	return req, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

// overrideFromFlags applies only the flags that were set explicitly.
func overrideFromFlags(req *fdnet.TrainRequest, set map[string]bool, flagValue map[string]any) {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "model":
			req.DescriptionPath = v.(string)
		case "obs":
			req.ObservationPath = v.(string)
		case "name":
			req.Name = v.(string)
		case "iters":
			req.Iterations = v.(int)
		case "tolerance":
			req.Tolerance = v.(float64)
		case "workers":
			req.Workers = v.(int)
		case "artifacts-dir":
			req.ArtifactsDir = v.(string)
		case "out-model":
			req.OutputModelPath = v.(string)
		}
	}
}

func loadOrDefaultTrainRequest(configPath string) (fdnet.TrainRequest, error) {
	if configPath == "" {
		return fdnet.TrainRequest{}, nil
	}
	req, err := loadTrainRequestFromConfig(configPath)
	if err != nil {
		return fdnet.TrainRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}
