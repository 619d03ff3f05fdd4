package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// UnitSpec describes one computational unit as it appears in a description file.
type UnitSpec struct {
	Kind    string    `json:"kind"`
	Bias    float64   `json:"bias"`
	Weights []float64 `json:"weights"`
}

type LayerSpec struct {
	Units []UnitSpec `json:"units"`
}

type Meta struct {
	Inputs int     `json:"inputs"`
	Alpha  float64 `json:"alpha"`
	Cost   string  `json:"cost"`
}

// Topology is the fully constructed network shape with initial parameters.
type Topology struct {
	Layers []LayerSpec `json:"layers"`
	Meta   Meta        `json:"meta"`
}

// Observation pairs ordered input vectors with ordered target vectors.
type Observation struct {
	Inputs  [][]float64 `json:"inputs"`
	Outputs [][]float64 `json:"outputs"`
}

type ModelRecord struct {
	VersionedRecord
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Topology  Topology `json:"topology"`
	CreatedAt string   `json:"created_at_utc"`
}

type RunRecord struct {
	VersionedRecord
	ID         string    `json:"id"`
	ModelID    string    `json:"model_id"`
	Iterations int       `json:"iterations"`
	Step       float64   `json:"step"`
	Workers    int       `json:"workers"`
	ColumnLens []int     `json:"column_lengths"`
	Params     []float64 `json:"params"`
	FinalLoss  float64   `json:"final_loss"`
	CreatedAt  string    `json:"created_at_utc"`
}
