package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

const toyDescription = `# starts from the identity
layer
affine 0 1
meta
input 1
alpha 0.001
cst mse
`

const toyObservation = `{"inputs": [[10], [20], [25], [30]], "outputs": [22.5, 46.5, 61.1, 70]}`

func writeToyFiles(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	descPath := filepath.Join(dir, "toy.model")
	obsPath := filepath.Join(dir, "toy.json")
	if err := os.WriteFile(descPath, []byte(toyDescription), 0o644); err != nil {
		t.Fatalf("write description: %v", err)
	}
	if err := os.WriteFile(obsPath, []byte(toyObservation), 0o644); err != nil {
		t.Fatalf("write observation: %v", err)
	}
	return descPath, obsPath
}

func captureStdout(fn func() error) (string, error) {
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		return "", err
	}

	os.Stdout = w
	runErr := fn()
	_ = w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		_ = r.Close()
		return "", err
	}
	_ = r.Close()
	return buf.String(), runErr
}
