// Package checkpoint persists trained classifier weights as JSON, so the
// model behind a finished trial can be reloaded and evaluated later.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"cipherprobe/tensor"
)

const version = "1"

type tensorData struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

type snapshot struct {
	Version string                `json:"version"`
	Layers  map[string]tensorData `json:"layers"`
}

// Save writes the weights to path, creating parent directories as needed.
func Save(path string, weights map[string]*tensor.Tensor) error {
	snap := snapshot{Version: version, Layers: map[string]tensorData{}}
	for name, t := range weights {
		snap.Layers[name] = tensorData{
			Shape: append([]int(nil), t.Shape...),
			Data:  append([]float64(nil), t.Data...),
		}
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding weights: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, raw, 0o644)
}

// Load reads weights written by Save.
func Load(path string) (map[string]*tensor.Tensor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if snap.Version != version {
		return nil, fmt.Errorf("unsupported checkpoint version %q in %s", snap.Version, path)
	}
	out := make(map[string]*tensor.Tensor, len(snap.Layers))
	for name, td := range snap.Layers {
		t := tensor.New(td.Shape...)
		if len(td.Data) != t.Size() {
			return nil, fmt.Errorf("parameter %q: %d values for shape %v", name, len(td.Data), td.Shape)
		}
		copy(t.Data, td.Data)
		out[name] = t
	}
	return out, nil
}
