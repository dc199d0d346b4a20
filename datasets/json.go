package datasets

import "encoding/json"
import "os"
import "strconv"
import "strings"

import "github.com/pkg/errors"

type samplesFile struct {
	Samples Samples `json:"samples"`
}

type inputFile struct {
	Input []float64 `json:"input"`
}

// LoadJSON reads samples stored as {"samples":[{"input":[..],"output":[..]}]}
func LoadJSON(path string) (Samples, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read samples file")
	}
	var f samplesFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parse samples file %s", path)
	}
	if f.Samples == nil {
		return nil, errors.Errorf("samples file %s has no \"samples\" array", path)
	}
	for i, s := range f.Samples {
		if len(s.Input) != f.Samples.InputSize() || len(s.Output) != f.Samples.OutputSize() {
			return nil, errors.Errorf("samples file %s: sample %d has a different shape", path, i)
		}
	}
	return f.Samples, nil
}

// LoadInput reads a single network input stored as {"input":[..]}
func LoadInput(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read input file")
	}
	var f inputFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parse input file %s", path)
	}
	if len(f.Input) == 0 {
		return nil, errors.Errorf("input file %s has an empty \"input\" array", path)
	}
	return f.Input, nil
}

// ParseInput parses comma separated input values, e.g. "0.5, 1, 0"
func ParseInput(values string) ([]float64, error) {
	var out []float64
	for _, field := range strings.Split(values, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "input value %q", field)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, errors.New("no input values")
	}
	return out, nil
}
