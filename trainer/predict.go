package trainer

import "fmt"
import "os"
import "path/filepath"
import "strings"

import "github.com/pkg/errors"

import "github.com/neurlang/nncli/datasets"
import "github.com/neurlang/nncli/model"

type predictResult struct {
	PredictMetadata model.PredictMetadata `json:"predictMetadata"`
	Output          []float64             `json:"output"`
}

// loadInput reads -input as a JSON file when such a file exists, and as comma
// separated values otherwise. It returns the default output path.
func (r *Runner) loadInput() ([]float64, string, error) {
	in := r.opts.Input
	if st, err := os.Stat(in); err == nil && !st.IsDir() {
		r.verbose.Printf("Loading input from: %s", in)
		values, err := datasets.LoadInput(in)
		if err != nil {
			return nil, "", err
		}
		dir, err := outputDir(in)
		if err != nil {
			return nil, "", err
		}
		return values, filepath.Join(dir, predictFilename(in)), nil
	}
	values, err := datasets.ParseInput(in)
	if err != nil {
		return nil, "", errors.Wrap(err, "-input is neither a file nor comma separated values")
	}
	return values, filepath.Join("output", "predict_input.json"), nil
}

func (r *Runner) predict() error {
	input, path, err := r.loadInput()
	if err != nil {
		return err
	}
	if r.opts.Output != "" {
		path = r.opts.Output
	}
	if r.cfg.Verbose {
		values := make([]string, len(input))
		for i, v := range input {
			values[i] = fmt.Sprint(v)
		}
		r.verbose.Printf("Running with input: %s", strings.Join(values, ", "))
	}

	output, err := r.core.Predict(input)
	if err != nil {
		return errors.Wrap(err, "predict")
	}
	result := predictResult{
		PredictMetadata: r.core.PredictMetadata(),
		Output:          output,
	}
	if err := writeJSON(path, result); err != nil {
		return err
	}
	fmt.Fprintf(r.stdout, "Predict result saved to: %s\n", path)
	return nil
}
