package trainer

import "encoding/json"
import "fmt"
import "os"
import "path/filepath"
import "strings"

import "github.com/pkg/errors"

// outputDir is the "output" directory next to the input file.
func outputDir(input string) (string, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", errors.Wrap(err, "resolve input path")
	}
	return filepath.Join(filepath.Dir(abs), "output"), nil
}

// trainingFilename names a trained model after its run.
func trainingFilename(epochs, samples uint64, loss float64) string {
	return fmt.Sprintf("trained_model_%d_%d_%.6f.json", epochs, samples, loss)
}

// predictFilename strips the last extension of the input file name.
func predictFilename(input string) string {
	base := filepath.Base(input)
	return "predict_" + strings.TrimSuffix(base, filepath.Ext(base)) + ".json"
}

// writeJSON writes v as indented JSON, creating the parent directory.
func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode output")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.Wrapf(err, "failed to open output file: %s", path)
	}
	return nil
}
