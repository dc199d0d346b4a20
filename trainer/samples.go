package trainer

import "github.com/pkg/errors"

import "github.com/neurlang/nncli/datasets"
import "github.com/neurlang/nncli/datasets/idx"
import "github.com/neurlang/nncli/datasets/mnist"
import "github.com/neurlang/nncli/model"

// checkSources rejects conflicting or incomplete sample options. Predict
// takes no samples, so it is only checked for conflicts.
func checkSources(o Options) error {
	sources := 0
	for _, set := range []string{o.SamplesPath, o.IdxData, o.MnistDir} {
		if set != "" {
			sources++
		}
	}
	if sources > 1 {
		return model.ConfigErrorf("cannot use more than one of -samples, -idx-data and -mnist. Choose one format")
	}
	if o.IdxData != "" && o.IdxLabels == "" {
		return model.ConfigErrorf("-idx-labels is required when using -idx-data")
	}
	if o.IdxLabels != "" && o.IdxData == "" {
		return model.ConfigErrorf("-idx-data is required when using -idx-labels")
	}
	if o.IdxClasses < 0 {
		return model.ConfigErrorf("-idx-classes must not be negative")
	}
	return nil
}

// loadSamples reads the configured sample source. It returns the path the
// default output location is derived from.
func (r *Runner) loadSamples(purpose string) (datasets.Samples, string, error) {
	o := r.opts
	var samples datasets.Samples
	var path string
	var err error

	switch {
	case o.SamplesPath != "":
		path = o.SamplesPath
		r.verbose.Printf("Loading %s samples from JSON: %s", purpose, path)
		samples, err = datasets.LoadJSON(path)

	case o.IdxData != "":
		path = o.IdxData
		r.verbose.Printf("Loading %s samples from IDX:", purpose)
		r.verbose.Printf("  Data:   %s", o.IdxData)
		r.verbose.Printf("  Labels: %s", o.IdxLabels)
		var opts []idx.Option
		if o.IdxClasses > 0 {
			opts = append(opts, idx.WithClasses(o.IdxClasses))
		}
		samples, err = idx.Decode(o.IdxData, o.IdxLabels, opts...)

	case o.MnistDir != "":
		set := mnist.Infer
		if r.cfg.Mode == model.Train {
			set = mnist.Train
		}
		var pair mnist.Pair
		if pair, err = mnist.Locate(set, o.MnistDir); err == nil {
			path = pair.Data
			r.verbose.Printf("Loading %s samples from MNIST %s set in %s", purpose, set, o.MnistDir)
			samples, err = mnist.Load(set, o.MnistDir)
		}

	default:
		return nil, "", model.ConfigErrorf("%s requires either -samples (JSON) or -idx-data and -idx-labels (IDX)", purpose)
	}
	if err != nil {
		return nil, "", err
	}
	if err := r.cfg.CheckInputShape(samples); err != nil {
		return nil, "", errors.Wrapf(err, "%s samples from %s", purpose, path)
	}
	r.verbose.Printf("Loaded %d %s samples.", len(samples), purpose)
	return samples, path, nil
}
