// Package feedforward implements a dense feedforward network trained by
// mini-batch gradient descent on one worker per compute device.
package feedforward

import "math"
import "math/rand"
import "sync"
import "time"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/nncli/datasets"
import "github.com/neurlang/nncli/device"
import "github.com/neurlang/nncli/model"

// FeedforwardNetwork is the feedforward network
type FeedforwardNetwork struct {
	cfg     model.CoreConfig
	devices []device.Device

	// weights[l] maps the output of layer l to layer l+1, one row per neuron
	weights []*mat.Dense
	biases  []*mat.VecDense
	actv    []string

	rng      *rand.Rand
	callback func(model.TrainingProgress)

	mut         sync.Mutex
	trainMeta   model.TrainingMetadata
	predictMeta model.PredictMetadata
	trained     bool
}

var _ model.Core = (*FeedforwardNetwork)(nil)

// New builds a network from the config. Parameters in the config are loaded,
// otherwise the weights are initialized randomly from the configured seed.
func New(cfg model.CoreConfig, devices []device.Device) (*FeedforwardNetwork, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.TrainingConfig.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	f := &FeedforwardNetwork{
		cfg:     cfg,
		devices: devices,
		rng:     rand.New(rand.NewSource(seed)),
	}
	for l := 1; l < len(cfg.LayersConfig); l++ {
		f.actv = append(f.actv, cfg.LayersConfig[l].ActvFunc)
	}
	if cfg.Parameters != nil {
		if err := f.setParameters(*cfg.Parameters); err != nil {
			return nil, err
		}
	} else {
		f.initialize()
	}
	return f, nil
}

// initialize draws He (relu) or Xavier weights, biases start at zero.
func (f *FeedforwardNetwork) initialize() {
	layers := f.cfg.LayersConfig
	f.weights = make([]*mat.Dense, len(layers)-1)
	f.biases = make([]*mat.VecDense, len(layers)-1)
	for l := range f.weights {
		in, out := layers[l].NumNeurons, layers[l+1].NumNeurons
		scale := math.Sqrt(1 / float64(in))
		if f.actv[l] == model.ReLU {
			scale = math.Sqrt(2 / float64(in))
		}
		data := make([]float64, out*in)
		for i := range data {
			data[i] = f.rng.NormFloat64() * scale
		}
		f.weights[l] = mat.NewDense(out, in, data)
		f.biases[l] = mat.NewVecDense(out, nil)
	}
}

// Len returns the number of trainable parameters.
func (f *FeedforwardNetwork) Len() (o int) {
	for l := range f.weights {
		r, c := f.weights[l].Dims()
		o += r*c + f.biases[l].Len()
	}
	return
}

// LenLayers returns the number of layers, the input layer included.
func (f *FeedforwardNetwork) LenLayers() int {
	return len(f.cfg.LayersConfig)
}

// forward returns the pre-activations z[l] and outputs a[l] of every layer.
// a[0] is the input.
func (f *FeedforwardNetwork) forward(input []float64) (zs, as []*mat.VecDense) {
	a := mat.NewVecDense(len(input), append([]float64(nil), input...))
	as = append(as, a)
	for l, w := range f.weights {
		rows, _ := w.Dims()
		z := mat.NewVecDense(rows, nil)
		z.MulVec(w, a)
		z.AddVec(z, f.biases[l])
		a = activate(f.actv[l], z)
		zs = append(zs, z)
		as = append(as, a)
	}
	return zs, as
}

// softmaxOutput reports whether the loss is cross-entropy instead of MSE.
func (f *FeedforwardNetwork) softmaxOutput() bool {
	return f.actv[len(f.actv)-1] == model.Softmax
}

// loss compares the network output with the expected output.
func (f *FeedforwardNetwork) loss(out *mat.VecDense, expected []float64) float64 {
	var sum float64
	if f.softmaxOutput() {
		for i, y := range expected {
			if y != 0 {
				sum -= y * math.Log(math.Max(out.AtVec(i), 1e-12))
			}
		}
		return sum
	}
	for i, y := range expected {
		d := out.AtVec(i) - y
		sum += d * d
	}
	return sum / float64(len(expected))
}

func (f *FeedforwardNetwork) checkInput(input []float64) error {
	if n := f.cfg.InputSize(); len(input) != n {
		return errors.Errorf("input has %d values, the network expects %d", len(input), n)
	}
	return nil
}

func (f *FeedforwardNetwork) checkSamples(samples datasets.Samples) error {
	if len(samples) == 0 {
		return errors.New("no samples")
	}
	in, out := f.cfg.InputSize(), f.cfg.OutputSize()
	for i, s := range samples {
		if len(s.Input) != in || len(s.Output) != out {
			return errors.Errorf("sample %d has shape %d -> %d, the network expects %d -> %d",
				i, len(s.Input), len(s.Output), in, out)
		}
	}
	return nil
}

// workers is the number of training workers: one per device, never more than
// the batch or the dataset.
func (f *FeedforwardNetwork) workers(samples int) int {
	n := device.Workers(f.devices, f.cfg.TrainingConfig.NumWorkers)
	return max(1, min(n, f.cfg.TrainingConfig.BatchSize, samples))
}

// Predict computes the network output for one input.
func (f *FeedforwardNetwork) Predict(input []float64) ([]float64, error) {
	if err := f.checkInput(input); err != nil {
		return nil, err
	}
	start := time.Now()
	_, as := f.forward(input)
	out := append([]float64(nil), as[len(as)-1].RawVector().Data...)
	md := model.NewPredictMetadata(start, time.Now())

	f.mut.Lock()
	f.predictMeta = md
	f.mut.Unlock()
	return out, nil
}

// PredictMetadata describes the latest Predict call.
func (f *FeedforwardNetwork) PredictMetadata() model.PredictMetadata {
	f.mut.Lock()
	defer f.mut.Unlock()
	return f.predictMeta
}

// TrainingMetadata describes the latest Train call.
func (f *FeedforwardNetwork) TrainingMetadata() model.TrainingMetadata {
	f.mut.Lock()
	defer f.mut.Unlock()
	return f.trainMeta
}

// SetTrainingCallback registers fn. Workers call it concurrently.
func (f *FeedforwardNetwork) SetTrainingCallback(fn func(model.TrainingProgress)) {
	f.callback = fn
}

// Config returns the configuration with the current parameters, and the
// training metadata once the network was trained.
func (f *FeedforwardNetwork) Config() model.CoreConfig {
	cfg := f.cfg
	p := f.parameters()
	cfg.Parameters = &p
	f.mut.Lock()
	if f.trained {
		md := f.trainMeta
		cfg.TrainingMetadata = &md
	}
	f.mut.Unlock()
	return cfg
}
