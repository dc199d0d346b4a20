package model

import "bytes"
import "encoding/json"
import "fmt"
import "os"
import "path/filepath"
import "strings"

import "github.com/pkg/errors"

import "github.com/neurlang/nncli/datasets"
import "github.com/neurlang/nncli/device"
import "github.com/neurlang/nncli/tensor"

// Mode is what a run does with the model.
type Mode string

const (
	Train   Mode = "train"
	Test    Mode = "test"
	Predict Mode = "predict"
)

// ParseMode accepts train, test, predict and run (an alias of predict).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "train":
		return Train, nil
	case "test":
		return Test, nil
	case "predict", "run":
		return Predict, nil
	}
	return "", ConfigErrorf("unknown mode %q (want train, test or predict)", s)
}

// Activation function names.
const (
	ReLU    = "relu"
	Sigmoid = "sigmoid"
	Tanh    = "tanh"
	Linear  = "linear"
	Softmax = "softmax"
)

// Layer configures one layer. The first layer is the input layer and its
// activation is ignored.
type Layer struct {
	NumNeurons int    `json:"numNeurons"`
	ActvFunc   string `json:"actvFunc,omitempty"`
}

// TrainingConfig holds the optimizer settings.
type TrainingConfig struct {
	NumEpochs    uint64  `json:"numEpochs"`
	LearningRate float64 `json:"learningRate"`
	BatchSize    int     `json:"batchSize,omitempty"`
	NumWorkers   int     `json:"numWorkers,omitempty"`
	Shuffle      bool    `json:"shuffle"`
	Seed         int64   `json:"seed,omitempty"`
}

// Parameters are the trained weights, [layer][neuron][input], and biases,
// [layer][neuron], of every layer after the input layer.
type Parameters struct {
	Weights tensor.Nested `json:"weights"`
	Biases  tensor.Nested `json:"biases"`
}

// Shape3D is the channels x height x width layout of an image input.
type Shape3D struct {
	C int `json:"c"`
	H int `json:"h"`
	W int `json:"w"`
}

// Size is the number of values in one input of this shape.
func (s Shape3D) Size() int {
	return s.C * s.H * s.W
}

func (s Shape3D) String() string {
	return fmt.Sprintf("%dx%dx%d", s.C, s.H, s.W)
}

// CoreConfig is the model file: configuration plus optional parameters.
type CoreConfig struct {
	Mode             Mode              `json:"mode,omitempty"`
	Device           device.Kind       `json:"device,omitempty"`
	InputShape       *Shape3D          `json:"inputShape,omitempty"`
	LayersConfig     []Layer           `json:"layersConfig"`
	TrainingConfig   TrainingConfig    `json:"trainingConfig"`
	Parameters       *Parameters       `json:"parameters,omitempty"`
	TrainingMetadata *TrainingMetadata `json:"trainingMetadata,omitempty"`

	Verbose bool `json:"-"`
}

// Overrides are command line values that win over the config file.
type Overrides struct {
	Mode   string
	Device string
}

// NetworkType is the engine family a config file is written for.
type NetworkType string

const (
	ANN NetworkType = "ANN"
	CNN NetworkType = "CNN"
)

// DetectNetworkType reports CNN for configs carrying "cnnLayersConfig", ANN
// otherwise. An "inputShape" without convolutional layers only describes the
// layout of the flattened input of a feed-forward network.
func DetectNetworkType(data []byte) (NetworkType, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return "", errors.Wrap(err, "parse config")
	}
	if _, ok := keys["cnnLayersConfig"]; ok {
		return CNN, nil
	}
	return ANN, nil
}

// LoadConfig reads a model file, applies the overrides and validates it.
func LoadConfig(path string, o Overrides) (CoreConfig, error) {
	var cfg CoreConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	typ, err := DetectNetworkType(data)
	if err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	if typ != ANN {
		return cfg, ConfigErrorf("config %s describes a %s network, only feed-forward (ANN) networks are supported", path, typ)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.ApplyOverrides(o); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// ApplyOverrides normalizes mode and device, letting non-empty overrides win.
// Missing values default to predict on cpu.
func (c *CoreConfig) ApplyOverrides(o Overrides) error {
	mode := string(c.Mode)
	if o.Mode != "" {
		mode = o.Mode
	}
	if mode == "" {
		mode = string(Predict)
	}
	m, err := ParseMode(mode)
	if err != nil {
		return err
	}
	c.Mode = m

	dev := string(c.Device)
	if o.Device != "" {
		dev = o.Device
	}
	k, err := device.ParseKind(dev)
	if err != nil {
		return &ConfigError{Msg: err.Error()}
	}
	c.Device = k
	return nil
}

// Validate checks the layer layout and the training settings. Zero batch size
// and worker count are replaced by their defaults.
func (c *CoreConfig) Validate() error {
	if len(c.LayersConfig) < 2 {
		return ConfigErrorf("layersConfig needs an input and at least one more layer, got %d", len(c.LayersConfig))
	}
	for i, l := range c.LayersConfig {
		if l.NumNeurons <= 0 {
			return ConfigErrorf("layer %d: numNeurons must be positive", i)
		}
		if i == 0 {
			continue
		}
		switch l.ActvFunc {
		case ReLU, Sigmoid, Tanh, Linear:
		case Softmax:
			if i != len(c.LayersConfig)-1 {
				return ConfigErrorf("layer %d: softmax is only allowed on the output layer", i)
			}
		case "":
			return ConfigErrorf("layer %d: missing actvFunc", i)
		default:
			return ConfigErrorf("layer %d: unknown actvFunc %q", i, l.ActvFunc)
		}
	}
	if sh := c.InputShape; sh != nil {
		if sh.C <= 0 || sh.H <= 0 || sh.W <= 0 {
			return ConfigErrorf("inputShape %s must have positive dimensions", sh)
		}
		if sh.Size() != c.InputSize() {
			return ConfigErrorf("inputShape %s holds %d values, the input layer has %d neurons", sh, sh.Size(), c.InputSize())
		}
	}
	t := &c.TrainingConfig
	if c.Mode == Train {
		if t.NumEpochs == 0 {
			return ConfigErrorf("trainingConfig.numEpochs must be positive")
		}
		if t.LearningRate <= 0 {
			return ConfigErrorf("trainingConfig.learningRate must be positive")
		}
	} else if c.Parameters == nil {
		return ConfigErrorf("%s mode needs a trained model with parameters", c.Mode)
	}
	if t.BatchSize <= 0 {
		t.BatchSize = 1
	}
	if t.NumWorkers < 0 {
		return ConfigErrorf("trainingConfig.numWorkers must not be negative")
	}
	return nil
}

// InputSize is the number of input neurons.
func (c CoreConfig) InputSize() int {
	return c.LayersConfig[0].NumNeurons
}

// CheckInputShape verifies that every sample input fills the configured
// inputShape. Configs without one accept any input.
func (c CoreConfig) CheckInputShape(samples datasets.Samples) error {
	if c.InputShape == nil {
		return nil
	}
	size := c.InputShape.Size()
	for i, s := range samples {
		if len(s.Input) != size {
			return errors.Errorf("sample %d has %d input values, inputShape %s needs %d", i, len(s.Input), c.InputShape, size)
		}
	}
	return nil
}

// OutputSize is the number of output neurons.
func (c CoreConfig) OutputSize() int {
	return c.LayersConfig[len(c.LayersConfig)-1].NumNeurons
}

// Save writes the config as indented JSON, creating the parent directory.
func Save(path string, c CoreConfig) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "create model directory")
		}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode model")
	}
	return errors.Wrap(os.WriteFile(path, append(data, '\n'), 0644), "write model")
}
