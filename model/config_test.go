package model

import "os"
import "path/filepath"
import "testing"
import "time"

import "github.com/pkg/errors"

import "github.com/neurlang/nncli/datasets"
import "github.com/neurlang/nncli/device"
import "github.com/neurlang/nncli/tensor"

const annConfig = `{
  "mode": "train",
  "device": "cpu",
  "layersConfig": [
    {"numNeurons": 2},
    {"numNeurons": 3, "actvFunc": "relu"},
    {"numNeurons": 1, "actvFunc": "sigmoid"}
  ],
  "trainingConfig": {"numEpochs": 10, "learningRate": 0.5, "shuffle": true}
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"train": Train, "TEST": Test, "predict": Predict, "run": Predict} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	_, err := ParseMode("fit")
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Errorf("expected ConfigError, got %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "model.json", annConfig)
	cfg, err := LoadConfig(path, Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != Train || cfg.Device != device.CPU {
		t.Errorf("mode %q device %q", cfg.Mode, cfg.Device)
	}
	if cfg.InputSize() != 2 || cfg.OutputSize() != 1 {
		t.Errorf("sizes %d -> %d", cfg.InputSize(), cfg.OutputSize())
	}
	if cfg.TrainingConfig.BatchSize != 1 {
		t.Errorf("default batch size %d, want 1", cfg.TrainingConfig.BatchSize)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeFile(t, "model.json", annConfig)
	_, err := LoadConfig(path, Overrides{Mode: "predict"})
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("predict without parameters should be a ConfigError, got %v", err)
	}
	cfg, err := LoadConfig(path, Overrides{Device: "CPU"})
	if err != nil || cfg.Device != device.CPU {
		t.Errorf("device override: %v %q", err, cfg.Device)
	}
	if _, err := LoadConfig(path, Overrides{Device: "fpga"}); !errors.As(err, &ce) {
		t.Errorf("bad device should be a ConfigError, got %v", err)
	}
}

func TestLoadConfigRejectsCNN(t *testing.T) {
	path := writeFile(t, "cnn.json", `{"inputShape": {"c": 1, "h": 28, "w": 28}, "cnnLayersConfig": []}`)
	_, err := LoadConfig(path, Overrides{})
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Errorf("expected ConfigError for CNN config, got %v", err)
	}
}

func TestLoadConfigInputShape(t *testing.T) {
	path := writeFile(t, "shaped.json", `{
  "mode": "train",
  "inputShape": {"c": 1, "h": 2, "w": 3},
  "layersConfig": [{"numNeurons": 6}, {"numNeurons": 2, "actvFunc": "softmax"}],
  "trainingConfig": {"numEpochs": 1, "learningRate": 0.1}
}`)
	cfg, err := LoadConfig(path, Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InputShape == nil || *cfg.InputShape != (Shape3D{C: 1, H: 2, W: 3}) {
		t.Fatalf("inputShape %+v", cfg.InputShape)
	}

	ok := datasets.Samples{{Input: make([]float64, 6), Output: []float64{1, 0}}}
	if err := cfg.CheckInputShape(ok); err != nil {
		t.Errorf("matching sample rejected: %v", err)
	}
	short := datasets.Samples{ok[0], {Input: make([]float64, 4), Output: []float64{0, 1}}}
	if err := cfg.CheckInputShape(short); err == nil {
		t.Errorf("sample smaller than inputShape accepted")
	}
}

func TestDetectNetworkType(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want NetworkType
	}{
		{`{"layersConfig": []}`, ANN},
		{`{"inputShape": {"c": 1, "h": 28, "w": 28}}`, ANN},
		{`{"cnnLayersConfig": []}`, CNN},
		{`{"inputShape": {"c": 3, "h": 8, "w": 8}, "cnnLayersConfig": []}`, CNN},
	} {
		in, want := tc.in, tc.want
		got, err := DetectNetworkType([]byte(in))
		if err != nil || got != want {
			t.Errorf("DetectNetworkType(%s) = %q, %v; want %q", in, got, err, want)
		}
	}
}

func TestValidate(t *testing.T) {
	base := func() CoreConfig {
		return CoreConfig{
			Mode:           Train,
			LayersConfig:   []Layer{{NumNeurons: 2}, {NumNeurons: 2, ActvFunc: Softmax}},
			TrainingConfig: TrainingConfig{NumEpochs: 1, LearningRate: 0.1},
		}
	}
	var tests = []struct {
		name   string
		modify func(*CoreConfig)
	}{
		{"one layer", func(c *CoreConfig) { c.LayersConfig = c.LayersConfig[:1] }},
		{"zero neurons", func(c *CoreConfig) { c.LayersConfig[1].NumNeurons = 0 }},
		{"unknown activation", func(c *CoreConfig) { c.LayersConfig[1].ActvFunc = "swish" }},
		{"missing activation", func(c *CoreConfig) { c.LayersConfig[1].ActvFunc = "" }},
		{"hidden softmax", func(c *CoreConfig) {
			c.LayersConfig = append([]Layer{{NumNeurons: 2}, {NumNeurons: 2, ActvFunc: Softmax}}, c.LayersConfig[1:]...)
		}},
		{"zero epochs", func(c *CoreConfig) { c.TrainingConfig.NumEpochs = 0 }},
		{"zero learning rate", func(c *CoreConfig) { c.TrainingConfig.LearningRate = 0 }},
		{"negative workers", func(c *CoreConfig) { c.TrainingConfig.NumWorkers = -1 }},
		{"input shape size", func(c *CoreConfig) { c.InputShape = &Shape3D{C: 1, H: 2, W: 2} }},
		{"input shape zero", func(c *CoreConfig) { c.InputShape = &Shape3D{C: 0, H: 1, W: 2} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.modify(&c)
			if err := c.Validate(); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
	c := base()
	if err := c.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := CoreConfig{
		Mode:           Predict,
		Device:         device.CPU,
		LayersConfig:   []Layer{{NumNeurons: 2}, {NumNeurons: 1, ActvFunc: Linear}},
		TrainingConfig: TrainingConfig{NumEpochs: 3, LearningRate: 0.1, BatchSize: 1},
		Parameters: &Parameters{
			Weights: tensor.List(tensor.Matrix([][]float64{{0.5, -0.5}})),
			Biases:  tensor.List(tensor.Vector([]float64{0.25})),
		},
		TrainingMetadata: &TrainingMetadata{RunID: "run", NumSamples: 4, FinalLoss: 0.125},
	}
	path := filepath.Join(t.TempDir(), "output", "model.json")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := LoadConfig(path, Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Parameters == nil || got.Parameters.Weights.Count() != 2 || got.Parameters.Biases.Flatten()[0] != 0.25 {
		t.Errorf("parameters lost: %+v", got.Parameters)
	}
	if got.TrainingMetadata == nil || got.TrainingMetadata.RunID != "run" {
		t.Errorf("metadata lost: %+v", got.TrainingMetadata)
	}
}

func TestFormatDuration(t *testing.T) {
	var tests = []struct {
		d    time.Duration
		want string
	}{
		{850 * time.Microsecond, "850us"},
		{1500 * time.Microsecond, "1.500ms"},
		{3250 * time.Millisecond, "3.250s"},
		{2*time.Minute + 3*time.Second, "2m 03s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h 02m 03s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestNewPredictMetadata(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	md := NewPredictMetadata(start, start.Add(1500*time.Millisecond))
	if md.StartTime != "2024-01-02T03:04:05Z" || md.DurationSeconds != 1.5 || md.DurationFormatted != "1.500s" {
		t.Errorf("unexpected metadata %+v", md)
	}
}
