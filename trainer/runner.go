package trainer

import "io"
import "log"
import "strings"

import "github.com/pkg/errors"

import "github.com/neurlang/nncli/device"
import "github.com/neurlang/nncli/model"
import "github.com/neurlang/nncli/net/feedforward"

// Options are the command line inputs of one run.
type Options struct {
	ConfigPath string

	// Mode and Device override the config file when set.
	Mode   string
	Device string

	// Sample sources: a JSON samples file, an IDX pair, or a directory with
	// the MNIST gz files. They are mutually exclusive.
	SamplesPath string
	IdxData     string
	IdxLabels   string
	IdxClasses  int
	MnistDir    string

	// Input is a JSON input file or comma separated values for predict.
	Input  string
	Output string

	Verbose       bool
	ProgressSteps int
	BarWidth      int
}

// NewCore builds the engine for a config.
var NewCore = func(cfg model.CoreConfig, devices []device.Device) (model.Core, error) {
	return feedforward.New(cfg, devices)
}

// Runner executes one run.
type Runner struct {
	opts    Options
	stdout  io.Writer
	stderr  io.Writer
	verbose *log.Logger

	cfg     model.CoreConfig
	devices []device.Device
	core    model.Core
}

// New validates the options, loads the config and builds the engine. Option
// conflicts are reported as *model.ConfigError before anything is loaded.
func New(opts Options, stdout, stderr io.Writer) (*Runner, error) {
	r := &Runner{
		opts:    opts,
		stdout:  stdout,
		stderr:  stderr,
		verbose: log.New(io.Discard, "", 0),
	}
	if opts.Verbose {
		r.verbose = log.New(stdout, "", 0)
	}
	if opts.ConfigPath == "" {
		return nil, model.ConfigErrorf("-config is required")
	}
	if err := checkSources(opts); err != nil {
		return nil, err
	}

	r.verbose.Printf("Network type: %s", model.ANN)
	r.verbose.Printf("Loading configuration from: %s", opts.ConfigPath)
	r.verbose.Printf("Mode: %s, Device: %s", overridden(opts.Mode), overridden(opts.Device))

	cfg, err := model.LoadConfig(opts.ConfigPath, model.Overrides{Mode: opts.Mode, Device: opts.Device})
	if err != nil {
		return nil, err
	}
	cfg.Verbose = opts.Verbose
	if cfg.Mode == model.Predict && opts.Input == "" {
		return nil, model.ConfigErrorf("-input option is required for predict mode")
	}
	if cfg.Mode != model.Predict && opts.SamplesPath == "" && opts.IdxData == "" && opts.MnistDir == "" {
		return nil, model.ConfigErrorf("%s requires either -samples (JSON) or -idx-data and -idx-labels (IDX)", purpose(cfg.Mode))
	}
	r.cfg = cfg

	r.devices, err = device.Detect(cfg.Device)
	if err != nil {
		return nil, err
	}
	for _, d := range r.devices {
		r.verbose.Printf("Device: %s", d)
	}
	if cfg.Device == device.CPU {
		r.verbose.Printf("Vectorized host: %v", device.Vectorized())
	}
	if cfg.Mode == model.Train && cfg.Parameters != nil {
		r.verbose.Printf("Resuming training from the parameters in %s", opts.ConfigPath)
	}

	r.core, err = NewCore(cfg, r.devices)
	if err != nil {
		return nil, errors.Wrap(err, "build network")
	}
	return r, nil
}

func purpose(m model.Mode) string {
	if m == model.Train {
		return "training"
	}
	return string(m)
}

func overridden(v string) string {
	if v == "" {
		return "from config file"
	}
	return strings.ToLower(v) + " (CLI)"
}

// Mode is the effective mode after overrides.
func (r *Runner) Mode() model.Mode {
	return r.cfg.Mode
}

// Run trains, tests or predicts depending on the mode.
func (r *Runner) Run() error {
	switch r.cfg.Mode {
	case model.Train:
		return r.train()
	case model.Test:
		return r.test()
	}
	return r.predict()
}
