package main

import "flag"
import "fmt"
import "os"

import "github.com/neurlang/nncli/trainer"

func main() {
	var opts trainer.Options
	flag.StringVar(&opts.ConfigPath, "config", "", "model JSON file (layers, training config, optional parameters)")
	flag.StringVar(&opts.Mode, "mode", "", "train, test or predict (overrides the config file)")
	flag.StringVar(&opts.Device, "device", "", "cpu or gpu (overrides the config file)")
	flag.StringVar(&opts.SamplesPath, "samples", "", "JSON samples file")
	flag.StringVar(&opts.IdxData, "idx-data", "", "IDX data file, optionally .gz")
	flag.StringVar(&opts.IdxLabels, "idx-labels", "", "IDX labels file, optionally .gz")
	flag.IntVar(&opts.IdxClasses, "idx-classes", 0, "fixed number of classes for IDX labels, 0 derives max label + 1")
	flag.StringVar(&opts.MnistDir, "mnist", "", "directory with the MNIST gz files")
	flag.StringVar(&opts.Input, "input", "", "predict input: JSON file with an input array, or comma separated values")
	flag.StringVar(&opts.Output, "output", "", "output file (defaults next to the input, in output/)")
	flag.BoolVar(&opts.Verbose, "verbose", false, "print what is being loaded and run")
	flag.IntVar(&opts.ProgressSteps, "progress-steps", 0, "maximum progress redraws per epoch (default 100)")
	flag.IntVar(&opts.BarWidth, "bar-width", 0, "progress bar width (default 50, fitted to the terminal)")
	pgo := flag.Bool("pgo", false, "write a CPU profile to default.pgo")
	flag.Parse()

	stop := func() {}
	if *pgo {
		stop = startProfile()
	}
	err := run(opts)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts trainer.Options) error {
	r, err := trainer.New(opts, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	return r.Run()
}
