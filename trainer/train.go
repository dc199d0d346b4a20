package trainer

import "fmt"
import "log"
import "path/filepath"

import "github.com/google/uuid"
import "github.com/pkg/errors"

import "github.com/neurlang/nncli/model"
import "github.com/neurlang/nncli/progress"

// newBar fits the bar to the terminal; explicit flags win.
func (r *Runner) newBar() *progress.Bar {
	opts := progress.TerminalOptions(r.stdout)
	if r.opts.BarWidth > 0 {
		opts = append(opts, progress.WithWidth(r.opts.BarWidth))
	}
	if r.opts.ProgressSteps > 0 {
		opts = append(opts, progress.WithSteps(r.opts.ProgressSteps))
	}
	opts = append(opts, progress.WithLogger(log.New(r.stderr, "", 0)))
	return progress.New(r.stdout, opts...)
}

func signal(p model.TrainingProgress) progress.Signal {
	return progress.Signal{
		CurrentEpoch:  p.CurrentEpoch,
		TotalEpochs:   p.TotalEpochs,
		CurrentSample: p.CurrentSample,
		TotalSamples:  p.TotalSamples,
		EpochLoss:     p.EpochLoss,
		SampleLoss:    p.SampleLoss,
		WorkerIndex:   p.WorkerIndex,
		TotalWorkers:  p.TotalWorkers,
	}
}

func (r *Runner) train() error {
	samples, input, err := r.loadSamples("training")
	if err != nil {
		return err
	}
	r.verbose.Printf("Starting training...")

	bar := r.newBar()
	bar.Reset()
	r.core.SetTrainingCallback(func(p model.TrainingProgress) {
		bar.Update(signal(p))
	})
	if err := r.core.Train(samples); err != nil {
		return errors.Wrap(err, "train")
	}
	fmt.Fprintln(r.stdout, "\nTraining completed.")

	cfg := r.core.Config()
	md := r.core.TrainingMetadata()
	md.RunID = uuid.New().String()
	cfg.TrainingMetadata = &md

	path := r.opts.Output
	if path == "" {
		dir, err := outputDir(input)
		if err != nil {
			return err
		}
		path = filepath.Join(dir, trainingFilename(cfg.TrainingConfig.NumEpochs, md.NumSamples, md.FinalLoss))
	}
	if err := model.Save(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(r.stdout, "Model saved to: %s\n", path)
	return nil
}
