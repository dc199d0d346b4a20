package trainer

import "fmt"

import "github.com/pkg/errors"

func (r *Runner) test() error {
	samples, _, err := r.loadSamples("test")
	if err != nil {
		return err
	}
	r.verbose.Printf("Running evaluation...")

	result, err := r.core.Test(samples)
	if err != nil {
		return errors.Wrap(err, "test")
	}
	fmt.Fprintf(r.stdout, "\nTest Results:\n")
	fmt.Fprintf(r.stdout, "  Samples evaluated: %d\n", result.NumSamples)
	fmt.Fprintf(r.stdout, "  Total loss:        %g\n", result.TotalLoss)
	fmt.Fprintf(r.stdout, "  Average loss:      %g\n", result.AverageLoss)
	return nil
}
