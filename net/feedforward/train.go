package feedforward

import "time"

import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/nncli/datasets"
import "github.com/neurlang/nncli/device"
import "github.com/neurlang/nncli/model"
import "github.com/neurlang/nncli/parallel"

// gradients is one worker's accumulator for a batch.
type gradients struct {
	w []*mat.Dense
	b []*mat.VecDense
}

func (f *FeedforwardNetwork) newGradients() *gradients {
	g := &gradients{
		w: make([]*mat.Dense, len(f.weights)),
		b: make([]*mat.VecDense, len(f.biases)),
	}
	for l, w := range f.weights {
		r, c := w.Dims()
		g.w[l] = mat.NewDense(r, c, nil)
		g.b[l] = mat.NewVecDense(r, nil)
	}
	return g
}

func (g *gradients) zero() {
	for l := range g.w {
		g.w[l].Zero()
		g.b[l].Zero()
	}
}

// backprop adds the gradient of one sample to g and returns its loss.
func (f *FeedforwardNetwork) backprop(s datasets.Sample, g *gradients) float64 {
	zs, as := f.forward(s.Input)
	last := len(f.weights) - 1
	out := as[last+1]
	loss := f.loss(out, s.Output)

	n := out.Len()
	delta := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		d := out.AtVec(i) - s.Output[i]
		if !f.softmaxOutput() {
			d *= 2 / float64(n) * derivative(f.actv[last], zs[last].AtVec(i), out.AtVec(i))
		}
		delta.SetVec(i, d)
	}

	for l := last; l >= 0; l-- {
		g.w[l].RankOne(g.w[l], 1, delta, as[l])
		g.b[l].AddVec(g.b[l], delta)
		if l == 0 {
			break
		}
		prev := mat.NewVecDense(as[l].Len(), nil)
		prev.MulVec(f.weights[l].T(), delta)
		for i := 0; i < prev.Len(); i++ {
			prev.SetVec(i, prev.AtVec(i)*derivative(f.actv[l-1], zs[l-1].AtVec(i), as[l].AtVec(i)))
		}
		delta = prev
	}
	return loss
}

// apply averages the worker gradients over the batch and takes one step.
func (f *FeedforwardNetwork) apply(grads []*gradients, batch int) {
	rate := f.cfg.TrainingConfig.LearningRate / float64(batch)
	sum := grads[0]
	for _, g := range grads[1:] {
		for l := range sum.w {
			sum.w[l].Add(sum.w[l], g.w[l])
			sum.b[l].AddVec(sum.b[l], g.b[l])
		}
	}
	for l := range f.weights {
		sum.w[l].Scale(rate, sum.w[l])
		f.weights[l].Sub(f.weights[l], sum.w[l])
		f.biases[l].AddScaledVec(f.biases[l], -rate, sum.b[l])
	}
}

type workerState struct {
	samples uint64
	loss    float64
}

// Train runs mini-batch gradient descent. Every batch is split between the
// workers, position i of the batch going to worker i % workers; the workers
// run in parallel and the step is taken once all of them finished the batch.
func (f *FeedforwardNetwork) Train(samples datasets.Samples) error {
	if err := f.checkSamples(samples); err != nil {
		return err
	}
	tc := f.cfg.TrainingConfig
	batch := tc.BatchSize
	workers := f.workers(len(samples))
	totals := shardTotals(len(samples), batch, workers)
	callback := f.callback

	grads := make([]*gradients, workers)
	for w := range grads {
		grads[w] = f.newGradients()
	}

	start := time.Now()
	var final float64
	for epoch := uint64(1); epoch <= tc.NumEpochs; epoch++ {
		order := f.order(samples)
		state := make([]workerState, workers)

		for begin := 0; begin < len(order); begin += batch {
			end := min(begin+batch, len(order))
			parallel.ForEach(workers, workers, func(w int) {
				g, st := grads[w], &state[w]
				g.zero()
				for i := begin + w; i < end; i += workers {
					loss := f.backprop(samples[order[i]], g)
					st.samples++
					st.loss += loss
					if callback != nil {
						callback(model.TrainingProgress{
							CurrentEpoch:  epoch,
							TotalEpochs:   tc.NumEpochs,
							CurrentSample: st.samples,
							TotalSamples:  totals[w],
							EpochLoss:     st.loss,
							SampleLoss:    loss,
							WorkerIndex:   w,
							TotalWorkers:  workers,
						})
					}
				}
			})
			f.apply(grads, end-begin)
		}

		var sum float64
		for _, st := range state {
			sum += st.loss
		}
		final = sum / float64(len(samples))
	}

	md := model.NewTrainingMetadata(start, time.Now(), uint64(len(samples)), final)
	f.mut.Lock()
	f.trainMeta = md
	f.trained = true
	f.mut.Unlock()
	return nil
}

// Test evaluates the loss over the samples, split between the workers.
func (f *FeedforwardNetwork) Test(samples datasets.Samples) (model.TestResult, error) {
	if err := f.checkSamples(samples); err != nil {
		return model.TestResult{}, err
	}
	ranges := parallel.Split(len(samples), device.Workers(f.devices, f.cfg.TrainingConfig.NumWorkers))
	losses := make([]float64, len(ranges))
	parallel.ForEach(len(ranges), len(ranges), func(p int) {
		for i := ranges[p].Begin; i < ranges[p].End; i++ {
			_, as := f.forward(samples[i].Input)
			losses[p] += f.loss(as[len(as)-1], samples[i].Output)
		}
	})
	var total float64
	for _, l := range losses {
		total += l
	}
	return model.TestResult{
		NumSamples:  uint64(len(samples)),
		TotalLoss:   total,
		AverageLoss: total / float64(len(samples)),
	}, nil
}
