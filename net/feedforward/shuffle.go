package feedforward

import "math/rand"

import "github.com/neurlang/nncli/datasets"
import "github.com/neurlang/nncli/parallel"

// order is the sample visiting order of one epoch, reshuffled every epoch
// when the config asks for it.
func (f *FeedforwardNetwork) order(samples datasets.Samples) []int {
	var rng *rand.Rand
	if f.cfg.TrainingConfig.Shuffle {
		rng = f.rng
	}
	return samples.Order(rng)
}

// shardTotals counts the samples each worker handles in one epoch. Inside a
// batch, position i goes to worker i % workers.
func shardTotals(samples, batch, workers int) []uint64 {
	totals := make([]uint64, workers)
	for begin := 0; begin < samples; begin += batch {
		length := min(batch, samples-begin)
		for w := range totals {
			totals[w] += uint64(parallel.Strided(length, workers, w))
		}
	}
	return totals
}
