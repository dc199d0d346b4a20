// Package datasets implements the sample types consumed by the training engine
package datasets

import "math/rand"

// Sample is one training example. Input values are normalized, Output is the
// expected network output (one-hot for classification datasets).
type Sample struct {
	Input  []float64 `json:"input"`
	Output []float64 `json:"output"`
}

// Samples is an ordered dataset. Loaders preserve file order.
type Samples []Sample

// InputSize reports the input length of the first sample, 0 if empty.
func (s Samples) InputSize() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0].Input)
}

// OutputSize reports the output length of the first sample, 0 if empty.
func (s Samples) OutputSize() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0].Output)
}

// Order returns the sample indexes, shuffled when rng is not nil. The dataset
// itself is never reordered.
func (s Samples) Order(rng *rand.Rand) (o []int) {
	o = make([]int, len(s))
	for i := range o {
		o[i] = i
	}
	if rng != nil {
		rng.Shuffle(len(o), func(i, j int) { o[i], o[j] = o[j], o[i] })
	}
	return o
}
