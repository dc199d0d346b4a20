// Package parallel runs loop bodies on a bounded number of goroutines.
package parallel

import "sync"

// ForEach calls body for every i in [0, length) using at most limit
// goroutines at a time, and returns once all calls have finished.
func ForEach(length, limit int, body func(i int)) {
	if limit <= 0 {
		limit = 1
	}
	if length <= 0 {
		return
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	wg.Add(length)

	for i := 0; i < length; i++ {
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			body(i)
		}(i)
	}

	wg.Wait()
}

// Range is the half open interval [Begin, End).
type Range struct {
	Begin, End int
}

// Len is the number of indexes in the range.
func (r Range) Len() int {
	return r.End - r.Begin
}

// Split divides [0, length) into parts contiguous ranges whose lengths differ
// by at most one. Earlier ranges are the longer ones.
func Split(length, parts int) []Range {
	if parts <= 0 {
		parts = 1
	}
	out := make([]Range, parts)
	size, rest := length/parts, length%parts
	begin := 0
	for p := range out {
		n := size
		if p < rest {
			n++
		}
		out[p] = Range{begin, begin + n}
		begin += n
	}
	return out
}

// Strided reports how many of the indexes [0, length) fall to worker w when
// index i is handled by worker i % workers.
func Strided(length, workers, w int) int {
	if w >= length || workers <= 0 {
		return 0
	}
	return (length - w + workers - 1) / workers
}
