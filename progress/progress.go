// Package progress renders training progress reported by concurrent workers.
//
// A Bar is shared by every training worker. Each worker calls Update with a
// Signal snapshot; the Bar keeps the latest fraction per worker and redraws
// the display at a throttled rate. State changes and rendering happen under
// one mutex, so concurrent workers never interleave their output.
package progress

import "io"
import "log"
import "math"
import "os"
import "sync"

// DefaultBarWidth is the number of characters inside the brackets.
const DefaultBarWidth = 50

// DefaultSteps is how many times per epoch the display is redrawn at most,
// not counting the first and the final render of an epoch.
const DefaultSteps = 100

// Signal is a snapshot of one worker's progress.
type Signal struct {
	CurrentEpoch  uint64
	TotalEpochs   uint64
	CurrentSample uint64
	TotalSamples  uint64
	EpochLoss     float64 // cumulative loss of the worker in this epoch
	SampleLoss    float64 // loss of the latest sample
	WorkerIndex   int
	TotalWorkers  int
}

// Bar aggregates signals from concurrent workers and renders them.
type Bar struct {
	mut sync.Mutex

	out    io.Writer
	width  int
	steps  uint64
	logger *log.Logger
	style  *style

	// per worker fraction 0.0 - 1.0
	workers      []float64
	// per worker cumulative loss and sample count of the epoch
	losses       []float64
	samples      []uint64
	totalWorkers int
	epoch        uint64
	started      bool

	// throttling
	lastSample uint64
	completed  bool
	warned     bool
}

// Option configures a Bar.
type Option func(*Bar)

// WithWidth sets the bar width in characters.
func WithWidth(width int) Option {
	return func(b *Bar) {
		if width > 0 {
			b.width = width
		}
	}
}

// WithSteps sets the maximum number of intermediate renders per epoch.
func WithSteps(steps int) Option {
	return func(b *Bar) {
		if steps > 0 {
			b.steps = uint64(steps)
		}
	}
}

// WithLogger sets where render failures are reported.
func WithLogger(l *log.Logger) Option {
	return func(b *Bar) {
		b.logger = l
	}
}

// WithStyle colors the bar using the terminal capabilities of the output.
func WithStyle() Option {
	return func(b *Bar) {
		b.style = newStyle(b.out)
	}
}

// New creates a Bar that renders to out.
func New(out io.Writer, opts ...Option) *Bar {
	b := &Bar{
		out:    out,
		width:  DefaultBarWidth,
		steps:  DefaultSteps,
		logger: log.New(os.Stderr, "", 0),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Reset forgets all workers, the epoch and the throttling state. Call it before
// starting a new training run.
func (b *Bar) Reset() {
	b.mut.Lock()
	defer b.mut.Unlock()

	b.workers = nil
	b.losses = nil
	b.samples = nil
	b.totalWorkers = 0
	b.epoch = 0
	b.started = false
	b.lastSample = 0
	b.completed = false
}

// Update records the signal and renders if the throttling policy allows it.
// It is safe for concurrent use. Signals with a worker index outside
// [0, TotalWorkers) are ignored.
func (b *Bar) Update(s Signal) {
	total := s.TotalWorkers
	if total <= 0 {
		total = 1
	}
	if s.WorkerIndex < 0 || s.WorkerIndex >= total {
		return
	}

	b.mut.Lock()
	defer b.mut.Unlock()

	first := false
	if !b.started || s.CurrentEpoch != b.epoch || total != b.totalWorkers {
		b.resetWorkers(total, s.CurrentEpoch)
		first = true
	}

	b.workers[s.WorkerIndex] = fraction(s.CurrentSample, s.TotalSamples)
	b.losses[s.WorkerIndex] = s.EpochLoss
	b.samples[s.WorkerIndex] = s.CurrentSample

	complete := b.epochComplete()
	position := b.position(s.TotalSamples)
	if !first && !(complete && !b.completed) && position < b.lastSample+b.step(s.TotalSamples) {
		return
	}

	b.render(s, complete)

	b.lastSample = position
	if complete {
		b.completed = true
	}
}

func (b *Bar) resetWorkers(total int, epoch uint64) {
	b.workers = make([]float64, total)
	b.losses = make([]float64, total)
	b.samples = make([]uint64, total)
	b.totalWorkers = total
	b.epoch = epoch
	b.started = true
	b.lastSample = 0
	b.completed = false
}

func fraction(current, total uint64) float64 {
	if total == 0 {
		return 0
	}
	if current >= total {
		return 1
	}
	return float64(current) / float64(total)
}

func (b *Bar) epochComplete() bool {
	for _, f := range b.workers {
		if f < 1 {
			return false
		}
	}
	return true
}

// position is the aggregate sample index: the mean worker fraction scaled to
// the sample count, equal to CurrentSample when a single worker runs.
func (b *Bar) position(totalSamples uint64) uint64 {
	var sum float64
	for _, f := range b.workers {
		sum += f
	}
	return uint64(math.Round(sum / float64(len(b.workers)) * float64(totalSamples)))
}

// epochLoss is the mean loss per sample over every worker's samples of the
// epoch, the latest sample loss until a sample was counted.
func (b *Bar) epochLoss(s Signal) float64 {
	var loss float64
	var samples uint64
	for i := range b.losses {
		loss += b.losses[i]
		samples += b.samples[i]
	}
	if samples == 0 {
		return s.SampleLoss
	}
	return loss / float64(samples)
}

func (b *Bar) step(totalSamples uint64) uint64 {
	step := totalSamples / b.steps
	if step == 0 {
		step = 1
	}
	return step
}

func (b *Bar) write(text string) {
	if _, err := io.WriteString(b.out, text); err != nil && !b.warned {
		b.warned = true
		if b.logger != nil {
			b.logger.Printf("progress: write failed, further failures are not reported: %v", err)
		}
	}
}
