package progress

import "bytes"
import "errors"
import "log"
import "strings"
import "sync"
import "testing"

// recorder keeps every write separately
type recorder struct {
	mut    sync.Mutex
	writes []string
}

func (r *recorder) Write(p []byte) (int, error) {
	r.mut.Lock()
	defer r.mut.Unlock()
	r.writes = append(r.writes, string(p))
	return len(p), nil
}

func (r *recorder) last() string {
	if len(r.writes) == 0 {
		return ""
	}
	return r.writes[len(r.writes)-1]
}

type failing struct {
	calls int
}

func (f *failing) Write(p []byte) (int, error) {
	f.calls++
	return 0, errors.New("broken pipe")
}

func TestSingleBar(t *testing.T) {
	out := &recorder{}
	b := New(out, WithWidth(10))
	b.Update(Signal{CurrentEpoch: 1, TotalEpochs: 2, CurrentSample: 0, TotalSamples: 10, SampleLoss: 0.5, TotalWorkers: 1})
	want := "\rEpoch 1/2 [          ]   0.0% loss: 0.500000"
	if out.last() != want {
		t.Errorf("first render %q, want %q", out.last(), want)
	}
	b.Update(Signal{CurrentEpoch: 1, TotalEpochs: 2, CurrentSample: 4, TotalSamples: 10, EpochLoss: 2, TotalWorkers: 1})
	want = "\rEpoch 1/2 [====      ]  40.0% loss: 0.500000"
	if out.last() != want {
		t.Errorf("partial render %q, want %q", out.last(), want)
	}
	b.Update(Signal{CurrentEpoch: 1, TotalEpochs: 2, CurrentSample: 10, TotalSamples: 10, EpochLoss: 1, TotalWorkers: 1})
	want = "\rEpoch 1/2 [==========] 100.0% loss: 0.100000\n"
	if out.last() != want {
		t.Errorf("final render %q, want %q", out.last(), want)
	}
}

func TestMultiBar(t *testing.T) {
	out := &recorder{}
	b := New(out, WithWidth(10))
	b.Update(Signal{CurrentEpoch: 1, TotalEpochs: 1, CurrentSample: 5, TotalSamples: 10, EpochLoss: 2.5, WorkerIndex: 0, TotalWorkers: 2})
	want := "Epoch 1/1 loss: 0.500000\n" +
		"  worker 0 [=====     ]  50.0%\n" +
		"  worker 1 [          ]   0.0%\n"
	if out.last() != want {
		t.Errorf("multi render %q, want %q", out.last(), want)
	}
}

func TestMultiBarCombinedLoss(t *testing.T) {
	out := &recorder{}
	b := New(out, WithWidth(10))
	b.Update(Signal{CurrentEpoch: 1, TotalEpochs: 1, CurrentSample: 4, TotalSamples: 10, EpochLoss: 4, SampleLoss: 1, WorkerIndex: 0, TotalWorkers: 2})
	b.Update(Signal{CurrentEpoch: 1, TotalEpochs: 1, CurrentSample: 2, TotalSamples: 10, EpochLoss: 0.2, SampleLoss: 0.1, WorkerIndex: 1, TotalWorkers: 2})
	if len(out.writes) != 2 {
		t.Fatalf("rendered %d times, want 2", len(out.writes))
	}
	// 4.2 over 6 samples, not worker 1's own 0.1
	if !strings.HasPrefix(out.last(), "Epoch 1/1 loss: 0.700000\n") {
		t.Errorf("header %q does not carry the combined loss", out.last())
	}

	b.Update(Signal{CurrentEpoch: 2, TotalEpochs: 2, CurrentSample: 0, TotalSamples: 10, SampleLoss: 0.3, WorkerIndex: 1, TotalWorkers: 2})
	if !strings.HasPrefix(out.last(), "Epoch 2/2 loss: 0.300000\n") {
		t.Errorf("new epoch header %q", out.last())
	}
}

func TestThrottle(t *testing.T) {
	out := &recorder{}
	b := New(out)
	for i := uint64(1); i <= 1000; i++ {
		b.Update(Signal{CurrentEpoch: 1, TotalEpochs: 1, CurrentSample: i, TotalSamples: 1000, TotalWorkers: 1})
	}
	// first signal, every 10 samples from there on, and the completion
	if len(out.writes) != 101 {
		t.Errorf("rendered %d times, want 101", len(out.writes))
	}
	if !strings.HasSuffix(out.last(), "\n") || !strings.Contains(out.last(), "100.0%") {
		t.Errorf("last render is not the completion line: %q", out.last())
	}

	// state keeps updating between renders
	b.mut.Lock()
	f := b.workers[0]
	b.mut.Unlock()
	if f != 1 {
		t.Errorf("fraction %v, want 1", f)
	}
}

func TestThrottleSteps(t *testing.T) {
	out := &recorder{}
	b := New(out, WithSteps(4))
	for i := uint64(1); i <= 100; i++ {
		b.Update(Signal{CurrentEpoch: 1, TotalEpochs: 1, CurrentSample: i, TotalSamples: 100, TotalWorkers: 1})
	}
	// samples 1, 26, 51, 76 and 100
	if len(out.writes) != 5 {
		t.Errorf("rendered %d times, want 5", len(out.writes))
	}
}

func TestCompletionRendersOnce(t *testing.T) {
	out := &recorder{}
	b := New(out, WithSteps(1))
	s := Signal{CurrentEpoch: 1, TotalEpochs: 1, CurrentSample: 1, TotalSamples: 2, WorkerIndex: 0, TotalWorkers: 2}
	b.Update(s)
	s.CurrentSample = 2
	b.Update(s)
	s.WorkerIndex = 1
	b.Update(s)
	n := len(out.writes)
	if !strings.Contains(out.last(), "worker 1 [") || strings.Contains(out.last(), " 50.0%") {
		t.Errorf("completion not rendered: %q", out.last())
	}
	b.Update(s)
	if len(out.writes) != n {
		t.Errorf("completion rendered twice")
	}
}

func TestZeroTotalSamples(t *testing.T) {
	out := &recorder{}
	b := New(out, WithWidth(4))
	b.Update(Signal{CurrentEpoch: 1, TotalEpochs: 1, CurrentSample: 3, TotalSamples: 0, TotalWorkers: 1})
	if !strings.Contains(out.last(), "[    ]   0.0%") {
		t.Errorf("unexpected render %q", out.last())
	}
}

func TestConcurrentWorkers(t *testing.T) {
	const workers = 16
	out := &recorder{}
	b := New(out)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := uint64(1); i <= uint64(50+w); i++ {
				b.Update(Signal{CurrentEpoch: 1, TotalEpochs: 1, CurrentSample: i, TotalSamples: 100, WorkerIndex: w, TotalWorkers: workers})
			}
		}(w)
	}
	wg.Wait()

	b.mut.Lock()
	defer b.mut.Unlock()
	if len(b.workers) != workers {
		t.Fatalf("%d worker entries, want %d", len(b.workers), workers)
	}
	for w, f := range b.workers {
		if want := float64(50+w) / 100; f != want {
			t.Errorf("worker %d fraction %v, want %v", w, f, want)
		}
	}
	for _, text := range out.writes {
		if !strings.HasPrefix(text, "Epoch 1/1") || strings.Count(text, "  worker ") != workers {
			t.Errorf("interleaved render: %q", text)
		}
	}
}

func TestWorkerCountChange(t *testing.T) {
	out := &recorder{}
	b := New(out)
	b.Update(Signal{CurrentEpoch: 1, TotalEpochs: 1, CurrentSample: 1, TotalSamples: 10, WorkerIndex: 3, TotalWorkers: 4})
	b.Update(Signal{CurrentEpoch: 1, TotalEpochs: 1, CurrentSample: 1, TotalSamples: 10, WorkerIndex: 1, TotalWorkers: 2})
	if len(b.workers) != 2 {
		t.Errorf("%d worker entries after count change, want 2", len(b.workers))
	}
}

func TestReset(t *testing.T) {
	used := &recorder{}
	b := New(used, WithWidth(20))
	for e := uint64(1); e <= 3; e++ {
		for w := 0; w < 4; w++ {
			b.Update(Signal{CurrentEpoch: e, TotalEpochs: 3, CurrentSample: 7, TotalSamples: 10, EpochLoss: 1, WorkerIndex: w, TotalWorkers: 4})
		}
	}
	b.Reset()

	fresh := &recorder{}
	f := New(fresh, WithWidth(20))

	s := Signal{CurrentEpoch: 0, TotalEpochs: 1, CurrentSample: 0, TotalSamples: 10, SampleLoss: 0.25, TotalWorkers: 1}
	n := len(used.writes)
	b.Update(s)
	f.Update(s)
	if len(used.writes) != n+1 {
		t.Fatalf("reset bar did not render the first signal")
	}
	if used.last() != fresh.last() {
		t.Errorf("reset render %q differs from fresh render %q", used.last(), fresh.last())
	}
}

func TestIgnoresBadWorkerIndex(t *testing.T) {
	out := &recorder{}
	b := New(out)
	b.Update(Signal{CurrentEpoch: 1, TotalEpochs: 1, CurrentSample: 1, TotalSamples: 10, WorkerIndex: -1, TotalWorkers: 2})
	b.Update(Signal{CurrentEpoch: 1, TotalEpochs: 1, CurrentSample: 1, TotalSamples: 10, WorkerIndex: 2, TotalWorkers: 2})
	if len(out.writes) != 0 {
		t.Errorf("out of range signals rendered: %q", out.writes)
	}
}

func TestWriteFailureLoggedOnce(t *testing.T) {
	out := &failing{}
	var logs bytes.Buffer
	b := New(out, WithSteps(10), WithLogger(log.New(&logs, "", 0)))
	for i := uint64(1); i <= 100; i++ {
		b.Update(Signal{CurrentEpoch: 1, TotalEpochs: 1, CurrentSample: i, TotalSamples: 100, TotalWorkers: 1})
	}
	if out.calls < 2 {
		t.Fatalf("expected several render attempts, got %d", out.calls)
	}
	if n := strings.Count(logs.String(), "\n"); n != 1 {
		t.Errorf("logged %d lines, want 1: %q", n, logs.String())
	}
}

func TestTerminalOptionsNotTerminal(t *testing.T) {
	if opts := TerminalOptions(&bytes.Buffer{}); opts != nil {
		t.Errorf("expected no options for a buffer, got %d", len(opts))
	}
}

func TestStyledBarKeepsText(t *testing.T) {
	out := &recorder{}
	b := New(out, WithWidth(10), WithStyle())
	b.Update(Signal{CurrentEpoch: 1, TotalEpochs: 1, CurrentSample: 3, TotalSamples: 10, TotalWorkers: 1})
	if !strings.Contains(out.last(), "===") || !strings.Contains(out.last(), "30.0%") {
		t.Errorf("styled render lost its content: %q", out.last())
	}
}

func FuzzUpdate(f *testing.F) {
	f.Add(uint64(1), uint64(3), uint64(10), 0, 1)
	f.Add(uint64(0), uint64(0), uint64(0), 5, 2)
	f.Fuzz(func(t *testing.T, epoch, sample, total uint64, worker, workers int) {
		b := New(&recorder{})
		b.Update(Signal{CurrentEpoch: epoch, TotalEpochs: epoch, CurrentSample: sample, TotalSamples: total, WorkerIndex: worker, TotalWorkers: workers % 64})
	})
}
