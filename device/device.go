// Package device describes the compute devices training workers run on.
package device

import "fmt"
import "runtime"
import "strconv"
import "strings"

import "github.com/klauspost/cpuid/v2"
import "github.com/pkg/errors"

// Kind selects the device family.
type Kind string

const (
	CPU Kind = "cpu"
	GPU Kind = "gpu"
)

// ParseKind accepts "cpu" or "gpu" in any case. An empty string is cpu.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cpu":
		return CPU, nil
	case "gpu", "cuda":
		return GPU, nil
	}
	return "", errors.Errorf("unknown device %q (want cpu or gpu)", s)
}

// Device is one compute unit. One training worker is bound to each device.
type Device struct {
	Kind        Kind
	Index       int
	Name        string
	Threads     int
	MemoryBytes int64
	Features    []string
}

func (d Device) String() string {
	if d.Kind == GPU {
		return fmt.Sprintf("gpu%d %s (%d MiB)", d.Index, d.Name, d.MemoryBytes>>20)
	}
	return fmt.Sprintf("cpu%d %s (%d threads)", d.Index, d.Name, d.Threads)
}

// Detect lists the devices of the requested kind.
func Detect(kind Kind) ([]Device, error) {
	switch kind {
	case CPU:
		return []Device{Host()}, nil
	case GPU:
		devs, err := cudaDevices()
		if err != nil {
			return nil, errors.Wrap(err, "gpu device")
		}
		if len(devs) == 0 {
			return nil, errors.New("gpu device: no CUDA devices found")
		}
		return devs, nil
	}
	return nil, errors.Errorf("unknown device kind %q", kind)
}

// Host describes the processor this program runs on.
func Host() Device {
	name := strings.TrimSpace(cpuid.CPU.BrandName)
	if name == "" {
		name = runtime.GOARCH
	}
	threads := cpuid.CPU.LogicalCores
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	return Device{
		Kind:     CPU,
		Name:     name,
		Threads:  threads,
		Features: cpuid.CPU.FeatureSet(),
	}
}

// Workers is the number of training workers for the devices: one per GPU, or
// one per hardware thread of the host, capped by limit when limit > 0.
func Workers(devs []Device, limit int) int {
	n := 0
	for _, d := range devs {
		if d.Kind == GPU {
			n++
		} else {
			n += d.Threads
		}
	}
	if limit > 0 && n > limit {
		n = limit
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Vectorized reports whether the host has wide SIMD units.
func Vectorized() bool {
	return cpuid.CPU.Supports(cpuid.AVX2, cpuid.FMA3) || cpuid.CPU.Supports(cpuid.ASIMD)
}

// computeCapability names a CUDA compute capability the way nvcc does, sm_86.
func computeCapability(major, minor int) string {
	return "sm_" + strconv.Itoa(major) + strconv.Itoa(minor)
}
