//go:build cuda

package device

import "gorgonia.org/cu"

func cudaDevices() ([]Device, error) {
	count, err := cu.NumDevices()
	if err != nil {
		return nil, err
	}
	devs := make([]Device, 0, count)
	for d := 0; d < count; d++ {
		name, err := cu.Device(d).Name()
		if err != nil {
			return nil, err
		}
		mem, _ := cu.Device(d).TotalMem()
		maj, _ := cu.Device(d).Attribute(cu.ComputeCapabilityMajor)
		minor, _ := cu.Device(d).Attribute(cu.ComputeCapabilityMinor)
		devs = append(devs, Device{
			Kind:        GPU,
			Index:       d,
			Name:        name,
			Threads:     1,
			MemoryBytes: mem,
			Features:    []string{computeCapability(maj, minor)},
		})
	}
	return devs, nil
}
