//go:build !cuda

package device

import "github.com/pkg/errors"

func cudaDevices() ([]Device, error) {
	return nil, errors.New("this binary was built without the cuda tag")
}
