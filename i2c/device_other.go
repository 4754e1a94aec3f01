//go:build !linux

package i2c

import "github.com/mklimuk/smbus"

// OpenDevice is only implemented on hosts exposing the i2c-dev character device.
func OpenDevice(bus int) (DeviceFile, error) {
	return nil, smbus.ErrUnsupported
}
