package i2c

import "io"

// DevicePath is the character-device path pattern for numbered I2C buses.
const DevicePath = "/dev/i2c-%d"

// i2cSlave is the ioctl request binding subsequent transfers on a device
// file descriptor to a peripheral address.
const i2cSlave = 0x0703

// DeviceFile is an open connection to a single numbered bus device. Reads
// and writes target whichever peripheral was last selected.
type DeviceFile interface {
	io.ReadWriteCloser
	// SelectAddr binds subsequent reads and writes to the 7-bit peripheral address.
	SelectAddr(addr byte) error
}

// DeviceOpener opens the device file backing a numbered bus. The default
// opener uses the host character device; simulations substitute their own.
type DeviceOpener func(bus int) (DeviceFile, error)
