//go:build linux

package i2c

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

type charDevice struct {
	f *os.File
}

// OpenDevice opens unbuffered read-write access to /dev/i2c-{bus}.
func OpenDevice(bus int) (DeviceFile, error) {
	f, err := os.OpenFile(fmt.Sprintf(DevicePath, bus), os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus %d: %w", bus, err)
	}
	return &charDevice{f: f}, nil
}

func (d *charDevice) Read(buf []byte) (int, error) {
	return d.f.Read(buf)
}

func (d *charDevice) Write(buf []byte) (int, error) {
	return d.f.Write(buf)
}

func (d *charDevice) Close() error {
	return d.f.Close()
}

func (d *charDevice) SelectAddr(addr byte) error {
	err := unix.IoctlSetInt(int(d.f.Fd()), i2cSlave, int(addr&0x7F))
	if err != nil {
		return fmt.Errorf("could not select device %#x: %w", addr, err)
	}
	return nil
}
