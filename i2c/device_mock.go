package i2c

import (
	"sync"
)

// ReadBehaviorFunc defines the function signature for mock device reads.
// It fills buf and returns the number of bytes produced or an error.
type ReadBehaviorFunc func(buf []byte) (int, error)

// WriteBehaviorFunc defines the function signature for mock device writes.
type WriteBehaviorFunc func(buf []byte) (int, error)

// MockDevice is a DeviceFile implementation driven by behavior functions, so
// bus sessions can run against simulated peripherals without any hardware.
// It records selected addresses and written payloads for assertions.
type MockDevice struct {
	mu            sync.Mutex
	readBehavior  ReadBehaviorFunc
	writeBehavior WriteBehaviorFunc
	selected      []byte
	writes        [][]byte
	closed        int
}

// NewMockDevice creates a mock device with the given behavior functions.
// A nil read behavior zero-fills, a nil write behavior accepts everything.
func NewMockDevice(read ReadBehaviorFunc, write WriteBehaviorFunc) *MockDevice {
	return &MockDevice{readBehavior: read, writeBehavior: write}
}

// NewEchoDevice creates a mock device that reads back the last written byte.
// This mirrors how a channel mux reports its control register, and doubles
// as a loopback peripheral.
func NewEchoDevice() *MockDevice {
	var last byte
	var mu sync.Mutex
	d := &MockDevice{}
	d.readBehavior = func(buf []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		for i := range buf {
			buf[i] = last
		}
		return len(buf), nil
	}
	d.writeBehavior = func(buf []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(buf) > 0 {
			last = buf[len(buf)-1]
		}
		return len(buf), nil
	}
	return d
}

// NewSilentDevice creates a mock device whose transfers block until release
// is closed, simulating a peripheral that never responds.
func NewSilentDevice(release <-chan struct{}) *MockDevice {
	stall := func(buf []byte) (int, error) {
		<-release
		return 0, nil
	}
	return &MockDevice{readBehavior: stall, writeBehavior: stall}
}

// Opener returns a DeviceOpener handing out this mock for any bus number.
func (d *MockDevice) Opener() DeviceOpener {
	return func(bus int) (DeviceFile, error) {
		return d, nil
	}
}

func (d *MockDevice) SelectAddr(addr byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selected = append(d.selected, addr)
	return nil
}

func (d *MockDevice) Read(buf []byte) (int, error) {
	d.mu.Lock()
	read := d.readBehavior
	d.mu.Unlock()
	if read == nil {
		return len(buf), nil
	}
	return read(buf)
}

func (d *MockDevice) Write(buf []byte) (int, error) {
	payload := make([]byte, len(buf))
	copy(payload, buf)
	d.mu.Lock()
	d.writes = append(d.writes, payload)
	write := d.writeBehavior
	d.mu.Unlock()
	if write == nil {
		return len(buf), nil
	}
	return write(buf)
}

func (d *MockDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	return nil
}

// Selected returns the addresses selected so far, in order.
func (d *MockDevice) Selected() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]byte, len(d.selected))
	copy(out, d.selected)
	return out
}

// Writes returns the payloads written so far, in order.
func (d *MockDevice) Writes() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.writes))
	copy(out, d.writes)
	return out
}

// CloseCount returns how many times Close was called.
func (d *MockDevice) CloseCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
