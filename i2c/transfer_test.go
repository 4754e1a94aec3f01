package i2c

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_ReadDegradesToZerosOnTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	dev := NewSilentDevice(release)
	bus, err := Open(1, WithDeviceOpener(dev.Opener()), WithTransferTimeout(50*time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = bus.Close() }()

	buf := []byte{0xFF, 0xFF, 0xFF}
	start := time.Now()
	err = bus.ReadFromAddr(context.Background(), 0x40, buf)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x00}, buf)
	assert.Less(t, elapsed, 500*time.Millisecond, "wall time must be bounded by the deadline")
}

func TestBus_WriteSwallowsTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	dev := NewSilentDevice(release)
	bus, err := Open(1, WithDeviceOpener(dev.Opener()), WithTransferTimeout(50*time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = bus.Close() }()

	start := time.Now()
	err = bus.WriteToAddr(context.Background(), 0x40, []byte{0x01})
	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestBus_ReadDegradesToZerosOnFault(t *testing.T) {
	dev := NewMockDevice(func(buf []byte) (int, error) {
		return 0, fmt.Errorf("remote I/O error")
	}, nil)
	bus, err := Open(1, WithDeviceOpener(dev.Opener()))
	require.NoError(t, err)
	defer func() { _ = bus.Close() }()

	buf := []byte{0xAA, 0xBB}
	require.NoError(t, bus.ReadFromAddr(context.Background(), 0x23, buf))
	assert.Equal(t, []byte{0x00, 0x00}, buf)
}

func TestBus_EchoPeripheral(t *testing.T) {
	dev := NewEchoDevice()
	bus, err := Open(1, WithDeviceOpener(dev.Opener()))
	require.NoError(t, err)
	defer func() { _ = bus.Close() }()

	ctx := context.Background()
	require.NoError(t, bus.WriteToAddr(ctx, 0x40, []byte{0x01}))
	buf := make([]byte, 1)
	require.NoError(t, bus.ReadFromAddr(ctx, 0x40, buf))
	assert.Equal(t, []byte{0x01}, buf)
}

func TestBus_SelectsBeforeEveryTransfer(t *testing.T) {
	dev := NewEchoDevice()
	bus, err := Open(1, WithDeviceOpener(dev.Opener()))
	require.NoError(t, err)
	defer func() { _ = bus.Close() }()

	ctx := context.Background()
	require.NoError(t, bus.WriteToAddr(ctx, 0x40, []byte{0x01}))
	require.NoError(t, bus.ReadFromAddr(ctx, 0x23, make([]byte, 1)))
	require.NoError(t, bus.ReadFromAddr(ctx, 0x40, make([]byte, 1)))
	assert.Equal(t, []byte{0x40, 0x23, 0x40}, dev.Selected())
}

func TestBus_ShortReadKeepsTailZeroed(t *testing.T) {
	dev := NewMockDevice(func(buf []byte) (int, error) {
		buf[0] = 0x5A
		return 1, nil
	}, nil)
	bus, err := Open(1, WithDeviceOpener(dev.Opener()))
	require.NoError(t, err)
	defer func() { _ = bus.Close() }()

	buf := bytes.Repeat([]byte{0xFF}, 4)
	require.NoError(t, bus.ReadFromAddr(context.Background(), 0x40, buf))
	assert.Equal(t, []byte{0x5A, 0x00, 0x00, 0x00}, buf)
}

func TestBus_ReadReturnsAuthoritativeLength(t *testing.T) {
	dev := NewMockDevice(func(buf []byte) (int, error) {
		buf[0] = 0x5A
		return 1, nil
	}, nil)
	bus, err := Open(1, WithDeviceOpener(dev.Opener()))
	require.NoError(t, err)
	defer func() { _ = bus.Close() }()

	out, err := bus.Read(context.Background(), 0x40, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x5A}, out)
}
