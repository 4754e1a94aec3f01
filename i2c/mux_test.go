package i2c

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mklimuk/smbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_SessionLocksAndUnlocksChannel(t *testing.T) {
	dev := NewEchoDevice()
	bus, err := Open(1, WithDeviceOpener(dev.Opener()), WithMux(0x70), WithChannel(2))
	require.NoError(t, err)

	err = bus.Session(context.Background(), func(b smbus.I2CBus) error {
		buf := make([]byte, 1)
		return b.ReadFromAddr(context.Background(), 0x40, buf)
	})
	require.NoError(t, err)

	writes := dev.Writes()
	require.NotEmpty(t, writes)
	// bit 2 set for channel 2 on entry, all-zero on exit
	assert.Equal(t, []byte{0x04}, writes[0])
	assert.Equal(t, []byte{0x00}, writes[len(writes)-1])
	// both control writes target the configured mux address
	selected := dev.Selected()
	assert.Equal(t, byte(0x70), selected[0])
	assert.Equal(t, byte(0x70), selected[len(selected)-1])
	assert.Equal(t, 1, dev.CloseCount())
}

func TestBus_LockConvergesWithinBoundedPolls(t *testing.T) {
	// a mux that misses the first two control writes before settling
	var settled byte
	misses := 2
	dev := NewMockDevice(nil, nil)
	dev.readBehavior = func(buf []byte) (int, error) {
		buf[0] = settled
		return 1, nil
	}
	dev.writeBehavior = func(buf []byte) (int, error) {
		if misses > 0 {
			misses--
		} else {
			settled = buf[len(buf)-1]
		}
		return len(buf), nil
	}
	bus, err := Open(1, WithDeviceOpener(dev.Opener()), WithMux(0x70), WithChannel(3),
		WithMuxLockTimeout(2*time.Second))
	require.NoError(t, err)
	defer func() { _ = bus.Close() }()

	start := time.Now()
	require.NoError(t, bus.Claim(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
	// the control byte was re-issued until the mux took it
	assert.GreaterOrEqual(t, len(dev.Writes()), 3)
	assert.Equal(t, []byte{0x08}, dev.Writes()[0])
}

func TestBus_ClaimTimesOutOnDeafMux(t *testing.T) {
	dev := NewMockDevice(func(buf []byte) (int, error) {
		buf[0] = 0xFF // never matches any channel mask
		return 1, nil
	}, nil)
	bus, err := Open(1, WithDeviceOpener(dev.Opener()), WithMux(0x70), WithChannel(2),
		WithMuxLockTimeout(150*time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = bus.Close() }()

	err = bus.Claim(context.Background())
	assert.ErrorIs(t, err, smbus.ErrMuxLockTimeout)
}

func TestBus_ReleaseUnlocksExactlyOnce(t *testing.T) {
	dev := NewEchoDevice()
	bus, err := Open(1, WithDeviceOpener(dev.Opener()), WithMux(0x70), WithChannel(1))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, bus.Claim(ctx))
	require.NoError(t, bus.Release(ctx))
	require.NoError(t, bus.Release(ctx))

	unlocks := 0
	for _, w := range dev.Writes() {
		if len(w) == 1 && w[0] == 0x00 {
			unlocks++
		}
	}
	assert.Equal(t, 1, unlocks)
	assert.Equal(t, 1, dev.CloseCount())
}

func TestBus_SessionUnlocksOnBodyError(t *testing.T) {
	dev := NewEchoDevice()
	bus, err := Open(1, WithDeviceOpener(dev.Opener()), WithMux(0x70), WithChannel(0))
	require.NoError(t, err)

	boom := errors.New("peripheral misbehaved")
	err = bus.Session(context.Background(), func(b smbus.I2CBus) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	writes := dev.Writes()
	require.NotEmpty(t, writes)
	assert.Equal(t, []byte{0x00}, writes[len(writes)-1], "unlock must run on error unwind")
	assert.Equal(t, 1, dev.CloseCount())
}

func TestBus_SessionClosesWhenClaimFails(t *testing.T) {
	dev := NewMockDevice(func(buf []byte) (int, error) {
		buf[0] = 0xFF
		return 1, nil
	}, nil)
	bus, err := Open(1, WithDeviceOpener(dev.Opener()), WithMux(0x70), WithChannel(2),
		WithMuxLockTimeout(100*time.Millisecond))
	require.NoError(t, err)

	err = bus.Session(context.Background(), func(b smbus.I2CBus) error {
		t.Fatal("session body must not run when the claim fails")
		return nil
	})
	assert.ErrorIs(t, err, smbus.ErrMuxLockTimeout)
	assert.Equal(t, 1, dev.CloseCount())
}
