package i2c

import (
	"context"
	"fmt"
	"time"

	"github.com/mklimuk/smbus"
)

// DefaultMuxLockTimeout bounds how long a channel lock or unlock may poll
// for confirmation before giving up with smbus.ErrMuxLockTimeout.
const DefaultMuxLockTimeout = 10 * time.Second

// muxPollInterval is the pause between confirmation reads while the mux settles.
const muxPollInterval = 50 * time.Millisecond

// muxUnlockMask is the control byte disconnecting all downstream channels.
const muxUnlockMask byte = 0x00

// muxConfig pairs the multiplexer address with the downstream channel routed
// through it. Immutable once constructed.
type muxConfig struct {
	addr    byte
	channel uint8
	mask    byte
}

func newMuxConfig(addr byte, channel uint8) *muxConfig {
	return &muxConfig{addr: addr, channel: channel, mask: 1 << channel}
}

type muxState int

const (
	muxUnlocked muxState = iota
	muxLockRequested
	muxLocked
	muxUnlockRequested
)

// lockChannel drives the mux until it confirms the configured channel is
// connected. The mask is written first, then a 1-byte readback is polled
// every muxPollInterval; the write is re-issued on every mismatch so a mux
// that missed it still converges. Polling is bounded by the mux lock timeout.
func (b *Bus) lockChannel(ctx context.Context) error {
	if b.mux == nil {
		return nil
	}
	b.muxState = muxLockRequested
	if err := b.settleMux(ctx, b.mux.mask); err != nil {
		return err
	}
	b.muxState = muxLocked
	return nil
}

// unlockChannel restores the mux to the no-channel-selected state. It runs
// the unlock sequence at most once per locked session: a failed unlock does
// not re-arm itself.
func (b *Bus) unlockChannel(ctx context.Context) error {
	if b.mux == nil || b.muxState != muxLocked {
		return nil
	}
	b.muxState = muxUnlockRequested
	if err := b.settleMux(ctx, muxUnlockMask); err != nil {
		return err
	}
	b.muxState = muxUnlocked
	return nil
}

// DropChannel forces the unlock sequence regardless of session state. It
// recovers a mux left latched by another process or a crashed session.
func (b *Bus) DropChannel(ctx context.Context) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.dev == nil {
		return smbus.ErrNotOpen
	}
	if b.mux == nil {
		return nil
	}
	b.muxState = muxUnlockRequested
	if err := b.settleMux(ctx, muxUnlockMask); err != nil {
		return err
	}
	b.muxState = muxUnlocked
	return nil
}

// settleMux writes the control byte to the configured mux address and polls
// until the mux reports it back. The unlock write targets the same
// configured address as the lock write.
func (b *Bus) settleMux(ctx context.Context, want byte) error {
	deadline := time.NewTimer(b.muxLockTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(muxPollInterval)
	defer ticker.Stop()

	if err := b.writeToAddr(ctx, b.mux.addr, []byte{want}); err != nil {
		return err
	}
	readback := make([]byte, 1)
	for {
		if _, err := b.readFromAddr(ctx, b.mux.addr, readback); err != nil {
			return err
		}
		if readback[0] == want {
			return nil
		}
		select {
		case <-deadline.C:
			return fmt.Errorf("%w: mux %#x did not settle on %#x", smbus.ErrMuxLockTimeout, b.mux.addr, want)
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		// the mux may have missed the control byte, re-issue it
		if err := b.writeToAddr(ctx, b.mux.addr, []byte{want}); err != nil {
			return err
		}
	}
}
