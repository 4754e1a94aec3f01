package i2c

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mklimuk/smbus"
)

var _ smbus.I2CBus = &Bus{}

// Bus is a session on one numbered bus device. Transfers on a wedged
// peripheral degrade instead of blocking forever: reads come back zero-filled
// and writes are dropped, with a diagnostic log line either way. Only
// construction and precondition failures surface as errors.
//
// A single transfer is in flight per Bus at any time; concurrent calls are
// serialized internally.
type Bus struct {
	mx  sync.Mutex // serializes transfers and lifecycle changes
	dev DeviceFile

	busNumber int
	open      DeviceOpener
	verbose   bool

	timeout        time.Duration
	muxLockTimeout time.Duration

	muxAddr    *byte
	muxChannel *uint8
	mux        *muxConfig
	muxState   muxState

	flagmx sync.Mutex
	held   bool
}

type Option func(*Bus)

// WithMux routes the session through a multiplexer at the given 7-bit
// address. Requires WithChannel.
func WithMux(addr byte) Option {
	return func(b *Bus) {
		b.muxAddr = &addr
	}
}

// WithChannel selects the mux downstream channel by bit position. Requires WithMux.
func WithChannel(channel uint8) Option {
	return func(b *Bus) {
		b.muxChannel = &channel
	}
}

// WithTransferTimeout overrides the per-transfer deadline.
func WithTransferTimeout(timeout time.Duration) Option {
	return func(b *Bus) {
		b.timeout = timeout
	}
}

// WithMuxLockTimeout overrides the bound on mux channel lock/unlock confirmation.
func WithMuxLockTimeout(timeout time.Duration) Option {
	return func(b *Bus) {
		b.muxLockTimeout = timeout
	}
}

// WithVerbose enables byte-traffic debug logging for every operation on the session.
func WithVerbose(verbose bool) Option {
	return func(b *Bus) {
		b.verbose = verbose
	}
}

// WithDeviceOpener substitutes the device file factory. Used to back the
// session with a simulated device.
func WithDeviceOpener(open DeviceOpener) Option {
	return func(b *Bus) {
		b.open = open
	}
}

// Open opens the numbered bus device and configures the session. A mux
// address without a channel (or the other way around) fails with
// smbus.ErrConfig.
func Open(bus int, opts ...Option) (*Bus, error) {
	b := &Bus{
		busNumber:      bus,
		open:           OpenDevice,
		timeout:        DefaultTransferTimeout,
		muxLockTimeout: DefaultMuxLockTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	if (b.muxAddr == nil) != (b.muxChannel == nil) {
		return nil, smbus.ErrConfig
	}
	if b.muxAddr != nil {
		b.mux = newMuxConfig(*b.muxAddr, *b.muxChannel)
	}
	if err := b.openDevice(); err != nil {
		return nil, err
	}
	return b, nil
}

// Reopen re-opens the underlying device file. An already-open handle is
// closed first.
func (b *Bus) Reopen() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.openDevice()
}

func (b *Bus) openDevice() error {
	if b.dev != nil {
		_ = b.closeDevice()
	}
	dev, err := b.open(b.busNumber)
	if err != nil {
		return fmt.Errorf("could not open bus %d: %w", b.busNumber, err)
	}
	b.dev = dev
	return nil
}

// Close releases the device handle. Closing an already-closed bus is a no-op.
func (b *Bus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.closeDevice()
}

func (b *Bus) closeDevice() error {
	if b.dev == nil {
		return nil
	}
	err := b.dev.Close()
	b.dev = nil
	if err != nil {
		return fmt.Errorf("could not close bus %d: %w", b.busNumber, err)
	}
	return nil
}

// TryLock attempts to grab the advisory session flag. It returns true on
// success and false if the flag is already held. The flag is cooperative
// only; it does not arbitrate hardware access.
func (b *Bus) TryLock() bool {
	b.flagmx.Lock()
	defer b.flagmx.Unlock()
	if b.held {
		return false
	}
	b.held = true
	return true
}

// Unlock releases the advisory session flag so other owners may take it.
func (b *Bus) Unlock() {
	b.flagmx.Lock()
	defer b.flagmx.Unlock()
	b.held = false
}

// Claim connects the configured mux channel ahead of a scoped session. It is
// a no-op when no mux is configured.
func (b *Bus) Claim(ctx context.Context) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.dev == nil {
		return smbus.ErrNotOpen
	}
	return b.lockChannel(ctx)
}

// Release restores the mux to its unlocked state and closes the device
// handle. The unlock sequence runs at most once per claimed session and the
// handle is closed regardless of the unlock outcome.
func (b *Bus) Release(ctx context.Context) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	err := b.unlockChannel(ctx)
	if cerr := b.closeDevice(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Session claims the mux channel, runs fn, then releases the channel and
// closes the handle on every exit path, including an error from fn. The bus
// is unusable afterwards until Reopen.
func (b *Bus) Session(ctx context.Context, fn func(bus smbus.I2CBus) error) (err error) {
	if err = b.Claim(ctx); err != nil {
		// the claim failed mid-way, leave the mux alone but release the handle
		if cerr := b.Close(); cerr != nil {
			err = fmt.Errorf("%w (close failed: %v)", err, cerr)
		}
		return err
	}
	defer func() {
		if rerr := b.Release(ctx); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn(b)
}
