package smbus

import (
	"context"
	"errors"
)

// ErrNotOpen is returned when an operation is attempted on a bus that was
// never opened or has already been closed.
var ErrNotOpen = errors.New("bus must be opened before operations are made against it")

// ErrConfig is returned when a multiplexer address is configured without a
// channel or the other way around; routing through a mux requires both.
var ErrConfig = errors.New("mux address and channel must be configured together")

// ErrMuxLockTimeout is returned when the multiplexer does not confirm a
// channel lock or unlock within the configured bound.
var ErrMuxLockTimeout = errors.New("mux did not confirm channel state in time")

// ErrUnsupported is returned on platforms without a character-device I2C interface.
var ErrUnsupported = errors.New("char-device I2C is not supported on this platform")

var ErrBusBusy = errors.New("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

type I2CBus interface {
	AddressableReader
	AddressableWriter
}
