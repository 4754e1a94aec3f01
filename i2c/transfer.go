package i2c

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mklimuk/smbus"
	"github.com/mklimuk/smbus/busctx"
)

// DefaultTransferTimeout bounds a single read or write on the bus device. A
// transfer on an absent or wedged peripheral otherwise blocks forever.
const DefaultTransferTimeout = 2 * time.Second

var errTransferTimeout = errors.New("transfer deadline exceeded")

// ReadFromAddr selects the peripheral, then reads len(buffer) bytes with a
// bounded wait. On timeout or an I/O fault the buffer is zero-filled and a
// diagnostic is logged instead of returning an error, so a stuck peripheral
// never takes the caller down with it. Only precondition violations
// (smbus.ErrNotOpen, a failed address selection) surface as errors.
func (b *Bus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	_, err := b.readFromAddr(ctx, address, buffer)
	return err
}

// Read is like ReadFromAddr but returns the bytes actually transferred: a
// short read comes back as a short slice. On timeout or fault the degrade
// policy applies and the result is count zero bytes.
func (b *Bus) Read(ctx context.Context, address byte, count int) ([]byte, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	buffer := make([]byte, count)
	n, err := b.readFromAddr(ctx, address, buffer)
	if err != nil {
		return nil, err
	}
	return buffer[:n], nil
}

// WriteToAddr selects the peripheral, then writes all of buffer with a
// bounded wait. Timeouts and I/O faults are logged and swallowed.
func (b *Bus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.writeToAddr(ctx, address, buffer)
}

func (b *Bus) readFromAddr(ctx context.Context, address byte, buffer []byte) (int, error) {
	if b.dev == nil {
		return 0, smbus.ErrNotOpen
	}
	if err := b.selectDevice(ctx, address); err != nil {
		return 0, err
	}
	n, err := b.timedRead(ctx, buffer)
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return 0, err
	case errors.Is(err, errTransferTimeout):
		slog.Warn("failed read bytes", b.diagnostics(address)...)
		zeroFill(buffer)
		return len(buffer), nil
	case err != nil:
		slog.Warn("likely I/O error during read bytes", append(b.diagnostics(address), "error", err)...)
		zeroFill(buffer)
		return len(buffer), nil
	}
	// a short read is authoritative, the tail stays zeroed
	zeroFill(buffer[n:])
	if b.isVerbose(ctx) {
		slog.Debug("read bytes", "data", hex.EncodeToString(buffer[:n]))
	}
	return n, nil
}

func (b *Bus) writeToAddr(ctx context.Context, address byte, buffer []byte) error {
	if b.dev == nil {
		return smbus.ErrNotOpen
	}
	if err := b.selectDevice(ctx, address); err != nil {
		return err
	}
	if b.isVerbose(ctx) {
		slog.Debug("writing bytes", "data", hex.EncodeToString(buffer))
	}
	err := b.timedWrite(ctx, buffer)
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, errTransferTimeout):
		slog.Warn("failed write bytes", b.diagnostics(address)...)
	case err != nil:
		slog.Warn("likely I/O error during write bytes", append(b.diagnostics(address), "error", err)...)
	}
	return nil
}

func (b *Bus) selectDevice(ctx context.Context, address byte) error {
	if b.isVerbose(ctx) {
		slog.Debug("selecting device", "addr", fmt.Sprintf("%#x", address))
	}
	if err := b.dev.SelectAddr(address); err != nil {
		return fmt.Errorf("bus %d: %w", b.busNumber, err)
	}
	return nil
}

type transferResult struct {
	n   int
	err error
}

// timedRead reads up to len(buf) bytes with a bounded wait. The blocking
// call runs in its own goroutine against a private buffer so an abandoned
// read cannot scribble on buf after the deadline fires.
func (b *Bus) timedRead(ctx context.Context, buf []byte) (int, error) {
	timer := time.NewTimer(b.timeout)
	defer timer.Stop()
	dev := b.dev
	tmp := make([]byte, len(buf))
	done := make(chan transferResult, 1)
	go func() {
		n, err := dev.Read(tmp)
		done <- transferResult{n: n, err: err}
	}()
	select {
	case res := <-done:
		if res.err != nil {
			return 0, res.err
		}
		copy(buf, tmp[:res.n])
		return res.n, nil
	case <-timer.C:
		return 0, errTransferTimeout
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (b *Bus) timedWrite(ctx context.Context, buf []byte) error {
	timer := time.NewTimer(b.timeout)
	defer timer.Stop()
	dev := b.dev
	tmp := make([]byte, len(buf))
	copy(tmp, buf)
	done := make(chan transferResult, 1)
	go func() {
		n, err := dev.Write(tmp)
		done <- transferResult{n: n, err: err}
	}()
	select {
	case res := <-done:
		if res.err != nil {
			return res.err
		}
		if res.n != len(tmp) {
			return fmt.Errorf("short write: %d of %d bytes", res.n, len(tmp))
		}
		return nil
	case <-timer.C:
		return errTransferTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) isVerbose(ctx context.Context) bool {
	return b.verbose || busctx.IsVerbose(ctx)
}

// diagnostics names the transfer target plus mux context for failure log lines.
func (b *Bus) diagnostics(address byte) []any {
	args := []any{"addr", fmt.Sprintf("%#x", address), "bus", b.busNumber}
	if b.mux != nil {
		args = append(args, "mux", fmt.Sprintf("%#x", b.mux.addr), "channel", b.mux.channel)
	}
	return args
}

func zeroFill(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
