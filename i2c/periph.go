package i2c

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mklimuk/smbus"
	i2cconn "periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var _ smbus.I2CBus = &PeriphBus{}

// PeriphBus drives a bus through the periph.io host drivers instead of the
// raw character device. It carries no timeout or mux policy; transfer
// failures surface as errors.
type PeriphBus struct {
	bus i2cconn.BusCloser
}

// NewPeriphBus initializes the periph host drivers and opens the named bus
// (a number, a name like "/dev/i2c-1", or an empty string for the default).
func NewPeriphBus(dev string) (*PeriphBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("loaded host driver", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	return &PeriphBus{bus: bus}, nil
}

func (b *PeriphBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c device %#x: %w", address, err)
	}
	return nil
}

func (b *PeriphBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c device %#x: %w", address, err)
	}
	return nil
}

func (b *PeriphBus) Release(ctx context.Context) error {
	return nil
}

// Scan probes the valid 7-bit address range with a 1-byte read and returns
// the addresses that acknowledged.
func (b *PeriphBus) Scan(ctx context.Context) []byte {
	var found []byte
	probe := make([]byte, 1)
	for addr := byte(0x03); addr <= 0x77; addr++ {
		if err := b.bus.Tx(uint16(addr), nil, probe); err == nil {
			found = append(found, addr)
		}
	}
	return found
}

func (b *PeriphBus) Close() error {
	return b.bus.Close()
}
