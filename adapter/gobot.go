package adapter

import (
	"context"
	"fmt"
	"sync"

	"gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/smbus"
)

var _ smbus.I2CBus = &GobotBus{}

// GobotBus exposes a gobot platform adaptor (Raspberry Pi, NanoPi, ...) as an
// smbus bus. Connections are opened lazily per peripheral address and cached
// until Release.
type GobotBus struct {
	mx          sync.Mutex
	connector   i2c.Connector
	bus         int
	connections map[byte]i2c.Connection
}

func NewGobotBus(connector i2c.Connector, bus int) *GobotBus {
	return &GobotBus{
		connector:   connector,
		bus:         bus,
		connections: make(map[byte]i2c.Connection),
	}
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := conn.Read(buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c device %#x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short read from %#x: expected %d, got %d", address, len(buffer), n)
	}
	return nil
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := conn.Write(buffer)
	if err != nil {
		return fmt.Errorf("could not write to i2c device %#x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short write to %#x: expected %d, got %d", address, len(buffer), n)
	}
	return nil
}

// Release closes all cached connections.
func (b *GobotBus) Release(ctx context.Context) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var firstErr error
	for addr, conn := range b.connections {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("could not close connection to %#x: %w", addr, err)
		}
		delete(b.connections, addr)
	}
	return firstErr
}

func (b *GobotBus) connection(address byte) (i2c.Connection, error) {
	if conn, ok := b.connections[address]; ok {
		return conn, nil
	}
	conn, err := b.connector.GetI2cConnection(int(address), b.bus)
	if err != nil {
		return nil, fmt.Errorf("could not connect to i2c device %#x on bus %d: %w", address, b.bus, err)
	}
	b.connections[address] = conn
	return conn, nil
}
