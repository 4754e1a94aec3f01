package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gobot.io/x/gobot/v2/drivers/i2c"
)

type fakeConnection struct {
	payload []byte
	writes  [][]byte
	closed  int
}

func (c *fakeConnection) Read(buffer []byte) (int, error) {
	return copy(buffer, c.payload), nil
}

func (c *fakeConnection) Write(buffer []byte) (int, error) {
	cp := make([]byte, len(buffer))
	copy(cp, buffer)
	c.writes = append(c.writes, cp)
	return len(buffer), nil
}
func (c *fakeConnection) Close() error { c.closed++; return nil }

func (c *fakeConnection) ReadByte() (byte, error)                   { return 0, nil }
func (c *fakeConnection) ReadByteData(reg uint8) (byte, error)      { return 0, nil }
func (c *fakeConnection) ReadWordData(reg uint8) (uint16, error)    { return 0, nil }
func (c *fakeConnection) ReadBlockData(reg uint8, b []byte) error   { return nil }
func (c *fakeConnection) WriteByte(val byte) error                  { return nil }
func (c *fakeConnection) WriteByteData(reg uint8, val byte) error   { return nil }
func (c *fakeConnection) WriteWordData(reg uint8, val uint16) error { return nil }
func (c *fakeConnection) WriteBlockData(reg uint8, b []byte) error  { return nil }
func (c *fakeConnection) WriteBytes(b []byte) error                 { return nil }

type fakeConnector struct {
	conns map[int]*fakeConnection
	dials []int
	err   error
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{conns: make(map[int]*fakeConnection)}
}

func (f *fakeConnector) GetI2cConnection(address int, bus int) (i2c.Connection, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.dials = append(f.dials, address)
	conn, ok := f.conns[address]
	if !ok {
		conn = &fakeConnection{}
		f.conns[address] = conn
	}
	return conn, nil
}

func (f *fakeConnector) DefaultI2cBus() int { return 1 }

func TestGobotBus_ReadWrite(t *testing.T) {
	connector := newFakeConnector()
	connector.conns[0x40] = &fakeConnection{payload: []byte{0xCA, 0xFE}}
	bus := NewGobotBus(connector, 1)

	require.NoError(t, bus.WriteToAddr(context.Background(), 0x40, []byte{0x01}))
	buf := make([]byte, 2)
	require.NoError(t, bus.ReadFromAddr(context.Background(), 0x40, buf))
	assert.Equal(t, []byte{0xCA, 0xFE}, buf)
	assert.Equal(t, [][]byte{{0x01}}, connector.conns[0x40].writes)
	// the connection is dialed once and cached
	assert.Equal(t, []int{0x40}, connector.dials)
}

func TestGobotBus_ShortRead(t *testing.T) {
	connector := newFakeConnector()
	connector.conns[0x23] = &fakeConnection{payload: []byte{0x01}}
	bus := NewGobotBus(connector, 1)

	buf := make([]byte, 4)
	err := bus.ReadFromAddr(context.Background(), 0x23, buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "short read")
}

func TestGobotBus_ConnectorError(t *testing.T) {
	connector := newFakeConnector()
	connector.err = errors.New("no such bus")
	bus := NewGobotBus(connector, 2)

	err := bus.WriteToAddr(context.Background(), 0x40, []byte{0x01})
	require.Error(t, err)
	assert.ErrorContains(t, err, "no such bus")
}

func TestGobotBus_ReleaseClosesConnections(t *testing.T) {
	connector := newFakeConnector()
	bus := NewGobotBus(connector, 1)

	require.NoError(t, bus.WriteToAddr(context.Background(), 0x40, []byte{0x01}))
	require.NoError(t, bus.WriteToAddr(context.Background(), 0x70, []byte{0x04}))
	require.NoError(t, bus.Release(context.Background()))
	assert.Equal(t, 1, connector.conns[0x40].closed)
	assert.Equal(t, 1, connector.conns[0x70].closed)
	// a second release has nothing left to close
	require.NoError(t, bus.Release(context.Background()))
	assert.Equal(t, 1, connector.conns[0x40].closed)
}
