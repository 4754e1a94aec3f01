package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/smbus"
	"github.com/mklimuk/smbus/busctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

// MCP2221 command codes used by the I2C engine.
const (
	cmdStatusSetParams = 0x10
	cmdGetI2CData      = 0x40
	cmdWriteData       = 0x90
	cmdReadData        = 0x91
)

var _ smbus.I2CBus = &MCP2221{}

// MCP2221 drives an I2C bus through the Microchip USB-to-I2C bridge instead
// of a host character device. Each exchange is one 64-byte HID report pair.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
}

// MCP2221Status reflects the bridge's I2C engine state.
type MCP2221Status struct {
	I2CDataBufferCounter   int
	I2CSpeedDivider        int
	I2CTimeout             int
	CurrentAddress         string
	LastWriteRequestedSize uint16
	LastWriteSentSize      uint16
	ReadPending            int
}

func NewMCP2221() *MCP2221 {
	return &MCP2221{
		request:      make([]byte, 64),
		response:     make([]byte, 64),
		responseWait: 50 * time.Millisecond,
	}
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdWriteData
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	if len(buffer) > 0 {
		copy(d.request[4:], buffer)
	}
	err := d.exchange(ctx)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	if d.response[1] == 0x01 {
		return smbus.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdReadData
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 + 1
	err := d.exchange(ctx)
	if err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	d.request[0] = cmdGetI2CData
	resetBuffer(d.response)
	err = d.exchange(ctx)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	if d.response[1] == 0x41 {
		return fmt.Errorf("error reading the I2C slave data from the I2C engine")
	}
	if d.response[3] == 127 || int(d.response[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), d.response[3])
	}
	copy(buffer, d.response[4:])
	return nil
}

// Status reads the bridge's current I2C engine state.
func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	err := d.exchange(ctx)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

// Release cancels any pending transfer and frees the bridge's I2C engine.
func (d *MCP2221) Release(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	d.request[2] = 0x10 // cancel current transfer
	err := d.exchange(ctx)
	if err != nil {
		return fmt.Errorf("could not release the I2C engine: %w", err)
	}
	return nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		9-10:  requested I2C transfer length (16-bit LE)
		11-12: bytes already transferred (16-bit LE)
		13:    internal I2C data buffer counter
		14:    current I2C communication speed divider value
		15:    current I2C timeout value
		16-17: I2C address being used (16-bit LE)
		25:    pending read count
	*/
	status := &MCP2221Status{
		I2CDataBufferCounter: int(buffer[13]),
		I2CSpeedDivider:      int(buffer[14]),
		I2CTimeout:           int(buffer[15]),
		ReadPending:          int(buffer[25]),
		CurrentAddress:       hex.EncodeToString(buffer[16:18]),
	}
	status.LastWriteRequestedSize = binary.LittleEndian.Uint16(buffer[9:11])
	status.LastWriteSentSize = binary.LittleEndian.Uint16(buffer[11:13])
	return status
}

// exchange sends the prepared request report and reads the response report.
func (d *MCP2221) exchange(ctx context.Context) error {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) > 1 {
		return fmt.Errorf("ambiguous device identification")
	}
	if len(devs) == 0 {
		return fmt.Errorf("MCP2221 device not found")
	}
	dev, err := devs[0].Open()
	if err != nil {
		return fmt.Errorf("error opening device: %w", err)
	}
	defer func() { _ = dev.Close() }()
	verbose := busctx.IsVerbose(ctx)
	if verbose {
		slog.Debug("sending message to adapter", "request", hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short write: %d", n)
	}
	time.Sleep(d.responseWait)
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		slog.Debug("read message from adapter", "response", hex.Dump(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	resetBuffer(d.request)
	resetBuffer(d.response)
}

func resetBuffer(buf []byte) {
	for i := range buf {
		buf[i] = 0x00
	}
}
