package adapter

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMCP2221_StatusDecoding(t *testing.T) {
	buffer := make([]byte, 64)
	binary.LittleEndian.PutUint16(buffer[9:11], 60)
	binary.LittleEndian.PutUint16(buffer[11:13], 58)
	buffer[13] = 4
	buffer[14] = 0x26
	buffer[15] = 20
	buffer[16] = 0x80
	buffer[17] = 0x00
	buffer[25] = 2

	status := bufferToStatus(buffer)
	assert.Equal(t, uint16(60), status.LastWriteRequestedSize)
	assert.Equal(t, uint16(58), status.LastWriteSentSize)
	assert.Equal(t, 4, status.I2CDataBufferCounter)
	assert.Equal(t, 0x26, status.I2CSpeedDivider)
	assert.Equal(t, 20, status.I2CTimeout)
	assert.Equal(t, "8000", status.CurrentAddress)
	assert.Equal(t, 2, status.ReadPending)
}
