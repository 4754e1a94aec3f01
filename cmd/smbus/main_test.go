package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/smbus"
)

func TestVersionCmd(t *testing.T) {
	c := flagContext(t, nil)
	require.NoError(t, versionCmd.Action(c))
}

func TestRunSession_UnknownTransport(t *testing.T) {
	c := flagContext(t, append(busFlags(), viaFlag()), "--via", "spi")
	var called bool
	err := runSession(context.Background(), c, func(smbus.I2CBus) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
	assert.False(t, called)
}
