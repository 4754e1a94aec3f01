package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smbus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bus: 3\nmux: 0x70\nchannel: 2\nverbose: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Bus)
	require.NotNil(t, cfg.Mux)
	assert.Equal(t, uint8(0x70), *cfg.Mux)
	require.NotNil(t, cfg.Channel)
	assert.Equal(t, uint8(2), *cfg.Channel)
	assert.True(t, cfg.Verbose)
}

func TestLoad_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smbus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Bus)
	assert.Nil(t, cfg.Mux)
	assert.Nil(t, cfg.Channel)
	assert.False(t, cfg.Verbose)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
