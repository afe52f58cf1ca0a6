package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, 3000, cfg.Device.CharDelayMS)
	assert.Equal(t, 750, cfg.Device.ServoDelayMS)
	assert.True(t, cfg.Device.DualServo)
	assert.False(t, cfg.Device.DebugMode)
	assert.Equal(t, 1000, cfg.Protocol.MaxLine)
	assert.Equal(t, "truncate", cfg.Protocol.Overflow)
	assert.Equal(t, 100, cfg.Mock.MessageBuffer)
	assert.True(t, cfg.Mock.Instant)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"
  baud_rate: 115200

device:
  char_delay_ms: 1500
  servo_delay_ms: 500
  dual_servo: false
  debug_mode: true

protocol:
  max_line: 256
  overflow: "reject"

mock:
  message_buffer: 16
  instant: false
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, 1500, cfg.Device.CharDelayMS)
	assert.Equal(t, 500, cfg.Device.ServoDelayMS)
	assert.False(t, cfg.Device.DualServo)
	assert.True(t, cfg.Device.DebugMode)
	assert.Equal(t, 256, cfg.Protocol.MaxLine)
	assert.Equal(t, "reject", cfg.Protocol.Overflow)
	assert.Equal(t, 16, cfg.Mock.MessageBuffer)
	assert.False(t, cfg.Mock.Instant)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, 3000, cfg.Device.CharDelayMS)
	assert.True(t, cfg.Device.DualServo)
	assert.Equal(t, "truncate", cfg.Protocol.Overflow)
}

func TestLoad_ExplicitFalseBooleans(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	// dual_servo and instant default to true; an explicit false in the
	// file must not be "repaired" back to the default.
	yamlContent := `
device:
  dual_servo: false

mock:
  instant: false
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)

	assert.False(t, cfg.Device.DualServo)
	assert.False(t, cfg.Mock.Instant)
	assert.Equal(t, 3000, cfg.Device.CharDelayMS) // rest stays default
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Device.CharDelayMS = 2000
	cfg.Device.DualServo = false

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	// Load it back and verify
	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, 2000, loaded.Device.CharDelayMS)
	assert.False(t, loaded.Device.DualServo)
}
