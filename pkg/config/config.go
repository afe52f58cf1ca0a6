package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial   SerialConfig   `yaml:"serial"`
	Device   DeviceConfig   `yaml:"device"`
	Protocol ProtocolConfig `yaml:"protocol"`
	Mock     MockConfig     `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// DeviceConfig contains the render settings pushed to the cell on connect.
type DeviceConfig struct {
	CharDelayMS  int  `yaml:"char_delay_ms"`  // Hold time per character (ms)
	ServoDelayMS int  `yaml:"servo_delay_ms"` // Actuator travel settle time (ms)
	DualServo    bool `yaml:"dual_servo"`
	DebugMode    bool `yaml:"debug_mode"`
}

// ProtocolConfig contains request line handling parameters.
type ProtocolConfig struct {
	MaxLine  int    `yaml:"max_line"`
	Overflow string `yaml:"overflow"` // "truncate" or "reject"
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	MessageBuffer int  `yaml:"message_buffer"` // Reply channel capacity
	Instant       bool `yaml:"instant"`        // Skip settle delays
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
			BaudRate: 9600,
		},
		Device: DeviceConfig{
			CharDelayMS:  3000,
			ServoDelayMS: 750,
			DualServo:    true,
			DebugMode:    false,
		},
		Protocol: ProtocolConfig{
			MaxLine:  1000,
			Overflow: "truncate",
		},
		Mock: MockConfig{
			MessageBuffer: 100,
			Instant:       true,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure minimum required fields are set (use defaults if missing)
	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
// Booleans keep whatever Load unmarshalled over the defaults, so an explicit
// false in the file survives.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Device.CharDelayMS == 0 {
		c.Device.CharDelayMS = def.Device.CharDelayMS
	}
	if c.Device.ServoDelayMS == 0 {
		c.Device.ServoDelayMS = def.Device.ServoDelayMS
	}

	if c.Protocol.MaxLine == 0 {
		c.Protocol.MaxLine = def.Protocol.MaxLine
	}
	if c.Protocol.Overflow == "" {
		c.Protocol.Overflow = def.Protocol.Overflow
	}

	if c.Mock.MessageBuffer == 0 {
		c.Mock.MessageBuffer = def.Mock.MessageBuffer
	}
}
