package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cjeanneret/apgmode/internal/apg"
)

// CameraConfig selects the camera model and controller board.
// Descriptor names a built-in descriptor; DescriptorFile, if set, wins.
type CameraConfig struct {
	Family         string `yaml:"family"`          // "alta" or "ascent"
	Descriptor     string `yaml:"descriptor"`      // e.g., "alta-u16m"
	DescriptorFile string `yaml:"descriptor_file"` // optional YAML descriptor
	FirmwareRev    uint16 `yaml:"firmware_rev"`    // as reported by the camera
}

// IOConfig describes how registers are reached.
type IOConfig struct {
	Mock          bool  `yaml:"mock"`            // use in-memory registers (true=dev/test)
	SPIChipSelect uint8 `yaml:"spi_chip_select"` // SPI0 chip select
	SPISpeedHz    int   `yaml:"spi_speed_hz"`    // SPI clock
}

// StartupConfig is applied to the controller once after it is built.
type StartupConfig struct {
	Mode         string   `yaml:"mode"`          // normal, tdi, kinetics, continuous
	TdiRows      uint16   `yaml:"tdi_rows"`      // stored even outside TDI mode
	BulkDownload bool     `yaml:"bulk_download"` // bulk sensor download
	FastSequence bool     `yaml:"fast_sequence"` // applied while in Normal mode
	Triggers     []string `yaml:"triggers"`      // e.g., ["normal:each"]
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
}

// Config aggregates all application configuration.
type Config struct {
	Camera   CameraConfig   `yaml:"camera"`
	IO       IOConfig       `yaml:"io"`
	Startup  StartupConfig  `yaml:"startup"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults validates cfg and fills in defaults for optional fields.
func applyDefaults(cfg *Config) error {
	if cfg.Camera.Family == "" {
		return fmt.Errorf("camera.family is required")
	}
	if cfg.Camera.Descriptor == "" && cfg.Camera.DescriptorFile == "" {
		return fmt.Errorf("camera.descriptor or camera.descriptor_file is required")
	}
	if cfg.IO.SPISpeedHz < 0 {
		return fmt.Errorf("io.spi_speed_hz must be >= 0, got %d", cfg.IO.SPISpeedHz)
	}
	if cfg.IO.SPISpeedHz == 0 {
		cfg.IO.SPISpeedHz = 1000000 // 1 MHz
	}
	if cfg.IO.SPIChipSelect > 1 {
		return fmt.Errorf("io.spi_chip_select must be 0 or 1, got %d", cfg.IO.SPIChipSelect)
	}
	if cfg.Startup.Mode == "" {
		cfg.Startup.Mode = "normal"
	}
	if _, err := apg.ParseCameraMode(cfg.Startup.Mode); err != nil {
		return fmt.Errorf("startup.mode: %w", err)
	}
	for _, trig := range cfg.Startup.Triggers {
		if _, err := apg.ParseTriggerPair(trig); err != nil {
			return fmt.Errorf("startup.triggers: %w", err)
		}
	}
	if cfg.Defaults.DebugLevel < 0 || cfg.Defaults.DebugLevel > 4 {
		return fmt.Errorf("debug_level must be between 0 and 4, got %d", cfg.Defaults.DebugLevel)
	}
	return nil
}

// StartupMode returns the parsed startup mode.
func (c *Config) StartupMode() apg.CameraMode {
	m, _ := apg.ParseCameraMode(c.Startup.Mode)
	return m
}

// StartupTriggers returns the parsed startup triggers.
func (c *Config) StartupTriggers() []apg.TriggerPair {
	out := make([]apg.TriggerPair, 0, len(c.Startup.Triggers))
	for _, s := range c.Startup.Triggers {
		p, err := apg.ParseTriggerPair(s)
		if err == nil {
			out = append(out, p)
		}
	}
	return out
}
