// Package config loads the bind time configuration of an HDMI transmitter
// host from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the configuration of one transmitter.
type Config struct {
	Regs  RegsConfig `yaml:"regs"`
	IRQ   IRQConfig  `yaml:"irq"`
	HPD   HPDConfig  `yaml:"hpd"`
	DDC   DDCConfig  `yaml:"ddc"`
	Debug bool       `yaml:"debug"`
}

// RegsConfig locates the controller register window in physical memory.
type RegsConfig struct {
	Base uint64 `yaml:"base"`
	Size uint32 `yaml:"size"` // 0 uses the controller layout
}

// IRQConfig selects the UIO device delivering the controller interrupt.
type IRQConfig struct {
	UIO string `yaml:"uio"`
}

// HPDConfig selects the hot-plug detect GPIO. An empty GPIO leaves hot-plug
// detection to polling.
type HPDConfig struct {
	GPIO      string `yaml:"gpio"`
	ActiveLow bool   `yaml:"active_low"`
}

// DDCConfig controls how the DDC bus is exposed.
type DDCConfig struct {
	// Name registers the bus in the periph I2C registry.
	Name string `yaml:"name"`
}

var (
	errNoBase   = errors.New("config: regs.base is required")
	errBadAlign = errors.New("config: regs.base must be page aligned")
	errNoUIO    = errors.New("config: irq.uio is required")
)

const pageSize = 4096

// Default returns the configuration used for unset fields.
func Default() *Config {
	return &Config{
		IRQ: IRQConfig{UIO: "/dev/uio0"},
		DDC: DDCConfig{Name: "hdmi-ddc"},
	}
}

// Load reads and validates the YAML configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML configuration.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	d := Default()
	if c.IRQ.UIO == "" {
		c.IRQ.UIO = d.IRQ.UIO
	}
	if c.DDC.Name == "" {
		c.DDC.Name = d.DDC.Name
	}
}

// Validate returns the first problem found in c.
func (c *Config) Validate() error {
	if c.Regs.Base == 0 {
		return errNoBase
	}
	if c.Regs.Base%pageSize != 0 {
		return errBadAlign
	}
	if c.IRQ.UIO == "" {
		return errNoUIO
	}
	return nil
}
