package config

import (
	"fmt"
	"os"
	"time"

	"github.com/warthog618/go-gpiocdev/device/rpi"
	"gopkg.in/yaml.v3"

	"github.com/Seann-Moser/romiarm/pkg/arm"
	"github.com/Seann-Moser/romiarm/pkg/pca9685"
)

const (
	BackendPeriph = "periph"
	BackendGobot  = "gobot"
	BackendSim    = "sim"
)

type Config struct {
	Bus            BusConfig       `yaml:"bus"`
	Address        uint16          `yaml:"address"`
	OutputEnable   LineConfig      `yaml:"output_enable"`
	StopButton     LineConfig      `yaml:"stop_button"`
	UpdateInterval time.Duration   `yaml:"update_interval"`
	Channels       []ChannelConfig `yaml:"channels"`
}

type BusConfig struct {
	Backend string `yaml:"backend"`
	// Name is the periph bus name, e.g. "I2C1". Empty picks the first bus.
	Name string `yaml:"name"`
	// Number is the gobot bus number. Negative uses the adaptor default.
	Number int `yaml:"number"`
}

type LineConfig struct {
	Enable bool   `yaml:"enable"`
	Chip   string `yaml:"chip"`
	Line   int    `yaml:"line"`
}

// ChannelConfig is one row of the safety table. slope_den is required.
// in_min and in_max both omitted (or both 0) accept the full 0-255 input.
type ChannelConfig struct {
	Name      string `yaml:"name"`
	Channel   int    `yaml:"channel"`
	Intercept int    `yaml:"intercept"`
	SlopeNum  int    `yaml:"slope_num"`
	SlopeDen  int    `yaml:"slope_den"`
	InMin     int    `yaml:"in_min"`
	InMax     int    `yaml:"in_max"`
}

// Default is the Romi arm on a Raspberry Pi: chip at 0x40 on I2C1.
func Default() Config {
	cfg := Config{
		Bus:            BusConfig{Backend: BackendPeriph, Name: "I2C1", Number: -1},
		Address:        pca9685.DefaultAddress,
		OutputEnable:   LineConfig{Chip: "gpiochip0", Line: rpi.GPIO17},
		StopButton:     LineConfig{Chip: "gpiochip0", Line: rpi.GPIO26},
		UpdateInterval: 20 * time.Millisecond,
	}
	for _, m := range arm.DefaultMappings() {
		cfg.Channels = append(cfg.Channels, ChannelConfig{
			Name:      m.Name,
			Channel:   m.Channel,
			Intercept: m.Transform.Intercept,
			SlopeNum:  m.Transform.SlopeNum,
			SlopeDen:  m.Transform.SlopeDen,
			InMin:     m.Transform.InMin,
			InMax:     m.Transform.InMax,
		})
	}
	return cfg
}

// Load reads a YAML file over Default. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Bus.Backend {
	case BackendPeriph, BackendGobot, BackendSim:
	case "":
		c.Bus.Backend = BackendPeriph
	default:
		return fmt.Errorf("bus.backend must be %s, %s or %s", BackendPeriph, BackendGobot, BackendSim)
	}
	if c.Address == 0 || c.Address > 0x7F {
		return fmt.Errorf("address 0x%X is not a 7-bit i2c address", c.Address)
	}
	if c.UpdateInterval <= 0 {
		c.UpdateInterval = 20 * time.Millisecond
	}
	for name, l := range map[string]LineConfig{"output_enable": c.OutputEnable, "stop_button": c.StopButton} {
		if !l.Enable {
			continue
		}
		if l.Chip == "" {
			return fmt.Errorf("%s.chip is required", name)
		}
		if l.Line < 0 {
			return fmt.Errorf("%s.line must be >= 0", name)
		}
	}
	if len(c.Channels) == 0 {
		return fmt.Errorf("channels must not be empty")
	}
	for i := range c.Channels {
		if c.Channels[i].SlopeDen <= 0 {
			return fmt.Errorf("channels[%d].slope_den must be positive", i)
		}
		if c.Channels[i].Name == "" {
			c.Channels[i].Name = fmt.Sprintf("port%d", i)
		}
	}
	return arm.ValidateTable(c.Mappings())
}

// Mappings converts the channel list to the adapter table, in logical order.
func (c Config) Mappings() []arm.Mapping {
	out := make([]arm.Mapping, 0, len(c.Channels))
	for _, ch := range c.Channels {
		out = append(out, arm.Mapping{
			Name:    ch.Name,
			Channel: ch.Channel,
			Transform: arm.Transform{
				Intercept: ch.Intercept,
				SlopeNum:  ch.SlopeNum,
				SlopeDen:  ch.SlopeDen,
				InMin:     ch.InMin,
				InMax:     ch.InMax,
			},
		})
	}
	return out
}
