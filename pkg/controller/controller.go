package controller

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/Seann-Moser/romiarm/pkg/arm"
	"github.com/Seann-Moser/romiarm/pkg/bus"
	"github.com/Seann-Moser/romiarm/pkg/config"
	gpio "github.com/Seann-Moser/romiarm/pkg/io"
	"github.com/Seann-Moser/romiarm/pkg/pca9685"
)

var ErrHalted = errors.New("controller: outputs halted by stop button")

type Controller struct {
	Arm *arm.Arm

	chip   *pca9685.Device
	cfg    config.Config
	bus    bus.Transport
	gpio   *gpio.IO
	oe     *gpio.OutputEnable
	stop   *gpio.Button
	halted bool
}

var openTransport = func(cfg config.BusConfig) (bus.Transport, error) {
	switch cfg.Backend {
	case config.BackendSim:
		return bus.NewSim(), nil
	case config.BackendGobot:
		g, err := bus.OpenRaspi(cfg.Number)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		p, err := bus.OpenPeriph(cfg.Name)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// New opens the bus and GPIO lines named by cfg. The chip is not touched
// until Start.
func New(cfg config.Config) (*Controller, error) {
	t, err := openTransport(cfg.Bus)
	if err != nil {
		return nil, err
	}
	c, err := newController(bus.NewLocked(t), cfg)
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	if !cfg.OutputEnable.Enable && !cfg.StopButton.Enable {
		return c, nil
	}

	c.gpio = gpio.New()
	if cfg.OutputEnable.Enable {
		if c.oe, err = c.gpio.OutputEnable(cfg.OutputEnable.Chip, cfg.OutputEnable.Line); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	if cfg.StopButton.Enable {
		if c.stop, err = c.gpio.WatchButton(cfg.StopButton.Chip, cfg.StopButton.Line); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

func newController(t bus.Transport, cfg config.Config) (*Controller, error) {
	chip, err := pca9685.New(t, cfg.Address)
	if err != nil {
		return nil, err
	}
	table := cfg.Mappings()
	a, err := arm.New(chip, len(table), table)
	if err != nil {
		return nil, err
	}
	return &Controller{chip: chip, Arm: a, cfg: cfg, bus: t}, nil
}

// Start initializes the chip and then enables its outputs.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.chip.Initialize(ctx); err != nil {
		return err
	}
	if c.oe != nil {
		if err := c.oe.Set(true); err != nil {
			return err
		}
	}
	log.Printf("[controller] arm ready, %d pwm ports", c.Arm.IOInterfaces().NumPwmOutPorts)
	return nil
}

func (c *Controller) Set(ch, value int) error {
	if c.halted {
		return ErrHalted
	}
	return c.Arm.SetValue(ch, value)
}

// Halt disables the outputs and puts the oscillator to sleep.
func (c *Controller) Halt() error {
	c.halted = true
	var result error
	if c.oe != nil {
		if err := c.oe.Set(false); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := c.chip.Sleep(); err != nil {
		result = multierror.Append(result, err)
	}
	log.Printf("[controller] outputs halted")
	return result
}

// Resume wakes the chip after Halt.
func (c *Controller) Resume(ctx context.Context) error {
	if err := c.chip.Wake(ctx); err != nil {
		return err
	}
	if c.oe != nil {
		if err := c.oe.Set(true); err != nil {
			return err
		}
	}
	c.halted = false
	log.Printf("[controller] outputs resumed")
	return nil
}

func (c *Controller) Halted() bool { return c.halted }

// Ready reports whether the chip has been initialized.
func (c *Controller) Ready() bool { return c.chip.Ready() }

// Run executes "<port> <value>" commands read from r until r is exhausted or
// ctx is done. Update runs on every tick and each stop button press toggles
// Halt/Resume. Bad commands are logged and skipped; bus errors end the run.
func (c *Controller) Run(ctx context.Context, r io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		s := bufio.NewScanner(r)
		for s.Scan() {
			select {
			case lines <- s.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- s.Err()
	}()

	ticker := time.NewTicker(c.cfg.UpdateInterval)
	defer ticker.Stop()

	var stop <-chan gpio.ButtonEvent
	if c.stop != nil {
		stop = c.stop.Event
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			c.Arm.Update(now)
		case ev := <-stop:
			if !ev.Pressed {
				continue
			}
			var err error
			if c.halted {
				err = c.Resume(ctx)
			} else {
				err = c.Halt()
			}
			if err != nil {
				return err
			}
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if err := c.exec(line); err != nil {
				return err
			}
		}
	}
}

func (c *Controller) exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	ch, value, err := ParseCommand(line)
	if err != nil {
		log.Printf("[controller] %v", err)
		return nil
	}
	if err := c.Set(ch, value); err != nil {
		if errors.Is(err, arm.ErrValue) || errors.Is(err, ErrHalted) {
			log.Printf("[controller] %v", err)
			return nil
		}
		return err
	}
	return nil
}

// ParseCommand parses "<port> <value>".
func ParseCommand(line string) (ch, value int, err error) {
	f := strings.Fields(line)
	if len(f) != 2 {
		return 0, 0, fmt.Errorf("command %q: want \"<port> <value>\"", line)
	}
	if ch, err = strconv.Atoi(f[0]); err != nil {
		return 0, 0, fmt.Errorf("command %q: port: %w", line, err)
	}
	if value, err = strconv.Atoi(f[1]); err != nil {
		return 0, 0, fmt.Errorf("command %q: value: %w", line, err)
	}
	return ch, value, nil
}

// Dump writes the chip mode, output frequency and the registers of every mapped channel.
func (c *Controller) Dump(w io.Writer) error {
	mode, err := c.chip.Mode()
	if err != nil {
		return err
	}
	freq, err := c.chip.Frequency()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "address 0x%02X mode1 0x%02X sleep=%t freq %.2f Hz\n",
		c.chip.Address(), byte(mode), mode&pca9685.ModeSleep != 0, freq)
	for port, m := range c.Arm.Mappings() {
		on, off, err := c.chip.Channel(m.Channel)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "port %d %-8s ch %2d on %4d off %4d\n", port, m.Name, m.Channel, on, off)
	}
	return nil
}

// Close puts the chip to sleep, disables the outputs and releases the bus and GPIO lines.
func (c *Controller) Close() error {
	var result error
	if c.chip.Ready() {
		if err := c.chip.Sleep(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if c.oe != nil {
		if err := c.oe.Set(false); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if c.gpio != nil {
		if err := c.gpio.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := c.bus.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}
