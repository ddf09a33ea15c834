// Package pca9685 drives the NXP PCA9685 16-channel 12-bit PWM controller
// over an SMBus style register transport.
//
// Datasheet: https://www.nxp.com/docs/en/data-sheet/PCA9685.pdf
package pca9685

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Seann-Moser/romiarm/pkg/bus"
)

// The oscillator needs time to settle after leaving sleep and after a
// prescaler change.
const settleDelay = 10 * time.Millisecond

var settle = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var (
	ErrNotReady = errors.New("pca9685: not initialized")
	ErrChannel  = errors.New("pca9685: channel out of range")
	ErrTicks    = errors.New("pca9685: ticks out of range")
)

// Device is one chip at one slave address. It is not safe for concurrent use;
// the owner serializes calls.
type Device struct {
	bus   bus.Transport
	addr  uint16
	ready bool
}

func New(t bus.Transport, addr uint16) (*Device, error) {
	if t == nil {
		return nil, fmt.Errorf("pca9685: transport is nil")
	}
	if addr == 0 || addr > 0x7F {
		return nil, fmt.Errorf("pca9685: invalid address 0x%X", addr)
	}
	return &Device{bus: t, addr: addr}, nil
}

func (d *Device) Address() uint16 { return d.addr }

// Ready reports whether Initialize has completed.
func (d *Device) Ready() bool { return d.ready }

// Initialize puts the chip to sleep, programs the 50 Hz prescaler, loads the
// default duty cycles and restarts the oscillator. Each settle delay gates the
// write that follows it. Every step is an absolute write so calling it again
// yields the same register state.
func (d *Device) Initialize(ctx context.Context) error {
	d.ready = false

	if err := d.writeMode(ModeRestart | ModeSleep); err != nil {
		return err
	}
	if err := settle(ctx, settleDelay); err != nil {
		return fmt.Errorf("pca9685: settle after sleep: %w", err)
	}

	ps, err := prescale(FrequencyHz)
	if err != nil {
		return err
	}
	if err := d.write(RegPreScale, ps, "prescale"); err != nil {
		return err
	}
	for ch, off := range safeDefaults {
		if err := d.writeChannel(ch, 0, off); err != nil {
			return err
		}
	}

	if err := d.writeMode(ModeRestart); err != nil {
		return err
	}
	if err := settle(ctx, settleDelay); err != nil {
		return fmt.Errorf("pca9685: settle after wake: %w", err)
	}
	if err := d.writeMode(ModeRestart); err != nil {
		return err
	}

	d.ready = true
	log.Printf("[pca9685 0x%02X] initialized, prescale=0x%02X (%.2f Hz)", d.addr, ps, FrequencyOf(ps))
	return nil
}

// SetPWM sets the off tick of a channel. The on tick stays at 0, so the value
// is the pulse width in 1/4096 of the period.
func (d *Device) SetPWM(ch int, ticks int) error {
	if !d.ready {
		return ErrNotReady
	}
	if ch < 0 || ch >= NumChannels {
		return fmt.Errorf("%w: %d", ErrChannel, ch)
	}
	if ticks < 0 || ticks > MaxTicks {
		return fmt.Errorf("%w: %d on channel %d", ErrTicks, ticks, ch)
	}
	if err := d.write(offL(ch), byte(ticks&0xFF), fmt.Sprintf("channel %d off low", ch)); err != nil {
		return err
	}
	return d.write(offH(ch), byte((ticks>>8)&0xFF), fmt.Sprintf("channel %d off high", ch))
}

// Sleep stops the oscillator; all outputs go off. Register contents are kept.
func (d *Device) Sleep() error {
	return d.writeMode(ModeSleep)
}

// Wake leaves sleep mode and restarts the PWM channels with their previous duty.
func (d *Device) Wake(ctx context.Context) error {
	if !d.ready {
		return ErrNotReady
	}
	if err := d.writeMode(ModeRestart); err != nil {
		return err
	}
	if err := settle(ctx, settleDelay); err != nil {
		return fmt.Errorf("pca9685: settle after wake: %w", err)
	}
	return d.writeMode(ModeRestart)
}

// Mode reads MODE1.
func (d *Device) Mode() (Mode, error) {
	v, err := d.ReadByte(RegMode1)
	return Mode(v), err
}

// Frequency reads the prescaler back and returns the output frequency it produces.
func (d *Device) Frequency() (float64, error) {
	v, err := d.ReadByte(RegPreScale)
	if err != nil {
		return 0, err
	}
	return FrequencyOf(v), nil
}

// Channel reads the on and off ticks of a channel one byte at a time, since
// MODE1 auto-increment is left disabled.
func (d *Device) Channel(ch int) (on, off uint16, err error) {
	if ch < 0 || ch >= NumChannels {
		return 0, 0, fmt.Errorf("%w: %d", ErrChannel, ch)
	}
	var b [4]byte
	for i, reg := range [...]byte{onL(ch), onH(ch), offL(ch), offH(ch)} {
		if b[i], err = d.ReadByte(reg); err != nil {
			return 0, 0, err
		}
	}
	return uint16(b[0]) | uint16(b[1]&0x0F)<<8, uint16(b[2]) | uint16(b[3]&0x0F)<<8, nil
}

func (d *Device) ReadByte(reg byte) (byte, error) {
	v, err := d.bus.ReadByte(d.addr, reg)
	if err != nil {
		return 0, fmt.Errorf("pca9685: read reg 0x%02X: %w", reg, err)
	}
	return v, nil
}

func (d *Device) ReadWord(reg byte) (uint16, error) {
	v, err := d.bus.ReadWord(d.addr, reg)
	if err != nil {
		return 0, fmt.Errorf("pca9685: read word 0x%02X: %w", reg, err)
	}
	return v, nil
}

func (d *Device) SendByte(cmd byte) error {
	if err := d.bus.SendByte(d.addr, cmd); err != nil {
		return fmt.Errorf("pca9685: send 0x%02X: %w", cmd, err)
	}
	return nil
}

func (d *Device) ReceiveByte() (byte, error) {
	v, err := d.bus.ReceiveByte(d.addr)
	if err != nil {
		return 0, fmt.Errorf("pca9685: receive: %w", err)
	}
	return v, nil
}

func (d *Device) writeMode(m Mode) error {
	return d.write(RegMode1, byte(m), "mode1")
}

func (d *Device) writeChannel(ch int, on, off uint16) error {
	regs := [...]struct {
		reg byte
		val byte
	}{
		{onL(ch), byte(on & 0xFF)},
		{onH(ch), byte((on >> 8) & 0xFF)},
		{offL(ch), byte(off & 0xFF)},
		{offH(ch), byte((off >> 8) & 0xFF)},
	}
	for _, r := range regs {
		if err := d.write(r.reg, r.val, fmt.Sprintf("channel %d default", ch)); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) write(reg, val byte, what string) error {
	if err := d.bus.WriteByte(d.addr, reg, val); err != nil {
		return fmt.Errorf("pca9685: write %s (reg 0x%02X=0x%02X): %w", what, reg, val, err)
	}
	return nil
}
