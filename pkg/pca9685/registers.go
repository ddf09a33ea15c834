package pca9685

import (
	"errors"
	"fmt"
	"math"
)

// Register addresses. Channel n occupies LED0OnL+4n .. LED0OffH+4n.
const (
	RegMode1    byte = 0x00
	RegLED0OnL  byte = 0x06
	RegLED0OnH  byte = 0x07
	RegLED0OffL byte = 0x08
	RegLED0OffH byte = 0x09
	RegPreScale byte = 0xFE
)

// Mode is a MODE1 register bit set.
type Mode byte

const (
	ModeSleep   Mode = 0x10
	ModeRestart Mode = 0x80
)

const (
	DefaultAddress uint16 = 0x40

	NumChannels = 16
	MaxTicks    = 4095

	OscillatorHz = 25_000_000
	periodTicks  = 4096

	// FrequencyHz is the fixed servo output frequency.
	FrequencyHz = 50
)

func onL(ch int) byte  { return RegLED0OnL + byte(4*ch) }
func onH(ch int) byte  { return RegLED0OnH + byte(4*ch) }
func offL(ch int) byte { return RegLED0OffL + byte(4*ch) }
func offH(ch int) byte { return RegLED0OffH + byte(4*ch) }

// PRE_SCALE accepts 3..255, roughly 24 Hz to 1526 Hz.
const (
	minPrescale = 3
	maxPrescale = 255
)

var ErrFrequency = errors.New("pca9685: frequency out of range")

// prescale returns the PRE_SCALE value for the requested output frequency:
// round(osc / (4096 * freq)) - 1.
func prescale(freqHz float64) (byte, error) {
	if math.IsNaN(freqHz) || freqHz <= 0 {
		return 0, fmt.Errorf("%w: %v Hz", ErrFrequency, freqHz)
	}
	v := math.Floor(float64(OscillatorHz)/(periodTicks*freqHz)+0.5) - 1
	if v < minPrescale || v > maxPrescale {
		return 0, fmt.Errorf("%w: %v Hz needs prescale %v", ErrFrequency, freqHz, v)
	}
	return byte(v), nil
}

// FrequencyOf is the inverse of prescale.
func FrequencyOf(prescale byte) float64 {
	return float64(OscillatorHz) / (periodTicks * (float64(prescale) + 1))
}

// safeDefaults are the off-tick values written during Initialize. They hold
// the attached servos at a mid-travel position.
var safeDefaults = []uint16{0x140, 0x100, 0x185}
