// Package arm exposes the arm's servos as logical channels taking a 0-255
// command and drives them through the PCA9685 within their mechanical limits.
package arm

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

var ErrValue = errors.New("arm: value out of range")

const updateInterval = 500 * time.Millisecond

// PWM is the chip side of the adapter.
type PWM interface {
	SetPWM(ch int, ticks int) error
}

// IOInterfaces is what the device reports to the hardware framework.
type IOInterfaces struct {
	NumPwmOutPorts int
}

type Arm struct {
	mu         sync.Mutex
	pwm        PWM
	mappings   []Mapping
	lastUpdate time.Time
}

// New binds channelCount logical channels to table. Every mapping is validated
// up front; the table cannot be changed afterwards.
func New(pwm PWM, channelCount int, table []Mapping) (*Arm, error) {
	if pwm == nil {
		return nil, fmt.Errorf("%w: pwm driver is nil", ErrConfig)
	}
	if len(table) != channelCount {
		return nil, fmt.Errorf("%w: %d mappings for %d channels", ErrConfig, len(table), channelCount)
	}
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	mappings := make([]Mapping, len(table))
	copy(mappings, table)
	return &Arm{pwm: pwm, mappings: mappings}, nil
}

func (a *Arm) IOInterfaces() IOInterfaces {
	return IOInterfaces{NumPwmOutPorts: len(a.mappings)}
}

// Mappings returns a copy of the bound table.
func (a *Arm) Mappings() []Mapping {
	out := make([]Mapping, len(a.mappings))
	copy(out, a.mappings)
	return out
}

// SetValue moves logical channel ch. Channels without a mapping are ignored.
func (a *Arm) SetValue(ch int, value int) error {
	if ch < 0 || ch >= len(a.mappings) {
		return nil
	}
	m := a.mappings[ch]
	if lo, hi := m.Transform.Domain(); value < lo || value > hi {
		return fmt.Errorf("%w: %s (port %d) value %d outside [%d,%d]", ErrValue, m.Name, ch, value, lo, hi)
	}
	ticks := m.Transform.Apply(value)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.pwm.SetPWM(m.Channel, ticks); err != nil {
		log.Printf("[arm] %s port %d (pin %d) value %d ticks %d failed: %v", m.Name, ch, m.Channel, value, ticks, err)
		return fmt.Errorf("arm: %s port %d: %w", m.Name, ch, err)
	}
	return nil
}

// Update is the periodic hook. It only keeps the timestamp of the last sync.
func (a *Arm) Update(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastUpdate.IsZero() {
		a.lastUpdate = now
		return
	}
	if now.Sub(a.lastUpdate) > updateInterval {
		a.lastUpdate = now
	}
}

func (a *Arm) LastUpdate() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastUpdate
}
