package arm

import (
	"errors"
	"fmt"

	"github.com/Seann-Moser/romiarm/pkg/pca9685"
)

const (
	MinValue = 0
	MaxValue = 255
)

var ErrConfig = errors.New("arm: invalid channel mapping")

// Transform maps a command value to ticks:
//
//	ticks = Intercept + floor(SlopeNum * value / SlopeDen)
//
// The rational slope keeps the boundary values exact. SlopeDen must be
// positive; there is no default.
//
// InMin and InMax bound the accepted input. Leaving both zero selects the full
// [0,255], so a single-value domain of exactly [0,0] cannot be expressed.
type Transform struct {
	Intercept int
	SlopeNum  int
	SlopeDen  int

	InMin int
	InMax int
}

// Mapping binds a logical channel to a physical chip channel.
type Mapping struct {
	Name      string
	Channel   int
	Transform Transform
}

// DefaultMappings limits each servo to the travel the arm mechanics allow.
func DefaultMappings() []Mapping {
	return []Mapping{
		// 0 closes (464), 255 opens (96).
		{Name: "gripper", Channel: 0, Transform: Transform{Intercept: 464, SlopeNum: -368, SlopeDen: 255}},
		// 0 down (320), 255 up (192).
		{Name: "lift", Channel: 1, Transform: Transform{Intercept: 320, SlopeNum: -128, SlopeDen: 255}},
		// 0 down (350), 255 up (450).
		{Name: "wrist", Channel: 2, Transform: Transform{Intercept: 350, SlopeNum: 100, SlopeDen: 255}},
	}
}

// Domain returns the accepted input range.
func (t Transform) Domain() (lo, hi int) {
	if t.InMin == 0 && t.InMax == 0 {
		return MinValue, MaxValue
	}
	return t.InMin, t.InMax
}

// Apply computes the ticks for value without range checks.
func (t Transform) Apply(value int) int {
	return t.Intercept + floorDiv(t.SlopeNum*value, t.SlopeDen)
}

// Range returns the smallest and largest ticks over the whole domain.
func (t Transform) Range() (lo, hi int) {
	dlo, dhi := t.Domain()
	lo, hi = t.Apply(dlo), t.Apply(dlo)
	for v := dlo + 1; v <= dhi; v++ {
		ticks := t.Apply(v)
		if ticks < lo {
			lo = ticks
		}
		if ticks > hi {
			hi = ticks
		}
	}
	return lo, hi
}

// Validate sweeps every input value and checks the ticks stay within the chip range.
func (m Mapping) Validate() error {
	if m.Channel < 0 || m.Channel >= pca9685.NumChannels {
		return fmt.Errorf("%w: %q channel %d outside [0,%d]", ErrConfig, m.Name, m.Channel, pca9685.NumChannels-1)
	}
	t := m.Transform
	if t.SlopeDen <= 0 {
		return fmt.Errorf("%w: %q slope denominator %d must be positive", ErrConfig, m.Name, t.SlopeDen)
	}
	lo, hi := t.Domain()
	if lo < MinValue || hi > MaxValue || lo > hi {
		return fmt.Errorf("%w: %q input range [%d,%d] outside [%d,%d]", ErrConfig, m.Name, lo, hi, MinValue, MaxValue)
	}
	for v := lo; v <= hi; v++ {
		if ticks := t.Apply(v); ticks < 0 || ticks > pca9685.MaxTicks {
			return fmt.Errorf("%w: %q value %d maps to %d ticks outside [0,%d]", ErrConfig, m.Name, v, ticks, pca9685.MaxTicks)
		}
	}
	return nil
}

// ValidateTable validates every mapping and rejects two logical channels
// driving the same physical channel.
func ValidateTable(table []Mapping) error {
	seen := make(map[int]string, len(table))
	for _, m := range table {
		if err := m.Validate(); err != nil {
			return err
		}
		if prev, ok := seen[m.Channel]; ok {
			return fmt.Errorf("%w: %q and %q share channel %d", ErrConfig, prev, m.Name, m.Channel)
		}
		seen[m.Channel] = m.Name
	}
	return nil
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
