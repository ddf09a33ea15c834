package bus

import (
	"encoding/binary"
	"fmt"
	"io"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Periph is a Transport over a periph.io I2C bus.
type Periph struct {
	bus i2c.Bus
}

// OpenPeriph initializes the periph host drivers and opens the named bus
// ("I2C1", "/dev/i2c-1", or "" for the first one found).
func OpenPeriph(name string) (*Periph, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("bus: periph host init: %w", err)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("bus: open %q: %w", name, err)
	}
	return NewPeriph(b), nil
}

func NewPeriph(b i2c.Bus) *Periph {
	return &Periph{bus: b}
}

func (p *Periph) tx(addr uint16, w, r []byte) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	return p.bus.Tx(addr, w, r)
}

func (p *Periph) ReadByte(addr uint16, reg byte) (byte, error) {
	var r [1]byte
	if err := p.tx(addr, []byte{reg}, r[:]); err != nil {
		return 0, err
	}
	return r[0], nil
}

func (p *Periph) WriteByte(addr uint16, reg, value byte) error {
	return p.tx(addr, []byte{reg, value}, nil)
}

func (p *Periph) ReadWord(addr uint16, reg byte) (uint16, error) {
	var r [2]byte
	if err := p.tx(addr, []byte{reg}, r[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r[:]), nil
}

func (p *Periph) SendByte(addr uint16, cmd byte) error {
	return p.tx(addr, []byte{cmd}, nil)
}

func (p *Periph) ReceiveByte(addr uint16) (byte, error) {
	var r [1]byte
	if err := p.tx(addr, nil, r[:]); err != nil {
		return 0, err
	}
	return r[0], nil
}

func (p *Periph) Close() error {
	if c, ok := p.bus.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
