package bus

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"gobot.io/x/gobot/drivers/i2c"
	"gobot.io/x/gobot/platforms/raspi"
)

// Gobot is a Transport over a gobot i2c.Connector. One connection is opened
// lazily per slave address and reused.
type Gobot struct {
	connector i2c.Connector
	bus       int
	conns     map[uint16]i2c.Connection
}

// OpenRaspi connects the gobot Raspberry Pi adaptor. A negative bus selects
// the adaptor's default bus.
func OpenRaspi(bus int) (*Gobot, error) {
	r := raspi.NewAdaptor()
	if err := r.Connect(); err != nil {
		return nil, fmt.Errorf("bus: raspi connect: %w", err)
	}
	if bus < 0 {
		bus = r.GetDefaultBus()
	}
	return NewGobot(r, bus), nil
}

func NewGobot(c i2c.Connector, bus int) *Gobot {
	return &Gobot{connector: c, bus: bus, conns: make(map[uint16]i2c.Connection)}
}

func (g *Gobot) conn(addr uint16) (i2c.Connection, error) {
	if err := checkAddr(addr); err != nil {
		return nil, err
	}
	if c, ok := g.conns[addr]; ok {
		return c, nil
	}
	c, err := g.connector.GetConnection(int(addr), g.bus)
	if err != nil {
		return nil, fmt.Errorf("bus: gobot connection 0x%02X on bus %d: %w", addr, g.bus, err)
	}
	g.conns[addr] = c
	return c, nil
}

func (g *Gobot) ReadByte(addr uint16, reg byte) (byte, error) {
	c, err := g.conn(addr)
	if err != nil {
		return 0, err
	}
	return c.ReadByteData(reg)
}

func (g *Gobot) WriteByte(addr uint16, reg, value byte) error {
	c, err := g.conn(addr)
	if err != nil {
		return err
	}
	return c.WriteByteData(reg, value)
}

func (g *Gobot) ReadWord(addr uint16, reg byte) (uint16, error) {
	c, err := g.conn(addr)
	if err != nil {
		return 0, err
	}
	return c.ReadWordData(reg)
}

func (g *Gobot) SendByte(addr uint16, cmd byte) error {
	c, err := g.conn(addr)
	if err != nil {
		return err
	}
	return c.WriteByte(cmd)
}

func (g *Gobot) ReceiveByte(addr uint16) (byte, error) {
	c, err := g.conn(addr)
	if err != nil {
		return 0, err
	}
	return c.ReadByte()
}

// Close closes every cached connection and finalizes the adaptor when it supports it.
func (g *Gobot) Close() error {
	var result error
	for addr, c := range g.conns {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("bus: close 0x%02X: %w", addr, err))
		}
		delete(g.conns, addr)
	}
	if f, ok := g.connector.(interface{ Finalize() error }); ok {
		if err := f.Finalize(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}
