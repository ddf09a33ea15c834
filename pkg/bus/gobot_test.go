package bus

import (
	"errors"
	"testing"

	"gobot.io/x/gobot/drivers/i2c"
)

type fakeConn struct {
	i2c.Connection

	regs   map[uint8]uint8
	last   byte
	closed bool
}

func (c *fakeConn) ReadByteData(reg uint8) (uint8, error) { return c.regs[reg], nil }

func (c *fakeConn) WriteByteData(reg uint8, val uint8) error {
	c.regs[reg] = val
	return nil
}

func (c *fakeConn) ReadWordData(reg uint8) (uint16, error) {
	return uint16(c.regs[reg]) | uint16(c.regs[reg+1])<<8, nil
}

func (c *fakeConn) WriteByte(val byte) error {
	c.last = val
	return nil
}

func (c *fakeConn) ReadByte() (byte, error) { return c.regs[c.last], nil }

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type fakeConnector struct {
	i2c.Connector

	opened map[int]*fakeConn
	calls  int
	err    error
}

func (f *fakeConnector) GetConnection(address int, bus int) (i2c.Connection, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	c := &fakeConn{regs: map[uint8]uint8{}}
	f.opened[address] = c
	return c, nil
}

func (f *fakeConnector) GetDefaultBus() int { return 1 }

func TestGobot_ReusesConnectionPerAddress(t *testing.T) {
	fc := &fakeConnector{opened: map[int]*fakeConn{}}
	g := NewGobot(fc, 1)

	if err := g.WriteByte(0x40, 0x08, 0x40); err != nil {
		t.Fatalf("WriteByte: %v", err)
	}
	if err := g.WriteByte(0x40, 0x09, 0x01); err != nil {
		t.Fatalf("WriteByte: %v", err)
	}
	w, err := g.ReadWord(0x40, 0x08)
	if err != nil || w != 0x0140 {
		t.Fatalf("ReadWord=%#x err=%v want 0x0140", w, err)
	}
	if err := g.SendByte(0x40, 0x09); err != nil {
		t.Fatalf("SendByte: %v", err)
	}
	v, err := g.ReceiveByte(0x40)
	if err != nil || v != 0x01 {
		t.Fatalf("ReceiveByte=%#x err=%v want 0x01", v, err)
	}
	if fc.calls != 1 {
		t.Fatalf("GetConnection calls=%d want 1", fc.calls)
	}

	if err := g.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !fc.opened[0x40].closed {
		t.Fatalf("connection not closed")
	}
}

func TestGobot_ConnectionError(t *testing.T) {
	boom := errors.New("no device")
	g := NewGobot(&fakeConnector{opened: map[int]*fakeConn{}, err: boom}, 1)
	if _, err := g.ReadByte(0x40, 0); !errors.Is(err, boom) {
		t.Fatalf("err=%v want wrapped no device", err)
	}
}
